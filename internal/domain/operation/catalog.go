package operation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation code is not in the catalog.
var ErrNotFound = errors.New("operation not found")

// Temperature conditions an operation runs under.
const (
	TempAmbient = "Ambient"
	TempNominal = "Nominal"
	TempCold    = "Cold"
	TempHot     = "Hot"
)

// Operation is one manufacturing test floor step.
type Operation struct {
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description" yaml:"description"`
	Temperature string   `json:"temperature" yaml:"temperature"`
	Scripts     []string `json:"recommended_scripts" yaml:"recommended_scripts"`
}

// Label is the display form "<code> – <description>".
func (o Operation) Label() string {
	return o.Code + " – " + o.Description
}

// Catalog is an ordered, read-only list of operations.
type Catalog struct {
	ops    []Operation
	byCode map[string]int
}

// NewCatalog validates ops and builds a catalog preserving their order.
// Codes must be non-empty and unique.
func NewCatalog(ops []Operation) (*Catalog, error) {
	c := &Catalog{ops: make([]Operation, 0, len(ops)), byCode: make(map[string]int, len(ops))}
	for i, op := range ops {
		op.Code = strings.TrimSpace(op.Code)
		if op.Code == "" {
			return nil, fmt.Errorf("operation %d: code is required", i)
		}
		if _, dup := c.byCode[op.Code]; dup {
			return nil, fmt.Errorf("operation %d: duplicate code %q", i, op.Code)
		}
		if op.Temperature == "" {
			op.Temperature = TempAmbient
		}
		c.byCode[op.Code] = len(c.ops)
		c.ops = append(c.ops, op)
	}
	return c, nil
}

// All returns every operation in catalog order.
func (c *Catalog) All() []Operation {
	out := make([]Operation, len(c.ops))
	copy(out, c.ops)
	return out
}

// Lookup returns the operation with the given code.
func (c *Catalog) Lookup(code string) (Operation, error) {
	i, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return c.ops[i], nil
}

// Builtin returns the default test floor sequence.
func Builtin() *Catalog {
	c, err := NewCatalog([]Operation{
		{Code: "1000", Description: "Test floor safety checklist", Scripts: []string{"safety_check.sh", "env_monitor.py"}},
		{Code: "1030", Description: "Info collection / setup", Scripts: []string{"zsegetsysstatus --status Power_System_complete", "zm_dcm_data.py", "drawer_inventory.py"}},
		{Code: "9006", Description: "MFG SE code load", Scripts: []string{"verify_firmware.sh", "code_validation.py"}},
		{Code: "0470", Description: "AMB+ T-sort IO parts", Scripts: []string{"io_enumeration.sh", "part_verification.py"}},
		{Code: "1225", Description: "MFS comparison", Scripts: []string{"mfs_backup.sh", "compare_mfs.py"}},
		{Code: "1227-0", Description: "Card personalization", Scripts: []string{"personalize_card.sh", "verify_identity.py"}},
		{Code: "0472", Description: "IO diagnostics @ Nominal", Temperature: TempNominal, Scripts: []string{"cecctl status", "cardctl test --verbose"}},
		{Code: "0473", Description: "IO diagnostics @ Nominal (Phase 2)", Temperature: TempNominal, Scripts: []string{"zsegetsysstatus --status IML_complete", "thermal_monitor.py"}},
		{Code: "0476", Description: "IO diagnostics @ Cold", Temperature: TempCold, Scripts: []string{"thermal_prep.sh", "cold_boot_test.py"}},
		{Code: "0474", Description: "IO diagnostics @ Hot", Temperature: TempHot, Scripts: []string{"thermal_stress.sh", "hot_performance.py"}},
		{Code: "1407", Description: "Final MFS comparison", Scripts: []string{"final_mfs_check.sh", "integrity_verify.py"}},
		{Code: "0550", Description: "Post-fab Op", Scripts: []string{"cleanup_temps.sh", "final_verification.py"}},
		{Code: "1500", Description: "Archive process data", Scripts: []string{"data_archive.sh", "report_generation.py"}},
	})
	if err != nil {
		panic(err)
	}
	return c
}
