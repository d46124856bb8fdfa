package advisory

// Built-in categories.
const (
	CategoryDCM     = "dcm"
	CategoryVPD     = "vpd"
	CategoryClock   = "clock"
	CategoryPower   = "power"
	CategoryMemory  = "memory"
	CategoryCooling = "cooling"
	CategoryIO      = "io"
	CategoryGeneric = "generic"
)

const header = `Refcode {{ refcode|default:"(none)" }} on {{ component|default:"unknown component" }}:
`

const footer = `{% if free_text %}
Operator notes: {{ free_text }}{% endif %}`

// BuiltinRules returns the default rule table, in dispatch order.
func BuiltinRules() []Rule {
	return []Rule{
		{
			Category: CategoryDCM,
			Contains: []string{"dcm", "dual chip", "processor", "cp chip"},
			Template: header + `1. Run zm_dcm_data.py to capture chip data for the module.
2. Check zsegetsysstatus for IML and power status of the drawer.
3. If the error repeats after a reset, reseat the DCM and rerun the IO diagnostic step.` + footer,
		},
		{
			Category: CategoryVPD,
			Contains: []string{"vpd", "vital product"},
			Template: header + `1. Dump the VPD image and compare the serial and part numbers against the FRU label.
2. Verify card personalization (op 1227-0) completed for this card.
3. Reprogram or replace the VPD carrier if the checksum does not validate.` + footer,
		},
		{
			Category: CategoryClock,
			Contains: []string{"scl", "clock", "osc", "oscillator"},
			Template: header + `1. Check the scaled clock level and oscillator lock status with cecctl status.
2. Confirm both clock cards are seated and the cables are latched.
3. Switch to the redundant oscillator and rerun the test; replace the clock card if the fault follows it.` + footer,
		},
		{
			Category: CategoryPower,
			Contains: []string{"psro", "power", "psu", "regulator", "bpa"},
			Template: header + `1. Run zsegetsysstatus --status Power_System_complete and note any rail faults.
2. Inspect the power supply and regulator LEDs in the drawer.
3. Power cycle the drawer once; replace the supply if the same rail faults again.` + footer,
		},
		{
			Category: CategoryMemory,
			Contains: []string{"memory", "dimm", "dram", "cache"},
			Template: header + `1. Identify the failing DIMM location from the refcode detail.
2. Reseat the DIMM and rerun memory diagnostics.
3. Swap with a known good DIMM to isolate the slot from the part.` + footer,
		},
		{
			Category: CategoryIO,
			Contains: []string{"io card", "io drawer", "pcie", "adapter", "fanout", "zhyperlink", "card"},
			Template: header + `1. Run cardctl test --verbose on the IO card.
2. Check link training and cable seating on the fanout.
3. Rerun IO diagnostics at nominal temperature (op 0472) before replacing the card.` + footer,
		},
		{
			Category: CategoryCooling,
			Contains: []string{"fan", "cool", "thermal", "blower", "pump"},
			Template: header + `1. Check fan speeds and inlet temperatures with thermal_monitor.py.
2. Clear any airflow obstruction and confirm baffles are installed.
3. Repeat the hot corner test (op 0474) after the fix.` + footer,
		},
	}
}

// DefaultRule is used when no built-in or configured rule matches.
func DefaultRule() Rule {
	return Rule{
		Category: CategoryGeneric,
		Template: header + `1. Look up the refcode in the reference table and follow the listed SE commands.
2. Collect system status with zsegetsysstatus and attach the output to the test log.
3. Escalate to the test floor engineer if the failure does not self-recover.` + footer,
	}
}

// RuleSet is a configured replacement for the built-in rules. A nil Default
// keeps DefaultRule.
type RuleSet struct {
	Rules   []Rule
	Default *Rule
}
