package usecases_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/template"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/usecases"
	"github.com/sophialabs/testlabadvisor/internal/testutil"
)

const sampleCSV = "refcode,fru_number,fru_name,drawer,location,recovered,se_commands,notes\n" +
	"3232001A,01AB123,DCM1,Z01,P1-C1,Yes,zm_dcm_data.py,\n" +
	"B7001234,02CD456,VPD-Card,Z01,P1-C2,No,vpdtool --dump,reseat card\n"

type stubOverrides struct {
	rules    advisory.RuleSet
	rulesOK  bool
	rulesErr error
	ops      *operation.Catalog
	opsErr   error
}

func (s stubOverrides) Rules() (advisory.RuleSet, bool, error) {
	return s.rules, s.rulesOK, s.rulesErr
}

func (s stubOverrides) Operations() (*operation.Catalog, bool, error) {
	return s.ops, s.ops != nil, s.opsErr
}

func newLoadUC(dir string, overrides usecases.Overrides) *usecases.LoadDatasetUseCase {
	return usecases.NewLoadDatasetUseCase(
		filesystem.NewCSVSource(dir, "refcode_fru_map.csv", "se_command_library.csv"),
		overrides,
		template.NewRegistry(""),
		&testutil.FixedClock{T: fixedNow},
		&testutil.NoopLogger{},
		testutil.NoopMetrics{},
	)
}

func TestLoadDataset_SampleTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refcode_fru_map.csv"), []byte(sampleCSV), 0o644))

	snap, err := newLoadUC(dir, filesystem.OverrideFiles{}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Dataset.Len())
	assert.Empty(t, snap.Warnings, "a missing command library is not a warning")
	assert.Equal(t, fixedNow, snap.LoadedAt)
	assert.Len(t, snap.Catalog.All(), 13)

	res := snap.Matcher.Search("dcm")
	require.Len(t, res.Records, 1)
	assert.Equal(t, "3232001A", res.Records[0].Refcode)

	advice, err := snap.Advisor.Generate(context.Background(), advisory.Request{Refcode: "3232001A", Component: "DCM1"})
	require.NoError(t, err)
	assert.Equal(t, advisory.CategoryDCM, advice.Category)
}

func TestLoadDataset_Idempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refcode_fru_map.csv"), []byte(sampleCSV), 0o644))
	uc := newLoadUC(dir, filesystem.OverrideFiles{})

	a, err := uc.Execute(context.Background())
	require.NoError(t, err)
	b, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Dataset, b.Dataset)
}

func TestLoadDataset_MissingReferenceIsWarning(t *testing.T) {
	snap, err := newLoadUC(t.TempDir(), filesystem.OverrideFiles{}).Execute(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Dataset.Len())
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "reference table")
	assert.Equal(t, match.StatusNoMatch, snap.Matcher.Search("dcm").Status)
}

func TestLoadDataset_BadOverridesFallBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refcode_fru_map.csv"), []byte(sampleCSV), 0o644))

	snap, err := newLoadUC(dir, stubOverrides{
		rulesErr: errors.New("bad rules"),
		opsErr:   errors.New("bad ops"),
	}).Execute(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Warnings, 2)
	assert.Len(t, snap.Catalog.All(), 13)
	require.NotNil(t, snap.Advisor)
}

func TestLoadDataset_ConfiguredRules(t *testing.T) {
	dir := t.TempDir()
	ops, err := operation.NewCatalog([]operation.Operation{{Code: "X1", Description: "Custom"}})
	require.NoError(t, err)

	snap, err := newLoadUC(dir, stubOverrides{
		rules: advisory.RuleSet{
			Rules: []advisory.Rule{{Category: "psu", Contains: []string{"psu"}, Template: "Swap {{ component }}."}},
		},
		rulesOK: true,
		ops:     ops,
	}).Execute(context.Background())
	require.NoError(t, err)

	advice, err := snap.Advisor.Generate(context.Background(), advisory.Request{Component: "PSU"})
	require.NoError(t, err)
	assert.Equal(t, "psu", advice.Category)
	assert.Equal(t, "Swap PSU.", advice.Text)

	_, err = snap.Catalog.Lookup("X1")
	assert.NoError(t, err)
}

func TestLoadDataset_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoadUC(t.TempDir(), filesystem.OverrideFiles{}).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
