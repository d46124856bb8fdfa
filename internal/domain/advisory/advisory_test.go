package advisory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
)

// echoCompiler renders "<category>|<component>|<free text>" and treats a
// condition source as the refcode prefix it requires.
type echoCompiler struct {
	failOn string
}

type echoRenderer struct{}

func (echoRenderer) Render(ctx advisory.RenderContext) (string, error) {
	return strings.Join([]string{ctx.Category, ctx.Component, ctx.FreeText}, "|"), nil
}

func (c echoCompiler) Compile(_, name, _ string) (advisory.Renderer, error) {
	if name == c.failOn && c.failOn != "" {
		return nil, errors.New("boom")
	}
	return echoRenderer{}, nil
}

func (c echoCompiler) CompileCondition(_, source string) (advisory.Condition, error) {
	return func(ctx advisory.RenderContext) (bool, error) {
		return strings.HasPrefix(ctx.Refcode, source), nil
	}, nil
}

func builtinTable(t *testing.T) *advisory.RuleTable {
	t.Helper()
	table, err := advisory.CompileTable(advisory.BuiltinRules(), advisory.DefaultRule(), echoCompiler{})
	require.NoError(t, err)
	return table
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestTemplateAdvisor_CategoryDispatch(t *testing.T) {
	adv := advisory.NewTemplateAdvisor(builtinTable(t), fixedNow)

	tests := []struct {
		component string
		want      string
	}{
		{"DCM1", advisory.CategoryDCM},
		{"P1-dcm-2", advisory.CategoryDCM},
		{"VPD-Card", advisory.CategoryVPD},
		{"SCL Osc", advisory.CategoryClock},
		{"PSRO", advisory.CategoryPower},
		{"DIMM 4", advisory.CategoryMemory},
		{"Fanout card", advisory.CategoryIO},
		{"Fan assembly", advisory.CategoryCooling},
		{"Backplane", advisory.CategoryGeneric},
		{"", advisory.CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			got, err := adv.Generate(context.Background(), advisory.Request{Component: tt.component})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, advisory.SourceTemplate, got.Source)
		})
	}
}

func TestTemplateAdvisor_Deterministic(t *testing.T) {
	adv := advisory.NewTemplateAdvisor(builtinTable(t), fixedNow)
	req := advisory.Request{Refcode: "3232001A", Component: " DCM1 ", FreeText: " hangs at IML ", ModelKey: "granite"}

	a, err := adv.Generate(context.Background(), req)
	require.NoError(t, err)
	b, err := adv.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "dcm|DCM1|hangs at IML", a.Text)
	assert.Equal(t, "granite", a.Model)
}

func TestRuleTable_FirstRuleWins(t *testing.T) {
	rules := []advisory.Rule{
		{Category: "first", Contains: []string{"card"}, Template: "x"},
		{Category: "second", Contains: []string{"vpd"}, Template: "y"},
	}
	table, err := advisory.CompileTable(rules, advisory.DefaultRule(), echoCompiler{})
	require.NoError(t, err)

	rule, err := table.Select(advisory.RenderContext{Component: "VPD-Card"})
	require.NoError(t, err)
	assert.Equal(t, "first", rule.Category)
	assert.Equal(t, 2, table.Len())
}

func TestRuleTable_WhenCondition(t *testing.T) {
	rules := []advisory.Rule{
		{Category: "b7-dcm", Contains: []string{"dcm"}, When: "B7", Template: "x"},
		{Category: "dcm", Contains: []string{"dcm"}, Template: "y"},
	}
	table, err := advisory.CompileTable(rules, advisory.DefaultRule(), echoCompiler{})
	require.NoError(t, err)

	rule, err := table.Select(advisory.RenderContext{Component: "DCM1", Refcode: "B7001234"})
	require.NoError(t, err)
	assert.Equal(t, "b7-dcm", rule.Category)

	rule, err = table.Select(advisory.RenderContext{Component: "DCM1", Refcode: "32320001"})
	require.NoError(t, err)
	assert.Equal(t, "dcm", rule.Category)
}

func TestCompileTable_Errors(t *testing.T) {
	_, err := advisory.CompileTable(nil, advisory.Rule{}, echoCompiler{})
	assert.ErrorIs(t, err, advisory.ErrNoRules)

	_, err = advisory.CompileTable(advisory.BuiltinRules(), advisory.DefaultRule(), echoCompiler{failOn: advisory.CategoryVPD})
	assert.ErrorContains(t, err, "vpd")
}

func TestTemplateAdvisor_CancelledContext(t *testing.T) {
	adv := advisory.NewTemplateAdvisor(builtinTable(t), fixedNow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adv.Generate(ctx, advisory.Request{Component: "DCM1"})
	assert.ErrorIs(t, err, context.Canceled)
}
