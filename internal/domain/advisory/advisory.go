package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoRules is returned when a rule table is built without a fallback.
var ErrNoRules = errors.New("advisory rule table requires a default rule")

// SourceTemplate marks advice produced locally from the rule table.
const SourceTemplate = "template"

// Request asks for diagnostic guidance on a component.
type Request struct {
	Refcode   string `json:"refcode"`
	Component string `json:"component"`
	FreeText  string `json:"free_text"`
	ModelKey  string `json:"model_key"`
}

// Advice is the generated guidance.
type Advice struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Source   string `json:"source"`
	Model    string `json:"model,omitempty"`
}

// Generator produces advice for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Advice, error)
}

// RenderContext is the data a rule template sees.
type RenderContext struct {
	Refcode   string
	Component string
	FreeText  string
	ModelKey  string
	Category  string
	Now       string
}

// Renderer renders a compiled rule template.
type Renderer interface {
	Render(ctx RenderContext) (string, error)
}

// Condition is an optional extra check a rule applies after its keywords match.
type Condition func(RenderContext) (bool, error)

// Rule is the declarative form of one advisory rule.
type Rule struct {
	Category string   `yaml:"category"`
	Contains []string `yaml:"contains"`
	When     string   `yaml:"when,omitempty"`
	Engine   string   `yaml:"engine,omitempty"`
	Template string   `yaml:"template"`
}

// Compiler turns rule sources into executable parts.
type Compiler interface {
	Compile(engine, name, source string) (Renderer, error)
	CompileCondition(name, source string) (Condition, error)
}

// CompiledRule is a rule ready for dispatch.
type CompiledRule struct {
	Category  string
	Keywords  []string
	Condition Condition
	Renderer  Renderer
}

// Matches reports whether the rule applies to ctx. Keywords are compared as
// case-insensitive substrings of the component name.
func (r *CompiledRule) Matches(ctx RenderContext) (bool, error) {
	name := strings.ToLower(ctx.Component)
	hit := false
	for _, k := range r.Keywords {
		if k != "" && strings.Contains(name, k) {
			hit = true
			break
		}
	}
	if !hit {
		return false, nil
	}
	if r.Condition == nil {
		return true, nil
	}
	return r.Condition(ctx)
}

// RuleTable dispatches a request to the first matching rule, in order,
// falling back to a default rule.
type RuleTable struct {
	rules    []CompiledRule
	fallback CompiledRule
}

// CompileTable compiles rules and fallback into a table.
func CompileTable(rules []Rule, fallback Rule, c Compiler) (*RuleTable, error) {
	if strings.TrimSpace(fallback.Template) == "" {
		return nil, ErrNoRules
	}
	t := &RuleTable{rules: make([]CompiledRule, 0, len(rules))}
	for i, r := range rules {
		cr, err := compileRule(r, c)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Category, err)
		}
		t.rules = append(t.rules, cr)
	}

	fb, err := compileRule(fallback, c)
	if err != nil {
		return nil, fmt.Errorf("default rule: %w", err)
	}
	if fb.Category == "" {
		fb.Category = CategoryGeneric
	}
	t.fallback = fb
	return t, nil
}

func compileRule(r Rule, c Compiler) (CompiledRule, error) {
	renderer, err := c.Compile(r.Engine, r.Category, r.Template)
	if err != nil {
		return CompiledRule{}, err
	}
	cr := CompiledRule{Category: r.Category, Renderer: renderer}
	for _, k := range r.Contains {
		cr.Keywords = append(cr.Keywords, strings.ToLower(strings.TrimSpace(k)))
	}
	if strings.TrimSpace(r.When) != "" {
		cond, err := c.CompileCondition(r.Category, r.When)
		if err != nil {
			return CompiledRule{}, err
		}
		cr.Condition = cond
	}
	return cr, nil
}

// Len returns the number of non-default rules.
func (t *RuleTable) Len() int { return len(t.rules) }

// Select returns the first rule matching ctx, or the default rule.
func (t *RuleTable) Select(ctx RenderContext) (*CompiledRule, error) {
	for i := range t.rules {
		ok, err := t.rules[i].Matches(ctx)
		if err != nil {
			return nil, fmt.Errorf("evaluating rule %s: %w", t.rules[i].Category, err)
		}
		if ok {
			return &t.rules[i], nil
		}
	}
	return &t.fallback, nil
}

// TemplateAdvisor answers requests from a rule table without any remote call.
// The same request always yields the same text for a fixed clock.
type TemplateAdvisor struct {
	table *RuleTable
	now   func() time.Time
}

var _ Generator = (*TemplateAdvisor)(nil)

// NewTemplateAdvisor creates an advisor over table. now may be nil.
func NewTemplateAdvisor(table *RuleTable, now func() time.Time) *TemplateAdvisor {
	if now == nil {
		now = time.Now
	}
	return &TemplateAdvisor{table: table, now: now}
}

// Generate renders the first matching rule for req.
func (a *TemplateAdvisor) Generate(ctx context.Context, req Request) (Advice, error) {
	if err := ctx.Err(); err != nil {
		return Advice{}, err
	}

	rc := RenderContext{
		Refcode:   strings.TrimSpace(req.Refcode),
		Component: strings.TrimSpace(req.Component),
		FreeText:  strings.TrimSpace(req.FreeText),
		ModelKey:  req.ModelKey,
		Now:       a.now().Format(time.RFC3339),
	}

	rule, err := a.table.Select(rc)
	if err != nil {
		return Advice{}, err
	}
	rc.Category = rule.Category

	text, err := rule.Renderer.Render(rc)
	if err != nil {
		return Advice{}, fmt.Errorf("rendering %s advice: %w", rule.Category, err)
	}
	return Advice{
		Text:     strings.TrimSpace(text),
		Category: rule.Category,
		Source:   SourceTemplate,
		Model:    req.ModelKey,
	}, nil
}
