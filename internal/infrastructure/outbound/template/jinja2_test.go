package template

import (
	"strings"
	"testing"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
)

func TestJinja2Compiler_SimpleVariable(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `Check {{ component }}!`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, err := renderer.Render(advisory.RenderContext{Component: "DCM1"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result != "Check DCM1!" {
		t.Errorf("expected 'Check DCM1!', got %q", result)
	}
}

func TestJinja2Compiler_Conditional(t *testing.T) {
	c := &Jinja2Compiler{}
	source := `{% if free_text %}notes: {{ free_text }}{% else %}no notes{% endif %}`
	renderer, err := c.Compile("test", source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"with notes", "hangs at IML", "notes: hangs at IML"},
		{"without notes", "", "no notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render(advisory.RenderContext{FreeText: tt.text})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if result != tt.want {
				t.Errorf("expected %q, got %q", tt.want, result)
			}
		})
	}
}

func TestJinja2Compiler_DefaultFilter(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `{{ refcode|default:"(none)" }}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, _ := renderer.Render(advisory.RenderContext{})
	if result != "(none)" {
		t.Errorf("expected '(none)', got %q", result)
	}
}

func TestJinja2Compiler_Family(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `{{ family() }}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, err := renderer.Render(advisory.RenderContext{Refcode: "b7001234"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result != "B700" {
		t.Errorf("expected 'B700', got %q", result)
	}
}

func TestJinja2Compiler_InvalidSyntax(t *testing.T) {
	c := &Jinja2Compiler{}
	_, err := c.Compile("bad", `{% if %}`)
	if err == nil {
		t.Error("expected compile error")
	}
}

func TestJinja2Compiler_NowFormat(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `{{ nowFormat("2006-01-02") }}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, err := renderer.Render(advisory.RenderContext{Now: "2026-03-15T10:30:00Z"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result != "2026-03-15" {
		t.Errorf("expected '2026-03-15', got %q", result)
	}
}

func TestJinja2Compiler_NowFormatInvalidDate(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `{{ nowFormat("2006") }}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, _ := renderer.Render(advisory.RenderContext{Now: "not-a-date"})
	if result != "not-a-date" {
		t.Errorf("expected raw value on parse failure, got %q", result)
	}
}

func TestJinja2Compiler_ToJSON(t *testing.T) {
	c := &Jinja2Compiler{}
	renderer, err := c.Compile("test", `{{ toJSON(component) }}`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	result, _ := renderer.Render(advisory.RenderContext{Component: "VPD-Card"})
	if !strings.Contains(result, `"VPD-Card"`) {
		t.Errorf("expected JSON string, got %q", result)
	}
}
