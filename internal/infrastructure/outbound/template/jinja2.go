package template

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

// Jinja2Compiler compiles advisory templates using Pongo2 (Django/Jinja2-style).
type Jinja2Compiler struct{}

// Compile parses the source as a Pongo2 template.
func (c *Jinja2Compiler) Compile(name, source string) (advisory.Renderer, error) {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jinja2 template %q: %w", name, err)
	}
	return &jinja2Renderer{tpl: tpl}, nil
}

type jinja2Renderer struct {
	tpl *pongo2.Template
}

func (r *jinja2Renderer) Render(ctx advisory.RenderContext) (string, error) {
	pongoCtx := pongo2.Context{
		"refcode":   ctx.Refcode,
		"component": ctx.Component,
		"free_text": ctx.FreeText,
		"model":     ctx.ModelKey,
		"category":  ctx.Category,
		"timestamp": ctx.Now,

		"family": func() string {
			return component.Family(ctx.Refcode)
		},
		"nowFormat": func(layout string) string {
			return formatNow(ctx.Now, layout)
		},
		"toJSON": func(v any) string {
			return toJSONString(v)
		},
	}

	result, err := r.tpl.Execute(pongoCtx)
	if err != nil {
		return "", fmt.Errorf("jinja2 template render failed: %w", err)
	}
	return result, nil
}
