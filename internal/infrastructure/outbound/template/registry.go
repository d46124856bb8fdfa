package template

import (
	"fmt"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
)

// Engine names.
const (
	EngineExpr   = "expr"
	EngineJinja2 = "jinja2"
)

// EngineCompiler compiles a template source string into an advisory.Renderer.
type EngineCompiler interface {
	Compile(name, source string) (advisory.Renderer, error)
}

var _ advisory.Compiler = (*Registry)(nil)

// Registry maps engine names to their compilers.
type Registry struct {
	engines       map[string]EngineCompiler
	defaultEngine string
	conditions    *ExprCompiler
}

// NewRegistry creates a registry with the built-in engines (expr, jinja2).
// Rules that do not name an engine use defaultEngine, or jinja2 when empty.
func NewRegistry(defaultEngine string) *Registry {
	if defaultEngine == "" {
		defaultEngine = EngineJinja2
	}
	exprc := &ExprCompiler{}
	return &Registry{
		engines: map[string]EngineCompiler{
			EngineExpr:   exprc,
			EngineJinja2: &Jinja2Compiler{},
		},
		defaultEngine: defaultEngine,
		conditions:    exprc,
	}
}

// Compile resolves the engine by name and compiles the source.
func (r *Registry) Compile(engine, name, source string) (advisory.Renderer, error) {
	if engine == "" {
		engine = r.defaultEngine
	}
	ec, ok := r.engines[engine]
	if !ok {
		return nil, fmt.Errorf("unknown template engine: %q (supported: expr, jinja2)", engine)
	}
	return ec.Compile(name, source)
}

// CompileCondition compiles a boolean Expr expression evaluated against
// the same variables templates see.
func (r *Registry) CompileCondition(name, source string) (advisory.Condition, error) {
	return r.conditions.CompileCondition(name, source)
}
