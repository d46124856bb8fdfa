package template

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
)

// ExprCompiler compiles advisory templates using the Expr language with ${ } interpolation.
type ExprCompiler struct{}

// Compile parses the source for ${ } delimiters and compiles each expression.
func (c *ExprCompiler) Compile(name, source string) (advisory.Renderer, error) {
	segments, err := parseExprSegments(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expr template %q: %w", name, err)
	}

	// If no dynamic segments found, return a static renderer.
	hasDynamic := false
	for _, seg := range segments {
		if seg.program != nil {
			hasDynamic = true
			break
		}
	}
	if !hasDynamic {
		return &staticRenderer{text: source}, nil
	}

	return &exprRenderer{segments: segments}, nil
}

type exprSegment struct {
	static  string
	program *vm.Program
}

func parseExprSegments(source string) ([]exprSegment, error) {
	var segments []exprSegment
	remaining := source

	for {
		idx := strings.Index(remaining, "${")
		if idx < 0 {
			if remaining != "" {
				segments = append(segments, exprSegment{static: remaining})
			}
			break
		}

		// Add static part before ${.
		if idx > 0 {
			segments = append(segments, exprSegment{static: remaining[:idx]})
		}

		// Find closing }.
		rest := remaining[idx+2:]
		closeIdx := findClosingBrace(rest)
		if closeIdx < 0 {
			return nil, fmt.Errorf("unclosed ${ at position %d", idx)
		}

		expression := rest[:closeIdx]
		program, err := expr.Compile(expression, expr.Env(exprEnv{}))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}
		segments = append(segments, exprSegment{program: program})
		remaining = rest[closeIdx+1:]
	}

	return segments, nil
}

// findClosingBrace finds the matching } accounting for nested braces.
func findClosingBrace(s string) int {
	depth := 0
	inString := false
	var stringChar byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			if ch == '\\' && i+1 < len(s) {
				i++ // skip escaped char
				continue
			}
			if ch == stringChar {
				inString = false
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inString = true
			stringChar = ch
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// exprEnv defines the environment available to Expr expressions.
type exprEnv struct {
	Refcode   string              `expr:"refcode"`
	Component string              `expr:"component"`
	FreeText  string              `expr:"free_text"`
	Model     string              `expr:"model"`
	Category  string              `expr:"category"`
	Timestamp string              `expr:"timestamp"`
	NowFormat func(string) string `expr:"nowFormat"`
	Family    func() string       `expr:"family"`
	ToJSON    func(any) string    `expr:"toJSON"`
}

// CompileCondition compiles a boolean rule condition.
func (c *ExprCompiler) CompileCondition(name, source string) (advisory.Condition, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile condition for %q: %w", name, err)
	}
	return func(ctx advisory.RenderContext) (bool, error) {
		out, err := expr.Run(program, buildExprEnv(ctx))
		if err != nil {
			return false, fmt.Errorf("condition evaluation failed: %w", err)
		}
		ok, _ := out.(bool)
		return ok, nil
	}, nil
}

type exprRenderer struct {
	segments []exprSegment
}

func (r *exprRenderer) Render(ctx advisory.RenderContext) (string, error) {
	env := buildExprEnv(ctx)

	var buf strings.Builder
	for _, seg := range r.segments {
		if seg.program == nil {
			buf.WriteString(seg.static)
			continue
		}
		result, err := expr.Run(seg.program, env)
		if err != nil {
			return "", fmt.Errorf("expression evaluation failed: %w", err)
		}
		fmt.Fprintf(&buf, "%v", result)
	}
	return buf.String(), nil
}

// staticRenderer returns fixed text (used when no dynamic segments are found).
type staticRenderer struct {
	text string
}

func (r *staticRenderer) Render(advisory.RenderContext) (string, error) {
	return r.text, nil
}
