package expression

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"
)

// Variable names bound during evaluation.
const (
	HeaderVariable = "header"
	ClaimsVariable = "claims"
)

const (
	// DefaultCostLimit caps the runtime cost of a single evaluation.
	DefaultCostLimit uint64 = 1_000_000

	interruptCheckFrequency uint = 100
)

// Validator is a compiled policy expression. The zero value and a validator
// built from an empty expression accept every token. It is safe for
// concurrent use.
type Validator struct {
	expression string
	costLimit  uint64
	program    cel.Program
}

// Option configures a Validator.
type Option func(*Validator) error

// WithCostLimit sets the evaluation cost limit.
func WithCostLimit(limit uint64) Option {
	return func(v *Validator) error {
		if limit == 0 {
			return errors.New("cost limit must be positive")
		}
		v.costLimit = limit
		return nil
	}
}

// New compiles expression. Blank expressions produce an always passing
// validator; anything else that fails to compile returns an *Error of kind
// ErrCompile.
func New(expression string, opts ...Option) (*Validator, error) {
	v := &Validator{costLimit: DefaultCostLimit}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(expression) == "" {
		return v, nil
	}
	v.expression = expression

	env, err := cel.NewEnv(
		cel.Variable(HeaderVariable, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(ClaimsVariable, cel.MapType(cel.StringType, cel.DynType)),
		ext.Strings(),
	)
	if err != nil {
		return nil, &Error{Kind: ErrCompile, Expression: expression, Err: err}
	}

	ast, issues := env.Compile(expression)
	if issues.Err() != nil {
		return nil, &Error{Kind: ErrCompile, Expression: expression, Err: issues.Err()}
	}

	program, err := env.Program(ast,
		cel.CostLimit(v.costLimit),
		cel.InterruptCheckFrequency(interruptCheckFrequency),
	)
	if err != nil {
		return nil, &Error{Kind: ErrCompile, Expression: expression, Err: err}
	}
	v.program = program

	return v, nil
}

// Expression returns the configured expression text, empty when disabled.
func (v *Validator) Expression() string {
	if v == nil {
		return ""
	}
	return v.expression
}

// Enabled reports whether an expression is configured.
func (v *Validator) Enabled() bool {
	return v != nil && v.program != nil
}

// Validate evaluates the expression against header and claims. A false
// result is reported with kind ErrExecution and includes the expression.
func (v *Validator) Validate(ctx context.Context, header, claims map[string]any) error {
	if !v.Enabled() {
		return nil
	}

	out, _, err := v.program.ContextEval(ctx, map[string]any{
		HeaderVariable: mapValue(header),
		ClaimsVariable: mapValue(claims),
	})
	if err != nil {
		return &Error{Kind: ErrExecution, Expression: v.expression, Err: err}
	}

	result, ok := out.(types.Bool)
	if !ok {
		return &Error{
			Kind:       ErrNonBooleanResult,
			Expression: v.expression,
			Err:        fmt.Errorf("got %s", out.Type().TypeName()),
		}
	}
	if !result {
		return &Error{Kind: ErrExecution, Expression: v.expression, Err: errors.New("evaluated to false")}
	}
	return nil
}
