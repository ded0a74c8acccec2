package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"sqsbackoff/internal/message"
)

// Evaluator compiles and runs boolean rules against a delivered message.
// Rules see id, body, payload, attributes, message_attributes and
// receive_count.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("message_attributes", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("receive_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, err := e.compileBool(expression)
	return err
}

// Rule is a compiled boolean expression.
type Rule struct {
	expression string
	program    cel.Program
}

func (r *Rule) Expression() string {
	return r.expression
}

// Compile validates that expression returns bool and prepares it for
// repeated evaluation.
func (e *Evaluator) Compile(expression string) (*Rule, error) {
	ast, err := e.compileBool(expression)
	if err != nil {
		return nil, err
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Rule{expression: expression, program: program}, nil
}

func (e *Evaluator) compileBool(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule expression must return bool, got %v", ast.OutputType())
	}

	return ast, nil
}

// Evaluate runs rule against env. payload is the decoded message payload and
// may be nil.
func (e *Evaluator) Evaluate(ctx context.Context, rule *Rule, env message.Envelope, payload map[string]interface{}) (bool, error) {
	vars := map[string]interface{}{
		"id":                 env.ID,
		"body":               env.Body,
		"payload":            orEmpty(payload),
		"attributes":         stringMap(env.Attributes),
		"message_attributes": stringMap(env.MessageAttributes),
		"receive_count":      int64(env.DeliveryCount),
	}

	result, _, err := rule.program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func stringMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
