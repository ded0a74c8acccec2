package processing

import (
	"context"
	"fmt"
	"strconv"

	"sqsbackoff/internal/config"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/outcome"
	"sqsbackoff/pkg/cel"
	"sqsbackoff/pkg/metrics"
)

const (
	ruleFailWhen  = "fail_when"
	ruleRetryWhen = "retry_when"
)

// RuleHandler decides the outcome from configured CEL rules. fail_when is
// checked first, then retry_when; a message matching neither succeeds.
type RuleHandler struct {
	evaluator *cel.Evaluator
	failWhen  *cel.Rule
	retryWhen *cel.Rule
	logger    logger.Logger
}

// NewRuleHandler compiles the configured rules. Empty expressions are
// skipped.
func NewRuleHandler(cfg config.ProcessingConfig, log logger.Logger) (*RuleHandler, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	h := &RuleHandler{evaluator: evaluator, logger: log}

	if cfg.FailWhen != "" {
		if h.failWhen, err = evaluator.Compile(cfg.FailWhen); err != nil {
			return nil, fmt.Errorf("invalid %s rule: %w", ruleFailWhen, err)
		}
	}
	if cfg.RetryWhen != "" {
		if h.retryWhen, err = evaluator.Compile(cfg.RetryWhen); err != nil {
			return nil, fmt.Errorf("invalid %s rule: %w", ruleRetryWhen, err)
		}
	}

	return h, nil
}

func (h *RuleHandler) Handle(ctx context.Context, env message.Envelope, msg message.Message) outcome.Result {
	matched, err := h.match(ctx, ruleFailWhen, h.failWhen, env, msg)
	if err != nil {
		return outcome.Fail(err)
	}
	if matched {
		return outcome.Fail(fmt.Errorf("message matched %s rule", ruleFailWhen))
	}

	matched, err = h.match(ctx, ruleRetryWhen, h.retryWhen, env, msg)
	if err != nil {
		return outcome.Fail(err)
	}
	if matched {
		return outcome.Retry(fmt.Errorf("message matched %s rule", ruleRetryWhen))
	}

	return outcome.Succeeded()
}

func (h *RuleHandler) match(ctx context.Context, name string, rule *cel.Rule, env message.Envelope, msg message.Message) (bool, error) {
	if rule == nil {
		return false, nil
	}

	matched, err := h.evaluator.Evaluate(ctx, rule, env, msg.Payload)
	if err != nil {
		metrics.IncRuleEvaluation(name, "error")
		h.logger.ErrorwCtx(ctx, "Rule evaluation error",
			"rule", name,
			"expression", rule.Expression(),
			"error", err,
		)
		return false, err
	}

	metrics.IncRuleEvaluation(name, strconv.FormatBool(matched))
	return matched, nil
}
