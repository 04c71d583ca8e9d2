package drafts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoEvaluator indicates the producer could not resolve a rule evaluator.
var ErrNoEvaluator = errors.New("drafts: evaluator not configured")

// EvaluateRule evaluates expression against a snapshot of d using the
// producer's evaluator, falling back to the expr engine.
func (p *Producer) EvaluateRule(d *Draft, expression string) (any, error) {
	snapshot, err := Snapshot(d)
	if err != nil {
		return nil, err
	}
	return p.EvaluateRuleWith(RuleContext{Snapshot: snapshot}, expression)
}

// EvaluateRuleWith evaluates expression with an explicit context.
func (p *Producer) EvaluateRuleWith(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("%w: expression must not be empty", ErrBadArgument)
	}
	evaluator, err := p.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expression)
	duration := time.Since(start)
	evalErr = wrapRuleEvaluation("", expression, ctx.pathLabel(), evalErr)
	p.ruleLogger().LogRule(RuleLogEvent{
		Engine:   engine,
		Expr:     expression,
		Path:     ctx.pathLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// ApplyRule evaluates expression against a snapshot of d and assigns the
// result through the draft at the dot-separated path.
func (p *Producer) ApplyRule(d *Draft, path string, expression string) error {
	snapshot, err := Snapshot(d)
	if err != nil {
		return err
	}
	value, err := p.EvaluateRuleWith(RuleContext{Snapshot: snapshot, Path: path}, expression)
	if err != nil {
		return err
	}
	return setAtPath(d, splitRulePath(path), value)
}

// RuleRecipe packages an expression-driven update as a reusable recipe.
func (p *Producer) RuleRecipe(path string, expression string) Recipe {
	return func(d *Draft) (any, error) {
		return nil, p.ApplyRule(d, path, expression)
	}
}

func (p *Producer) resolveEvaluator() (Evaluator, error) {
	if p.cfg.evaluator != nil {
		return p.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := p.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := p.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	p.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (p *Producer) ruleLogger() RuleLogger {
	if p.cfg.logger != nil {
		return p.cfg.logger
	}
	return noopRuleLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*drafts.exprEvaluator":
		return "expr"
	case "*drafts.celEvaluator":
		return "cel"
	case "*drafts.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// splitRulePath turns a dot-separated path into draft keys, coercing
// numeric segments into sequence indices.
func splitRulePath(path string) []any {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]any, len(parts))
	for i, part := range parts {
		if index, ok := parseIndexSegment(part); ok {
			segments[i] = index
			continue
		}
		segments[i] = part
	}
	return segments
}

func parseIndexSegment(part string) (int, bool) {
	if part == "" {
		return 0, false
	}
	index := 0
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
		index = index*10 + int(r-'0')
	}
	return index, true
}

// setAtPath walks the draft to the parent of the final segment and assigns
// value there.
func setAtPath(d *Draft, segments []any, value any) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: rule path must not be empty", ErrBadArgument)
	}
	target := d
	for _, segment := range segments[:len(segments)-1] {
		next, err := target.Get(segment)
		if err != nil {
			return err
		}
		child, ok := next.(*Draft)
		if !ok {
			return fmt.Errorf("%w: segment %v does not resolve to a container", ErrPathUnresolved, segment)
		}
		target = child
	}
	return target.Set(segments[len(segments)-1], value)
}
