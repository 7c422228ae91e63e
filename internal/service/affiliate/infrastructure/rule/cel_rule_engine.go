// internal/service/affiliate/infrastructure/rule/cel_rule_engine.go
package rule

import (
	"sync"

	"b8shield/internal/service/affiliate/domain"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// CELRuleEngine 基于 CEL 的商品圈选规则引擎。
// 表达式环境暴露一个变量：productIds（订单商品ID列表），
// 例如：productIds.exists(p, p.startsWith("lure-"))。
type CELRuleEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("productIds", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}
	return &CELRuleEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 评估规则表达式。表达式必须返回 bool。
func (e *CELRuleEngine) Evaluate(ruleDefinition string, fact domain.Fact) (bool, error) {
	prg, err := e.program(ruleDefinition)
	if err != nil {
		return false, err
	}

	// fact 里的 nil 列表在 CEL 中仍应是合法的空列表
	productIDs := fact.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"productIds": productIDs,
	})
	if err != nil {
		return false, errors.Wrapf(err, "rule evaluation failed: %s", ruleDefinition)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("rule did not evaluate to bool: %s", ruleDefinition)
	}
	return result, nil
}

// program 返回已编译的规则程序，编译结果按表达式文本缓存。
func (e *CELRuleEngine) program(ruleDefinition string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[ruleDefinition]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(ruleDefinition)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid rule: %s", ruleDefinition)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build rule program: %s", ruleDefinition)
	}

	e.mu.Lock()
	e.programs[ruleDefinition] = prg
	e.mu.Unlock()
	return prg, nil
}
