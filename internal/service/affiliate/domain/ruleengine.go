// internal/service/affiliate/domain/ruleengine.go
package domain

// Fact 是规则评估的输入事实。
type Fact struct {
	ProductIDs []string `json:"productIds"`
}

// RuleEngine 是商品圈选规则评估的出站端口。
// 具体实现（CEL）在 infrastructure/rule 中。
type RuleEngine interface {
	Evaluate(ruleDefinition string, fact Fact) (bool, error)
}
