// internal/service/affiliate/infrastructure/rule/cel_rule_engine_test.go
package rule

import (
	"testing"

	"b8shield/internal/service/affiliate/domain"
)

func newEngine(t *testing.T) *CELRuleEngine {
	t.Helper()
	engine, err := NewCELRuleEngine()
	if err != nil {
		t.Fatalf("NewCELRuleEngine: %v", err)
	}
	return engine
}

func TestEvaluateProductRules(t *testing.T) {
	engine := newEngine(t)
	cases := []struct {
		name string
		rule string
		fact domain.Fact
		want bool
	}{
		{
			name: "prefix hit",
			rule: `productIds.exists(p, p.startsWith("lure-"))`,
			fact: domain.Fact{ProductIDs: []string{"hook-1", "lure-77"}},
			want: true,
		},
		{
			name: "prefix miss",
			rule: `productIds.exists(p, p.startsWith("lure-"))`,
			fact: domain.Fact{ProductIDs: []string{"hook-1"}},
			want: false,
		},
		{
			name: "membership",
			rule: `"b8-3pack" in productIds`,
			fact: domain.Fact{ProductIDs: []string{"b8-3pack"}},
			want: true,
		},
		{
			name: "size constraint",
			rule: `size(productIds) >= 2`,
			fact: domain.Fact{ProductIDs: []string{"a", "b", "c"}},
			want: true,
		},
		{
			name: "nil product list",
			rule: `size(productIds) > 0`,
			fact: domain.Fact{},
			want: false,
		},
	}
	for _, tc := range cases {
		got, err := engine.Evaluate(tc.rule, tc.fact)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvaluateInvalidRule(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.Evaluate(`productIds.exists(`, domain.Fact{}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestEvaluateNonBoolRule(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.Evaluate(`size(productIds)`, domain.Fact{ProductIDs: []string{"a"}}); err == nil {
		t.Fatal("expected error for non-bool rule")
	}
}

func TestEvaluateCachesCompiledPrograms(t *testing.T) {
	engine := newEngine(t)
	rule := `size(productIds) > 0`
	for i := 0; i < 3; i++ {
		if _, err := engine.Evaluate(rule, domain.Fact{ProductIDs: []string{"a"}}); err != nil {
			t.Fatal(err)
		}
	}
	if len(engine.programs) != 1 {
		t.Errorf("cached programs = %d, want 1", len(engine.programs))
	}
}
