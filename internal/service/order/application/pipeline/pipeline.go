// internal/service/order/application/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sync"

	"b8shield/internal/service/order/domain"
	"b8shield/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/trace"
)

// Severity 标记单个步骤的结果等级。
// 物化订单本身在管道之外完成且是唯一的致命路径；
// 管道内的步骤失败一律降级为警告，订单的存在不受影响。
type Severity int

const (
	Ok Severity = iota
	Degraded
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Ok:
		return "ok"
	case Degraded:
		return "degraded"
	default:
		return "fatal"
	}
}

// StepResult 是一个步骤的带标签结果，测试用它断言
// “归因失败但订单依然存在”这类不对称语义。
type StepResult struct {
	Step     string
	Severity Severity
	Err      error
}

// Context 在管道流程中传递上下文数据。
// 所有外部依赖都是抽象端口。
type Context struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer

	// 依赖出站端口 (Interfaces)
	Resolver    port.UserResolver
	Attribution port.AttributionEngine
	Notifier    port.NotificationProducer

	// 步骤间共享的产出
	User       *port.ResolvedUser
	Commission *port.CommissionResult

	mu      sync.Mutex
	results []StepResult
}

// Record 记录一个步骤结果。
func (c *Context) Record(r StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Results 返回所有步骤结果的副本。
func (c *Context) Results() []StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StepResult, len(c.results))
	copy(out, c.results)
	return out
}

// ResultFor 返回指定步骤的结果。
func (c *Context) ResultFor(step string) (StepResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.results {
		if r.Step == step {
			return r, true
		}
	}
	return StepResult{}, false
}

// Handler 是管道步骤的责任链接口。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(pc *Context) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(pc *Context) error {
	if h.next != nil {
		return h.next.Handle(pc)
	}
	return nil
}

// Build 构建订单物化之后的下游处理链：身份解析 → 佣金归因 → 通知下发。
// 依赖通过 Context 注入，处理器本身无状态。
func Build() Handler {
	chain := new(ResolveUserHandler)
	chain.
		SetNext(new(AttributionHandler)).
		SetNext(new(NotificationHandler))
	return chain
}
