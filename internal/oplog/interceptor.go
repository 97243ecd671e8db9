package oplog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Invocation is one endpoint call seen by the interceptor.
type Invocation struct {
	Endpoint  *Endpoint
	Request   *http.Request
	RequestID string
	ClientIP  string
	// Args are the actual call arguments in declaration order, framework
	// objects included.
	Args    []any
	Proceed func(ctx context.Context) (any, error)
}

// PanicError carries a non-error panic value raised by an endpoint.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Interceptor runs the request-lifecycle around an endpoint call:
// capture, invoke, post-process, cleanup. Nothing it does internally can
// change the outcome of the call.
type Interceptor struct {
	excludes  *ExcludeMatcher
	snapshots *SnapshotBuilder
	strategy  Strategy
	log       *slog.Logger
}

func NewInterceptor(excludes *ExcludeMatcher, snapshots *SnapshotBuilder, strategy Strategy, log *slog.Logger) *Interceptor {
	return &Interceptor{
		excludes:  excludes,
		snapshots: snapshots,
		strategy:  strategy,
		log:       log,
	}
}

// Around invokes inv.Proceed and returns its result and error unchanged. A
// panic raised by the endpoint is recorded and then re-raised.
func (i *Interceptor) Around(ctx context.Context, inv *Invocation) (result any, err error) {
	if inv.Request != nil && i.excludes.Match(inv.Request.URL.Path) {
		return inv.Proceed(ctx)
	}

	corr := acquireCorrelation()
	defer corr.release()

	i.capture(corr, inv)

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit
			return
		}
		perr, ok := r.(error)
		if !ok {
			perr = &PanicError{Value: r}
		}
		i.afterThrowing(corr, perr)
		panic(r)
	}()

	result, err = inv.Proceed(ctx)
	completed = true

	if err != nil {
		i.afterThrowing(corr, err)
		return result, err
	}
	i.afterReturning(corr, result)
	return result, nil
}

func (i *Interceptor) capture(corr *Correlation, inv *Invocation) {
	defer i.guard("请求日志AOP处理异常")

	if inv.Endpoint != nil {
		corr.Operation = ResolveOperation(inv.Endpoint)
	}
	info, err := i.snapshots.Build(inv)
	if err != nil {
		i.log.Error("请求日志AOP处理异常", "error", err)
		return
	}
	corr.Request = info
	i.strategy.BeforeInvoke(corr)
}

func (i *Interceptor) afterReturning(corr *Correlation, result any) {
	func() {
		defer i.guard("处理响应结果异常")
		i.strategy.AfterReturning(corr, result)
	}()
	i.finish(corr, result, nil)
}

func (i *Interceptor) afterThrowing(corr *Correlation, err error) {
	func() {
		defer i.guard("处理异常日志异常")
		i.strategy.AfterThrowing(corr, err)
	}()
	i.finish(corr, nil, err)
}

func (i *Interceptor) finish(corr *Correlation, result any, err error) {
	defer i.guard("提交操作日志异常")
	i.strategy.Finish(corr, result, err)
}

// guard must be deferred directly; it swallows panics from logging code.
func (i *Interceptor) guard(msg string) {
	if r := recover(); r != nil {
		i.log.Error(msg, "panic", r)
	}
}
