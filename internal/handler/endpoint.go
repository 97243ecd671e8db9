package handler

import (
	"context"
	"strings"

	"github.com/GoPolymarket/oplog/internal/middleware"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// HandlerFunc is an endpoint that returns its result instead of writing it.
type HandlerFunc func(c *gin.Context) (*model.ApiResult, error)

// BodyHandlerFunc additionally receives the decoded JSON body.
type BodyHandlerFunc[T any] func(c *gin.Context, body *T) (*model.ApiResult, error)

// Handle runs fn under the interceptor.
func Handle(ic *oplog.Interceptor, ep *oplog.Endpoint, fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		invoke(c, ic, ep, middleware.CallArgs(c, ep, nil), func(context.Context) (any, error) {
			return fn(c)
		})
	}
}

// HandleBody binds the JSON body into T before the interceptor runs, so a
// request that fails binding never reaches the endpoint or its log.
func HandleBody[T any](ic *oplog.Interceptor, ep *oplog.Endpoint, fn BodyHandlerFunc[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := new(T)
		if err := c.ShouldBindJSON(body); err != nil {
			_ = c.Error(apperrors.NewInvalidRequest(err.Error()))
			return
		}
		invoke(c, ic, ep, middleware.CallArgs(c, ep, body), func(context.Context) (any, error) {
			return fn(c, body)
		})
	}
}

func invoke(c *gin.Context, ic *oplog.Interceptor, ep *oplog.Endpoint, args []any, proceed func(context.Context) (any, error)) {
	result, err := ic.Around(c.Request.Context(), &oplog.Invocation{
		Endpoint:  ep,
		Request:   c.Request,
		RequestID: middleware.GetRequestID(c),
		ClientIP:  c.ClientIP(),
		Args:      args,
		Proceed:   proceed,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if r, ok := result.(*model.ApiResult); ok && r != nil {
		middleware.Render(c, r)
	}
}

// Router registers endpoints on a gin group and in the registry under one
// controller.
type Router struct {
	group *gin.RouterGroup
	ctl   *oplog.ControllerBuilder
	ic    *oplog.Interceptor
}

func NewRouter(group *gin.RouterGroup, reg *oplog.Registry, ic *oplog.Interceptor, ctl oplog.ControllerSpec) *Router {
	return &Router{group: group, ctl: reg.Controller(ctl), ic: ic}
}

// Endpoint registers spec, with Route relative to the group, and returns the
// stored endpoint. The registry keeps the full route as gin reports it.
func (r *Router) Endpoint(spec oplog.EndpointSpec) *oplog.Endpoint {
	rel := spec.Route
	spec.Route = joinRoute(r.group.BasePath(), rel)
	return r.ctl.Endpoint(spec)
}

func (r *Router) Handle(spec oplog.EndpointSpec, fn HandlerFunc) {
	rel := spec.Route
	ep := r.Endpoint(spec)
	r.group.Handle(spec.HTTPMethod, rel, Handle(r.ic, ep, fn))
}

// Plain registers a handler that writes its own response through
// middleware.Render. The group must run middleware.OperationLog for the
// endpoint to be logged.
func (r *Router) Plain(spec oplog.EndpointSpec, fn gin.HandlerFunc) {
	rel := spec.Route
	r.Endpoint(spec)
	r.group.Handle(spec.HTTPMethod, rel, fn)
}

// HandleBodyOn is the Router form of HandleBody.
func HandleBodyOn[T any](r *Router, spec oplog.EndpointSpec, fn BodyHandlerFunc[T]) {
	rel := spec.Route
	ep := r.Endpoint(spec)
	r.group.Handle(spec.HTTPMethod, rel, HandleBody(r.ic, ep, fn))
}

func joinRoute(base, rel string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return base + rel
}
