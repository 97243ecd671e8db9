package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

const ContextResultKey = "oplog_result"

// Render writes result as the response and keeps it on the context so the
// operation log sees what the endpoint returned.
func Render(c *gin.Context, result *model.ApiResult) {
	c.Set(ContextResultKey, result)
	c.JSON(http.StatusOK, result)
}

// OperationLog runs plain gin handlers of registered endpoints under the
// interceptor, looking the endpoint up by the matched route. The handler's
// result is whatever it passed to Render and its error is the last one it
// added with c.Error. Routes served by the typed adapters in package handler
// must not also run behind it.
func OperationLog(ic *oplog.Interceptor, reg *oplog.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ep, ok := reg.Lookup(c.Request.Method, c.FullPath())
		if !ok {
			c.Next()
			return
		}
		aroundNext(c, ic, ep)
	}
}

// CallArgs lists the arguments of an endpoint call in declaration order,
// led by the gin context. Path and query parameters are read from c and body
// stands in for the parameter bound to the request body.
func CallArgs(c *gin.Context, ep *oplog.Endpoint, body any) []any {
	args := make([]any, 0, len(ep.Params)+1)
	args = append(args, c)
	for _, p := range ep.Params {
		switch p.Binding {
		case oplog.BindPath:
			args = append(args, c.Param(p.Name))
		case oplog.BindQuery:
			args = append(args, c.Query(p.Name))
		case oplog.BindBody:
			args = append(args, body)
		case oplog.BindFramework:
			args = append(args, c)
		}
	}
	return args
}

func aroundNext(c *gin.Context, ic *oplog.Interceptor, ep *oplog.Endpoint) {
	// 读取请求体 (并写回以便后续 Bind 使用)
	var body any
	if ep.HasBody() && c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Warn("读取请求体失败", "error", err, "path", c.Request.URL.Path, "read", len(raw))
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
		if len(raw) > 0 {
			var decoded any
			if json.Unmarshal(raw, &decoded) == nil {
				body = decoded
			}
		}
	}

	errCount := len(c.Errors)
	inv := &oplog.Invocation{
		Endpoint:  ep,
		Request:   c.Request,
		RequestID: GetRequestID(c),
		ClientIP:  c.ClientIP(),
		Args:      CallArgs(c, ep, body),
		Proceed: func(context.Context) (any, error) {
			c.Next()
			var result any
			if v, exists := c.Get(ContextResultKey); exists {
				result = v
			}
			if len(c.Errors) > errCount {
				return result, c.Errors.Last().Err
			}
			return result, nil
		},
	}
	_, _ = ic.Around(c.Request.Context(), inv)
}
