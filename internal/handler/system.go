package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GoPolymarket/oplog/internal/middleware"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// SystemController endpoints are not persisted unless they opt back in.
var SystemController = oplog.ControllerSpec{Name: "SystemController", Module: "system", Ignore: true}

// RecentLogs lists the newest operation log records.
type RecentLogs interface {
	Recent(ctx context.Context, limit int) ([]*model.OperationLog, error)
}

type SystemHandler struct {
	logs RecentLogs
}

func NewSystemHandler(logs RecentLogs) *SystemHandler {
	return &SystemHandler{logs: logs}
}

// Register mounts plain gin handlers that respond through middleware.Render.
func (h *SystemHandler) Register(r *Router) {
	r.Plain(oplog.EndpointSpec{
		HTTPMethod: http.MethodGet,
		Route:      "/sys/ping",
		Handler:    "Ping",
		Operation:  &oplog.OperationSpec{Name: "心跳", Type: model.OperationOther},
	}, h.Ping)

	r.Plain(oplog.EndpointSpec{
		HTTPMethod:   http.MethodGet,
		Route:        "/sys/oplog/recent",
		Handler:      "RecentOperationLogs",
		IgnoreMarker: true,
		Operation:    &oplog.OperationSpec{Name: "最近操作日志", Type: model.OperationQuery},
		Access:       &oplog.AccessSpec{Roles: []string{"admin"}},
		Params:       []oplog.ParamSpec{{Name: "limit", Binding: oplog.BindQuery}},
	}, h.Recent)
}

func (h *SystemHandler) Ping(c *gin.Context) {
	middleware.Render(c, model.OK("pong"))
}

func (h *SystemHandler) Recent(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.NewInvalidRequest("invalid limit: " + raw))
			return
		}
		limit = parsed
	}

	records, err := h.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInternal, err.Error(), err))
		return
	}
	middleware.Render(c, model.OK(records))
}
