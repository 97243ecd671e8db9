package middleware

import (
	"errors"
	"net/http"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
	"github.com/GoPolymarket/oplog/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Get the last error
		err := c.Errors.Last().Err
		var appErr *apperrors.AppError

		if !errors.As(err, &appErr) {
			// Unknown error, wrap as Internal
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		// Log the error
		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.ErrorCode,
			"request_id", GetRequestID(c),
			"client_ip", c.ClientIP(),
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
		} else {
			logger.Warn(appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, model.Fail(appErr.ErrorCode, appErr.Message))
	}
}

// Recovery renders a panic that escaped the operation log as a failed result.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("💥 panic recovered", "path", c.Request.URL.Path, "panic", recovered, "request_id", GetRequestID(c))
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.Fail(model.FailCode, "服务器内部错误"))
	})
}
