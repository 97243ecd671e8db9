package oplog

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05"

var errNoRequest = errors.New("oplog: invocation has no http request")

// SnapshotBuilder extracts the immutable request snapshot of an invocation.
type SnapshotBuilder struct {
	tokenName string
	now       func() time.Time
}

func NewSnapshotBuilder(tokenName string) *SnapshotBuilder {
	if tokenName == "" {
		tokenName = "token"
	}
	return &SnapshotBuilder{tokenName: tokenName, now: time.Now}
}

func (b *SnapshotBuilder) Build(inv *Invocation) (*model.RequestInfo, error) {
	req := inv.Request
	if req == nil {
		return nil, errNoRequest
	}
	now := b.now()

	info := &model.RequestInfo{
		RequestID:     inv.RequestID,
		Path:          req.URL.Path,
		IP:            clientIP(inv),
		RequestMethod: req.Method,
		ContentType:   req.Header.Get("Content-Type"),
		Token:         req.Header.Get(b.tokenName),
		UserAgent:     req.Header.Get("User-Agent"),
		Time:          now.Format(timeLayout),
		CapturedAt:    now,
	}
	if info.RequestID == "" {
		info.RequestID = uuid.New().String()
	}

	if ep := inv.Endpoint; ep != nil {
		info.RequestBody = ep.HasBody()
		if a := ep.Access; a != nil {
			info.RequiresRoles = formatValues(a.Roles)
			info.RequiresPermissions = formatValues(a.Permissions)
			info.RequiresAuthentication = a.Authentication
			info.RequiresUser = a.User
			info.RequiresGuest = a.Guest
		}
	}

	if info.RequestBody {
		info.Param = argsParam(inv.Args)
	} else {
		if err := req.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		if p := formParam(req.Form); p != nil {
			info.Param = p
		}
	}
	return info, nil
}

func clientIP(inv *Invocation) string {
	if inv.ClientIP != "" {
		return inv.ClientIP
	}
	host, _, err := net.SplitHostPort(inv.Request.RemoteAddr)
	if err != nil {
		return inv.Request.RemoteAddr
	}
	return host
}

// argsParam drops framework-injected arguments. A single remaining argument is
// returned as is, otherwise the remaining arguments in declaration order.
func argsParam(args []any) any {
	if args == nil {
		return nil
	}
	kept := make([]any, 0, len(args))
	for _, arg := range args {
		if isFrameworkArg(arg) {
			continue
		}
		kept = append(kept, arg)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return kept
}

func isFrameworkArg(arg any) bool {
	switch arg.(type) {
	case *http.Request, http.ResponseWriter, *gin.Context:
		return true
	case *multipart.FileHeader, []*multipart.FileHeader, multipart.File, *multipart.Form:
		return true
	case render.Render:
		return true
	}
	return false
}

// formParam converts a parameter map: no values → nil, one value → the value,
// several values → the slice.
func formParam(values map[string][]string) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
			out[key] = nil
		case 1:
			out[key] = vals[0]
		default:
			out[key] = vals
		}
	}
	return out
}
