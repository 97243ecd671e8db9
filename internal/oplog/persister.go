package oplog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoPolymarket/oplog/internal/config"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
	"github.com/GoPolymarket/oplog/internal/pkg/metrics"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const maxExceptionMessage = 300

// ErrTokenDecode marks a token that could not be decoded while resolving the
// current user. Persist returns it instead of swallowing it.
var ErrTokenDecode = errors.New("token decode failed")

// Task is one request handed to the persister.
type Task struct {
	Request   *model.RequestInfo
	Operation *model.OperationInfo
	Result    any
	Err       error
}

type RecordStore interface {
	Save(ctx context.Context, record *model.OperationLog) error
}

// AreaLookup resolves an IP to a geographic area.
type AreaLookup interface {
	Lookup(ctx context.Context, ip string) (string, bool)
}

// ClientParser parses a User-Agent; nil means it could not be parsed.
type ClientParser interface {
	Parse(userAgent string) *model.ClientInfo
}

type Identity struct {
	UserID   string
	Username string
}

// IdentityResolver returns the current user carried by token, nil when there
// is none. Undecodable tokens yield an error wrapping ErrTokenDecode.
type IdentityResolver interface {
	Resolve(token string) (*Identity, error)
}

type PersisterDeps struct {
	Store      RecordStore
	Areas      AreaLookup
	Clients    ClientParser
	Identities IdentityResolver
}

// Persister builds and saves operation log records off the request path.
type Persister struct {
	enabled  bool
	excludes *ExcludeMatcher
	deps     PersisterDeps
	log      *slog.Logger
	pool     *WorkerPool
	now      func() time.Time
}

func NewPersister(cfg config.OperationLogConfig, contextPath string, deps PersisterDeps, log *slog.Logger) *Persister {
	p := &Persister{
		enabled:  cfg.Enable,
		excludes: NewExcludeMatcher(contextPath, cfg.ExcludePaths),
		deps:     deps,
		log:      log,
		now:      time.Now,
	}
	p.pool = NewWorkerPool(cfg.QueueSize, cfg.Workers, cfg.Overflow, p.Persist, log)
	return p
}

func (p *Persister) Start(ctx context.Context) {
	p.pool.Start(ctx)
}

// Submit hands task to the worker pool; the caller never waits for the save.
func (p *Persister) Submit(task Task) bool {
	return p.pool.Submit(task)
}

// Close drains queued tasks.
func (p *Persister) Close() error {
	return p.pool.Close()
}

// Persist saves the record for task if logging applies to it. Failures are
// logged and swallowed, except token decoding errors which are returned.
func (p *Persister) Persist(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.OperationLogRecords.WithLabelValues("failed").Inc()
			p.log.Error("保存系统操作日志失败", "panic", r)
			err = nil
		}
	}()

	if !p.enabled {
		metrics.OperationLogRecords.WithLabelValues("skipped").Inc()
		return nil
	}
	if p.excludes.Match(taskPath(task)) {
		metrics.OperationLogRecords.WithLabelValues("skipped").Inc()
		return nil
	}
	if task.Operation != nil && task.Operation.Ignore {
		metrics.OperationLogRecords.WithLabelValues("skipped").Inc()
		return nil
	}

	record, err := p.build(ctx, task)
	if err != nil {
		if errors.Is(err, ErrTokenDecode) {
			metrics.OperationLogRecords.WithLabelValues("token_error").Inc()
			return err
		}
		metrics.OperationLogRecords.WithLabelValues("failed").Inc()
		p.log.Error("保存系统操作日志失败", "error", err, "path", taskPath(task))
		return nil
	}

	if err := p.deps.Store.Save(ctx, record); err != nil {
		metrics.OperationLogRecords.WithLabelValues("failed").Inc()
		p.log.Error("保存系统操作日志失败", "error", err, "path", record.Path)
		return nil
	}
	metrics.OperationLogRecords.WithLabelValues("saved").Inc()
	return nil
}

func (p *Persister) build(ctx context.Context, task Task) (*model.OperationLog, error) {
	record := &model.OperationLog{
		ID:         uuid.New().String(),
		CreateTime: p.now(),
	}

	if op := task.Operation; op != nil {
		record.Module = op.Module
		record.Name = op.Name
		record.Type = int(op.Type)
		record.Remark = op.Remark
		record.ClassName = op.ControllerClassName
		record.Method = op.ControllerMethodName
	}

	token := ""
	if req := task.Request; req != nil {
		record.RequestID = req.RequestID
		record.IP = req.IP
		record.Path = req.Path
		record.RequestMethod = req.RequestMethod
		record.ContentType = req.ContentType
		record.RequestBody = req.RequestBody

		if req.Param != nil {
			raw, err := json.Marshal(req.Param)
			if err != nil {
				return nil, fmt.Errorf("marshal param: %w", err)
			}
			record.Param = string(raw)
		}

		token = req.Token
		if strings.TrimSpace(token) != "" {
			record.Token = HashToken(token)
		}

		if p.deps.Clients != nil {
			if ci := p.deps.Clients.Parse(req.UserAgent); ci != nil {
				applyClientInfo(record, ci)
			}
		}
		if p.deps.Areas != nil && req.IP != "" {
			if area, ok := p.deps.Areas.Lookup(ctx, req.IP); ok {
				record.Area = area
			}
		}
	}

	if result, ok := task.Result.(*model.ApiResult); ok && result != nil {
		code := result.Code
		record.Success = result.Success
		record.Code = &code
		record.Message = result.Message
	}

	if p.deps.Identities != nil {
		identity, err := p.deps.Identities.Resolve(token)
		if err != nil {
			return nil, err
		}
		if identity != nil {
			record.UserID = identity.UserID
			record.UserName = identity.Username
		}
	}

	if task.Err != nil {
		record.Success = false
		record.Code = nil
		if code, ok := apperrors.Code(task.Err); ok {
			record.Code = &code
		}
		record.ExceptionMessage = truncate(task.Err.Error(), maxExceptionMessage)
		record.ExceptionName = fmt.Sprintf("%T", task.Err)
	}
	return record, nil
}

func applyClientInfo(record *model.OperationLog, ci *model.ClientInfo) {
	record.BrowserName = ci.BrowserName
	record.BrowserVersion = ci.BrowserVersion
	record.EngineName = ci.EngineName
	record.EngineVersion = ci.EngineVersion
	record.OSName = ci.OSName
	record.PlatformName = ci.PlatformName
	record.Mobile = ci.Mobile
	record.DeviceName = ci.DeviceName
	record.DeviceModel = ci.DeviceModel
}

// HashToken returns the hex Keccak-256 digest of token (64 characters).
func HashToken(token string) string {
	return hex.EncodeToString(crypto.Keccak256([]byte(token)))
}

func truncate(s string, limit int) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
