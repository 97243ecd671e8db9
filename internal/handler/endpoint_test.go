package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/GoPolymarket/oplog/internal/middleware"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskRecorder struct {
	mu    sync.Mutex
	tasks []oplog.Task
}

func (r *taskRecorder) Submit(task oplog.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return true
}

func (r *taskRecorder) all() []oplog.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]oplog.Task(nil), r.tasks...)
}

type staticLogs []*model.OperationLog

func (s staticLogs) Recent(_ context.Context, limit int) ([]*model.OperationLog, error) {
	if limit < len(s) {
		return s[:limit], nil
	}
	return s, nil
}

type testApp struct {
	engine *gin.Engine
	reg    *oplog.Registry
	rec    *taskRecorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := &taskRecorder{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ic := oplog.NewInterceptor(nil, oplog.NewSnapshotBuilder("token"), oplog.NewMinimalStrategy(rec), log)
	reg := oplog.NewRegistry()

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.ErrorHandler())
	api := engine.Group("/api")

	NewUserHandler(service.NewUserService()).Register(NewRouter(api, reg, ic, UserController))
	sys := api.Group("", middleware.OperationLog(ic, reg))
	NewSystemHandler(staticLogs{{ID: "1"}, {ID: "2"}}).Register(NewRouter(sys, reg, ic, SystemController))
	return &testApp{engine: engine, reg: reg, rec: rec}
}

func (a *testApp) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("token", "header.payload.sig")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestRegisteredRoutesAreInRegistry(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, 7, app.reg.Len())

	ep, ok := app.reg.Lookup(http.MethodGet, "/api/user/info/:id")
	require.True(t, ok)
	assert.Equal(t, "GetUser", ep.Handler)
	assert.Equal(t, "UserController", ep.Controller.Name)
}

func TestHandleBodyRecordsBoundBody(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/user/add", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	tasks := app.rec.all()
	require.Len(t, tasks, 1)
	task := tasks[0]
	require.NotNil(t, task.Request)
	assert.True(t, task.Request.RequestBody)
	assert.Equal(t, &model.UserAddRequest{Username: "alice", Password: "pw"}, task.Request.Param)
	assert.Equal(t, "[admin]", task.Request.RequiresRoles)
	assert.True(t, task.Request.RequiresAuthentication)
	assert.Equal(t, "header.payload.sig", task.Request.Token)
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), task.Request.RequestID)

	assert.Equal(t, "添加用户", task.Operation.Name)
	assert.Equal(t, model.OperationAdd, task.Operation.Type)
	assert.Equal(t, "user", task.Operation.Module)
	assert.Equal(t, "AddUser", task.Operation.ControllerMethodName)

	result, ok := task.Result.(*model.ApiResult)
	require.True(t, ok)
	assert.Equal(t, model.SuccessCode, result.Code)
}

func TestHandleBodyBindingFailureSkipsEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/user/add", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, app.rec.all())
}

func TestHandleEndpointError(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/user/info/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body model.ApiResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5004, body.Code)

	tasks := app.rec.all()
	require.Len(t, tasks, 1)
	assert.Error(t, tasks[0].Err)
	assert.Nil(t, tasks[0].Result)
	assert.Nil(t, tasks[0].Request.Param)
}

func TestHandleQueryParamsAndModuleOverride(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/user/page?current=1&size=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	tasks := app.rec.all()
	require.Len(t, tasks, 1)
	assert.Equal(t, map[string]any{"current": "1", "size": "5"}, tasks[0].Request.Param)
	assert.Equal(t, "user-query", tasks[0].Operation.Module)
}

func TestSystemEndpointsIgnoreMarkers(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/sys/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	w = app.do(http.MethodGet, "/api/sys/oplog/recent?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	tasks := app.rec.all()
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Operation.Ignore)
	assert.False(t, tasks[1].Operation.Ignore)

	result := tasks[1].Result.(*model.ApiResult)
	assert.Len(t, result.Data, 1)
}

func TestUserLifecycleThroughRoutes(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/user/add", `{"username":"bob","password":"pw"}`).Code)
	require.Equal(t, http.StatusOK, app.do(http.MethodPut, "/api/user/update/1", `{"nickname":"Bobby"}`).Code)
	require.Equal(t, http.StatusOK, app.do(http.MethodDelete, "/api/user/delete/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodDelete, "/api/user/delete/abc", "").Code)

	tasks := app.rec.all()
	require.Len(t, tasks, 4)
	assert.Equal(t, model.OperationUpdate, tasks[1].Operation.Type)
	assert.Equal(t, []any{"1", &model.UserUpdateRequest{Nickname: strPtr("Bobby")}}, tasks[1].Request.Param)
	assert.Equal(t, "物理删除", tasks[2].Operation.Remark)
	assert.Equal(t, "[admin, ops]", tasks[2].Request.RequiresRoles)
	assert.Error(t, tasks[3].Err)
}

func TestHandleBodyRecordsPathAndBodyInDeclarationOrder(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/user/add", `{"username":"bob","password":"pw"}`).Code)

	w := app.do(http.MethodPut, "/api/user/update/1", `{"nickname":"Bob","phone":"123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tasks := app.rec.all()
	require.Len(t, tasks, 2)
	task := tasks[1]
	assert.True(t, task.Request.RequestBody)
	assert.Equal(t, []any{"1", &model.UserUpdateRequest{Nickname: strPtr("Bob"), Phone: strPtr("123")}}, task.Request.Param)
	assert.Equal(t, "UpdateUser", task.Operation.ControllerMethodName)
}

func TestPlainEndpointsResolvedFromRegistry(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/sys/oplog/recent?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	tasks := app.rec.all()
	require.Len(t, tasks, 1)
	assert.Equal(t, "RecentOperationLogs", tasks[0].Operation.ControllerMethodName)
	assert.Equal(t, "SystemController", tasks[0].Operation.ControllerClassName)
	assert.Equal(t, map[string]any{"limit": "2"}, tasks[0].Request.Param)
}

func strPtr(s string) *string { return &s }

func TestJoinRoute(t *testing.T) {
	assert.Equal(t, "/api/user/add", joinRoute("/api", "/user/add"))
	assert.Equal(t, "/api/user/add", joinRoute("/api/", "user/add"))
	assert.Equal(t, "/user/add", joinRoute("/", "/user/add"))
}
