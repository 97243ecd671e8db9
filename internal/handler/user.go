package handler

import (
	"net/http"
	"strconv"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
	"github.com/GoPolymarket/oplog/internal/service"
	"github.com/gin-gonic/gin"
)

var UserController = oplog.ControllerSpec{Name: "UserController", Module: "user"}

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register mounts the user endpoints on r.
func (h *UserHandler) Register(r *Router) {
	HandleBodyOn(r, oplog.EndpointSpec{
		HTTPMethod: http.MethodPost,
		Route:      "/user/add",
		Handler:    "AddUser",
		Operation:  &oplog.OperationSpec{Name: "添加用户", Type: model.OperationAdd},
		Access:     &oplog.AccessSpec{Roles: []string{"admin"}, Authentication: true},
		Params:     []oplog.ParamSpec{{Name: "user", Binding: oplog.BindBody}},
	}, h.Add)

	HandleBodyOn(r, oplog.EndpointSpec{
		HTTPMethod: http.MethodPut,
		Route:      "/user/update/:id",
		Handler:    "UpdateUser",
		Operation:  &oplog.OperationSpec{Name: "修改用户", Type: model.OperationUpdate},
		Access:     &oplog.AccessSpec{Permissions: []string{"sys:user:update"}},
		Params: []oplog.ParamSpec{
			{Name: "id", Binding: oplog.BindPath},
			{Name: "user", Binding: oplog.BindBody},
		},
	}, h.Update)

	r.Handle(oplog.EndpointSpec{
		HTTPMethod: http.MethodDelete,
		Route:      "/user/delete/:id",
		Handler:    "DeleteUser",
		Operation:  &oplog.OperationSpec{Name: "删除用户", Type: model.OperationDelete, Remark: "物理删除"},
		Access:     &oplog.AccessSpec{Roles: []string{"admin", "ops"}, Permissions: []string{"sys:user:delete"}},
		Params:     []oplog.ParamSpec{{Name: "id", Binding: oplog.BindPath}},
	}, h.Delete)

	r.Handle(oplog.EndpointSpec{
		HTTPMethod: http.MethodGet,
		Route:      "/user/info/:id",
		Handler:    "GetUser",
		Operation:  &oplog.OperationSpec{Name: "用户详情", Type: model.OperationQuery},
		Access:     &oplog.AccessSpec{User: true},
		Params:     []oplog.ParamSpec{{Name: "id", Binding: oplog.BindPath}},
	}, h.Info)

	r.Handle(oplog.EndpointSpec{
		HTTPMethod: http.MethodGet,
		Route:      "/user/page",
		Handler:    "GetUserPage",
		Module:     "user-query",
		Operation:  &oplog.OperationSpec{Name: "用户分页列表", Type: model.OperationQuery},
		Params: []oplog.ParamSpec{
			{Name: "current", Binding: oplog.BindQuery},
			{Name: "size", Binding: oplog.BindQuery},
		},
	}, h.Page)
}

func (h *UserHandler) Add(c *gin.Context, req *model.UserAddRequest) (*model.ApiResult, error) {
	user, err := h.svc.Add(c.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return model.OK(user), nil
}

func (h *UserHandler) Update(c *gin.Context, req *model.UserUpdateRequest) (*model.ApiResult, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	user, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		return nil, err
	}
	return model.OK(user), nil
}

func (h *UserHandler) Delete(c *gin.Context) (*model.ApiResult, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}
	return model.OK(nil), nil
}

func (h *UserHandler) Info(c *gin.Context) (*model.ApiResult, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	return model.OK(user), nil
}

func (h *UserHandler) Page(c *gin.Context) (*model.ApiResult, error) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	return model.OK(h.svc.Page(c.Request.Context(), current, size)), nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidRequest("invalid id: " + c.Param("id"))
	}
	return id, nil
}
