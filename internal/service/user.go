package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/pkg/apperrors"
)

// UserService is an in-memory user store backing the sample controller.
type UserService struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*model.User
}

func NewUserService() *UserService {
	return &UserService{nextID: 1, users: make(map[int64]*model.User)}
}

func (s *UserService) Add(_ context.Context, req *model.UserAddRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperrors.NewInvalidRequest("用户名不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, apperrors.New(apperrors.ErrConflict, fmt.Sprintf("用户名已存在: %s", username), nil)
		}
	}
	user := &model.User{
		ID:         s.nextID,
		Username:   username,
		Nickname:   req.Nickname,
		Phone:      req.Phone,
		Password:   req.Password,
		CreateTime: time.Now(),
	}
	s.users[user.ID] = user
	s.nextID++
	return user, nil
}

func (s *UserService) Get(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("用户不存在: %d", id))
	}
	return user, nil
}

func (s *UserService) Update(_ context.Context, id int64, req *model.UserUpdateRequest) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("用户不存在: %d", id))
	}
	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	return user, nil
}

func (s *UserService) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperrors.NewNotFound(fmt.Sprintf("用户不存在: %d", id))
	}
	delete(s.users, id)
	return nil
}

// Page lists users ordered by id. current starts at 1.
func (s *UserService) Page(_ context.Context, current, size int) *model.Page[*model.User] {
	if current <= 0 {
		current = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}

	s.mu.RLock()
	all := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page := &model.Page[*model.User]{Total: len(all), Current: current, Size: size, Records: []*model.User{}}
	from := (current - 1) * size
	if from >= len(all) {
		return page
	}
	to := min(from+size, len(all))
	page.Records = all[from:to]
	return page
}
