package model

import "time"

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Nickname   string    `json:"nickname,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Password   string    `json:"-"`
	CreateTime time.Time `json:"createTime"`
}

type UserAddRequest struct {
	Username string `json:"username" binding:"required"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type UserUpdateRequest struct {
	Nickname *string `json:"nickname"`
	Phone    *string `json:"phone"`
}

type Page[T any] struct {
	Total   int `json:"total"`
	Current int `json:"current"`
	Size    int `json:"size"`
	Records []T `json:"records"`
}
