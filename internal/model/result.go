package model

import "time"

// SuccessCode is the canonical success code of ApiResult.
const SuccessCode = 200

// FailCode is the generic failure code of ApiResult.
const FailCode = 500

// ApiResult is the response envelope returned by endpoints.
type ApiResult struct {
	Code    int       `json:"code"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Time    time.Time `json:"time"`
}

func OK(data any) *ApiResult {
	return &ApiResult{
		Code:    SuccessCode,
		Success: true,
		Message: "操作成功",
		Data:    data,
		Time:    time.Now(),
	}
}

func Fail(code int, message string) *ApiResult {
	return &ApiResult{
		Code:    code,
		Success: code == SuccessCode,
		Message: message,
		Time:    time.Now(),
	}
}
