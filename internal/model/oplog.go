package model

import (
	"time"
)

// OperationType classifies what an endpoint does.
type OperationType int

const (
	OperationOther OperationType = iota
	OperationAdd
	OperationDelete
	OperationUpdate
	OperationQuery
)

func (t OperationType) String() string {
	switch t {
	case OperationAdd:
		return "ADD"
	case OperationDelete:
		return "DELETE"
	case OperationUpdate:
		return "UPDATE"
	case OperationQuery:
		return "QUERY"
	default:
		return "OTHER"
	}
}

// RequestInfo 请求快照, built once before the endpoint runs and never mutated.
type RequestInfo struct {
	RequestID     string `json:"requestId,omitempty"`
	Path          string `json:"path,omitempty"`
	IP            string `json:"ip,omitempty"`
	RequestMethod string `json:"requestMethod,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
	RequestBody   bool   `json:"requestBody"`
	// Param is the bound body (single value or ordered list) or the form mapping.
	Param     any    `json:"param,omitempty"`
	Token     string `json:"token,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Time      string `json:"time,omitempty"`

	RequiresRoles          string `json:"requiresRoles,omitempty"`
	RequiresPermissions    string `json:"requiresPermissions,omitempty"`
	RequiresAuthentication bool   `json:"requiresAuthentication,omitempty"`
	RequiresUser           bool   `json:"requiresUser,omitempty"`
	RequiresGuest          bool   `json:"requiresGuest,omitempty"`

	CapturedAt time.Time `json:"-"`
}

// OperationInfo 操作日志元数据, resolved from the endpoint registry.
type OperationInfo struct {
	Module               string
	Name                 string
	Type                 OperationType
	Remark               string
	Ignore               bool
	ControllerClassName  string
	ControllerMethodName string
}

// ClientInfo is the device information parsed from a User-Agent.
type ClientInfo struct {
	BrowserName    string
	BrowserVersion string
	EngineName     string
	EngineVersion  string
	OSName         string
	PlatformName   string
	Mobile         bool
	DeviceName     string
	DeviceModel    string
}

// OperationLog 系统操作日志, the persisted audit record.
type OperationLog struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID string `gorm:"type:varchar(36);index" json:"request_id"`

	Name      string `gorm:"type:varchar(200)" json:"name"`
	Module    string `gorm:"type:varchar(100)" json:"module"`
	Type      int    `gorm:"type:int" json:"type"`
	Remark    string `gorm:"type:varchar(500)" json:"remark"`
	ClassName string `gorm:"type:varchar(200)" json:"class_name"`
	Method    string `gorm:"column:method_name;type:varchar(100)" json:"method_name"`

	IP            string `gorm:"type:varchar(45)" json:"ip"`
	Area          string `gorm:"type:varchar(100)" json:"area"`
	Path          string `gorm:"type:varchar(500);index" json:"path"`
	RequestMethod string `gorm:"type:varchar(10)" json:"request_method"`
	ContentType   string `gorm:"type:varchar(100)" json:"content_type"`
	RequestBody   bool   `json:"request_body"`
	Param         string `gorm:"type:text" json:"param"`
	Token         string `gorm:"type:varchar(80)" json:"token"`

	Success          bool   `json:"success"`
	Code             *int   `json:"code"`
	Message          string `gorm:"type:varchar(500)" json:"message"`
	ExceptionName    string `gorm:"type:varchar(200)" json:"exception_name"`
	ExceptionMessage string `gorm:"type:varchar(300)" json:"exception_message"`

	BrowserName    string `gorm:"type:varchar(100)" json:"browser_name"`
	BrowserVersion string `gorm:"type:varchar(100)" json:"browser_version"`
	EngineName     string `gorm:"type:varchar(100)" json:"engine_name"`
	EngineVersion  string `gorm:"type:varchar(100)" json:"engine_version"`
	OSName         string `gorm:"column:os_name;type:varchar(100)" json:"os_name"`
	PlatformName   string `gorm:"type:varchar(100)" json:"platform_name"`
	Mobile         bool   `json:"mobile"`
	DeviceName     string `gorm:"type:varchar(100)" json:"device_name"`
	DeviceModel    string `gorm:"type:varchar(100)" json:"device_model"`

	UserID   string `gorm:"type:varchar(64);index" json:"user_id"`
	UserName string `gorm:"type:varchar(100)" json:"user_name"`

	CreateTime time.Time `gorm:"index" json:"create_time"`
}

func (OperationLog) TableName() string {
	return "sys_operation_log"
}
