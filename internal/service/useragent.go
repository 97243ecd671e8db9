package service

import (
	"strings"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/mssola/useragent"
)

// UserAgentParser 解析 User-Agent 得到客户端设备信息
type UserAgentParser struct{}

func NewUserAgentParser() *UserAgentParser {
	return &UserAgentParser{}
}

// Parse returns nil when ua is blank or names no recognizable browser.
func (p *UserAgentParser) Parse(ua string) *model.ClientInfo {
	if strings.TrimSpace(ua) == "" {
		return nil
	}
	parsed := useragent.New(ua)
	browser, browserVersion := parsed.Browser()
	if browser == "" {
		return nil
	}
	engine, engineVersion := parsed.Engine()

	info := &model.ClientInfo{
		BrowserName:    browser,
		BrowserVersion: browserVersion,
		EngineName:     engine,
		EngineVersion:  engineVersion,
		OSName:         parsed.OS(),
		PlatformName:   parsed.Platform(),
		Mobile:         parsed.Mobile(),
		DeviceModel:    parsed.Model(),
	}
	switch {
	case parsed.Bot():
		info.DeviceName = "Bot"
	case info.Mobile:
		info.DeviceName = "Mobile"
	default:
		info.DeviceName = "PC"
	}
	return info
}
