package models

import (
	"errors"
	"fmt"
)

// 哨兵错误
var (
	// ErrPageUnreachable 页面完全不可达(导航本身失败且无任何捕获)
	ErrPageUnreachable = errors.New("页面不可达")

	// ErrBrowserLaunch 浏览器启动失败
	ErrBrowserLaunch = errors.New("浏览器启动失败")

	// ErrLowMemory 可用内存不足,拒绝启动浏览器
	ErrLowMemory = errors.New("系统可用内存不足")
)

// NavigationError 导航失败
// load与dom-ready两个完成条件均未在预算内满足。
// 非立即致命: 会话仍会对已捕获内容做尽力装配,仅在一无所获时上抛。
type NavigationError struct {
	URL   string // 目标页面URL
	Cause error  // 底层错误
}

// Error 实现error接口
func (e *NavigationError) Error() string {
	return fmt.Sprintf("导航失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// InteractionError 单次页面交互失败(滚动/点击)
// 记录日志后跳过,不中断状态机
type InteractionError struct {
	Action string // 交互动作 (scroll/click)
	Index  int    // 元素序号(点击时)
	Cause  error
}

// Error 实现error接口
func (e *InteractionError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("交互失败 [%s #%d]: %v", e.Action, e.Index, e.Cause)
	}
	return fmt.Sprintf("交互失败 [%s]: %v", e.Action, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *InteractionError) Unwrap() error {
	return e.Cause
}

// ExtractionError 页面内脚本提取失败
// 视为"本阶段无结果",状态机继续升级
type ExtractionError struct {
	Stage string // 提取阶段 (script_fallback/terminal)
	Cause error
}

// Error 实现error接口
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("提取失败 [%s]: %v", e.Stage, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // 出错的字段 ("name" 或 "value")
	HeaderName string // 头部名称
	Reason     string // 错误原因
	Suggestion string // 修复建议 (可选)
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string // 配置文件路径
	Cause    error  // 底层错误
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DownloadError 视频下载失败
type DownloadError struct {
	URL        string // 视频URL
	StatusCode int    // HTTP状态码(有响应时)
	Cause      error
}

// Error 实现error接口
func (e *DownloadError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("下载失败 [%s]: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("下载失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *DownloadError) Unwrap() error {
	return e.Cause
}
