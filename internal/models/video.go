package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceKind 视频来源类型
// 标识VideoItem的URL是通过哪种途径发现的
type SourceKind string

const (
	KindFirstCaptured    SourceKind = "first_captured"    // 导航期间首个捕获的douyinvod请求
	KindNetworkIntercept SourceKind = "network_intercept" // 网络响应拦截
	KindWindowObject     SourceKind = "window_object"     // window全局状态对象
	KindScriptExtraction SourceKind = "script_extraction" // 内联script标签内容
	KindAPIExtraction    SourceKind = "api_extraction"    // play_addr JSON片段
	KindHTMLElement      SourceKind = "html_element"      // video元素src属性
	KindStaticProbe      SourceKind = "static_probe"      // 静态探测(无浏览器)
)

// ObservedVia 候选URL的观测途径
type ObservedVia string

const (
	ViaRequest  ObservedVia = "request"  // 出站请求监听
	ViaResponse ObservedVia = "response" // 入站响应监听
)

// VideoItem 解析结果条目
// 仅由结果装配器产出,创建后不再修改
type VideoItem struct {
	Index       int        `json:"index"`       // 1起始的序号
	Kind        SourceKind `json:"kind"`        // 来源类型
	SourceURL   string     `json:"source_url"`  // 可直接拉取的视频URL
	Title       string     `json:"title"`       // 标题
	Description string     `json:"description"` // 描述
}

// NewVideoItem 创建结果条目,空标题/描述时填充默认值
func NewVideoItem(url string, index int, kind SourceKind, title, desc string) VideoItem {
	if title == "" {
		title = fmt.Sprintf("Video %d", index)
	}
	if desc == "" {
		desc = fmt.Sprintf("Source: %s", kind)
	}
	return VideoItem{
		Index:       index,
		Kind:        kind,
		SourceURL:   url,
		Title:       title,
		Description: desc,
	}
}

// CandidateResource 会话期间观测到的候选视频资源
// 去重键为NormalizedURL(scheme+host+path,去除query/fragment)
type CandidateResource struct {
	URL              string      `json:"url"`                // 原始URL
	NormalizedURL    string      `json:"normalized_url"`     // 规范化URL(仅用于去重)
	ObservedVia      ObservedVia `json:"observed_via"`       // 观测途径
	IsHighConfidence bool        `json:"is_high_confidence"` // 是否为douyinvod高置信URL
	FirstObservedAt  time.Time   `json:"first_observed_at"`  // 首次观测时间
}

// SessionState 解析状态机的状态
type SessionState string

const (
	StateInit           SessionState = "init"
	StateNavigating     SessionState = "navigating"
	StatePassiveWait    SessionState = "passive_wait"
	StateInteracting    SessionState = "interacting"
	StateScriptFallback SessionState = "script_fallback"
	StateResolved       SessionState = "resolved"
	StateEmpty          SessionState = "empty"
	StateFailed         SessionState = "failed"
)

// ResolveStats 解析统计(仅诊断用途,不影响语义)
type ResolveStats struct {
	TotalRequests   int     `json:"total_requests"`   // 观测到的请求总数
	TotalResponses  int     `json:"total_responses"`  // 观测到的响应总数
	CandidatesFound int     `json:"candidates_found"` // 去重后候选URL数
	HighConfidence  int     `json:"high_confidence"`  // 高置信候选数
	StagesRun       int     `json:"stages_run"`       // 实际执行的升级阶段数
	StagesSkipped   int     `json:"stages_skipped"`   // 因前置条件跳过的阶段数
	FinalState      string  `json:"final_state"`      // 终态
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// ToJSON 序列化为JSON
func (v *VideoItem) ToJSON() ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
