package models

import (
	"encoding/json"
	"time"
)

// ResolveReport 单次解析报告
type ResolveReport struct {
	// 任务信息
	TaskID  string      `json:"task_id"`
	PageURL string      `json:"page_url"`
	Domain  string      `json:"domain"`
	Mode    ResolveMode `json:"mode"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 结果
	Items      []VideoItem         `json:"items"`      // 最终结果(当前策略至多1条)
	Candidates []CandidateResource `json:"candidates"` // 会话期间观测到的候选(诊断)

	// 统计信息
	Stats ResolveStats `json:"stats"`

	// 下载结果(启用--download时)
	DownloadedFile string `json:"downloaded_file,omitempty"`

	// 配置快照
	Config ResolveConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *ResolveReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *ResolveReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// NewResolveTaskID 生成任务ID
func NewResolveTaskID() string {
	return generateID()
}
