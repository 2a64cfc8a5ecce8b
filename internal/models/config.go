package models

import (
	"fmt"
)

// ResolveMode 解析模式
type ResolveMode string

const (
	ModeAll     ResolveMode = "all"     // 静态探测+浏览器会话
	ModeStatic  ResolveMode = "static"  // 仅静态探测
	ModeDynamic ResolveMode = "dynamic" // 仅浏览器会话
)

// ResolveConfig 解析配置
type ResolveConfig struct {
	NavTimeout   int         `json:"nav_timeout"`   // 导航超时(秒),load与dom-ready各一份预算 (默认:60)
	WaitRounds   int         `json:"wait_rounds"`   // 被动等待轮数 (默认:12)
	WaitInterval int         `json:"wait_interval"` // 每轮等待时间(秒) (默认:5)
	Headless     bool        `json:"headless"`      // 无头模式 (默认:true)
	Mode         ResolveMode `json:"mode"`          // 解析模式 (默认:all)
	StaticProbe  bool        `json:"static_probe"`  // mode=all时是否先做静态探测 (默认:true)
}

// Validate 验证配置
func (c *ResolveConfig) Validate() error {
	if c.NavTimeout < 5 || c.NavTimeout > 300 {
		return fmt.Errorf("导航超时必须在5-300秒之间")
	}
	if c.WaitRounds < 1 || c.WaitRounds > 60 {
		return fmt.Errorf("等待轮数必须在1-60之间")
	}
	if c.WaitInterval < 1 || c.WaitInterval > 30 {
		return fmt.Errorf("等待间隔必须在1-30秒之间")
	}
	switch c.Mode {
	case ModeAll, ModeStatic, ModeDynamic:
	default:
		return fmt.Errorf("无效的解析模式: %s", c.Mode)
	}
	return nil
}

// DefaultResolveConfig 默认解析配置
// 被动等待总预算: 12轮 x 5秒
func DefaultResolveConfig() ResolveConfig {
	return ResolveConfig{
		NavTimeout:   60,
		WaitRounds:   12,
		WaitInterval: 5,
		Headless:     true,
		Mode:         ModeAll,
		StaticProbe:  true,
	}
}
