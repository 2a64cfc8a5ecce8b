package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部携带站点伪装", func(t *testing.T) {
		hm, err := NewHeaderManager(tempConfigPath(t), nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()

		if headers.Get("User-Agent") == "" {
			t.Error("期望默认User-Agent存在")
		}
		if headers.Get("Referer") != "https://www.douyin.com/" {
			t.Errorf("默认Referer应指向站点主页, 实际: %s", headers.Get("Referer"))
		}
		if headers.Get("Accept-Language") == "" {
			t.Error("期望默认Accept-Language存在")
		}
	})

	t.Run("命令行头部覆盖默认", func(t *testing.T) {
		cliHeaders := []string{
			"User-Agent: CustomBot/1.0",
		}

		hm, err := NewHeaderManager(tempConfigPath(t), cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		if ua := headers.Get("User-Agent"); ua != "CustomBot/1.0" {
			t.Errorf("期望User-Agent='CustomBot/1.0', 实际='%s'", ua)
		}
		// 未覆盖的默认头部保留
		if headers.Get("Referer") == "" {
			t.Error("未覆盖的默认头部应保留")
		}
	})

	t.Run("配置文件与命令行优先级", func(t *testing.T) {
		configPath := tempConfigPath(t)
		configContent := `headers:
  X-Config: from-config
  User-Agent: config-agent
`
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("写入配置失败: %v", err)
		}

		cliHeaders := []string{
			"X-CLI: from-cli",
			"User-Agent: cli-agent",
		}

		hm, err := NewHeaderManager(configPath, cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if err := hm.LoadConfig(); err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		merged := hm.GetMergedHeaders()

		// 命令行覆盖配置文件
		if val := merged.Get("User-Agent"); val != "cli-agent" {
			t.Errorf("命令行头部应覆盖配置文件, 实际: %s", val)
		}
		if merged.Get("X-Config") == "" {
			t.Error("应包含配置文件中的头部")
		}
		if merged.Get("X-CLI") == "" {
			t.Error("应包含命令行中的头部")
		}
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	t.Run("敏感头部脱敏", func(t *testing.T) {
		cliHeaders := []string{
			"User-Agent: CustomBot/1.0",
			"Cookie: ttwid=secret-session-12345",
			"Authorization: Bearer secret-token-12345",
		}

		hm, err := NewHeaderManager(tempConfigPath(t), cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		safeHeaders := hm.GetSafeHeaders()

		if safeHeaders["User-Agent"] != "CustomBot/1.0" {
			t.Error("普通头部不应该被脱敏")
		}
		if safeHeaders["Cookie"] == "ttwid=secret-session-12345" {
			t.Error("Cookie应该被脱敏")
		}
		if safeHeaders["Authorization"] != "Bearer ***" {
			t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safeHeaders["Authorization"])
		}
	})
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		cliHeaders := []string{
			"InvalidFormat", // 缺少冒号
		}

		_, err := NewHeaderManager(tempConfigPath(t), cliHeaders)
		if err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		cliHeaders := []string{
			"Host: example.com", // 禁止头部
		}

		hm, err := NewHeaderManager(tempConfigPath(t), cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		if _, err = hm.GetHeaders(); err == nil {
			t.Error("期望返回验证错误, 但成功了")
		}
	})

	t.Run("成功场景", func(t *testing.T) {
		cliHeaders := []string{
			"Cookie: ttwid=abc",
			"X-Custom: test-value",
		}

		hm, err := NewHeaderManager(tempConfigPath(t), cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}

		if headers.Get("Cookie") != "ttwid=abc" {
			t.Error("Cookie未正确设置")
		}
		if headers.Get("X-Custom") != "test-value" {
			t.Error("X-Custom未正确设置")
		}
	})
}

// tempConfigPath 每个用例独立的配置文件路径,避免污染工作目录
func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "headers.yaml")
}
