package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  DouyinSnap Go版本环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)

	// 检查Go版本是否满足要求
	if !strings.HasPrefix(goVersion, "go1.21") &&
		!strings.HasPrefix(goVersion, "go1.22") &&
		!strings.HasPrefix(goVersion, "go1.23") {
		fmt.Println("⚠️  警告: 建议使用Go 1.21+版本")
	}

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查Chrome/Chromium (浏览器会话依赖)
	browserFound := false
	for _, browser := range browserCandidates() {
		if checkCommand(browser, "--version") {
			version := getCommandOutput(browser, "--version")
			fmt.Printf("✅ 浏览器已安装: %s\n", strings.TrimSpace(version))
			browserFound = true
			break
		}
	}
	if !browserFound {
		fmt.Println("⚠️  未检测到Chrome/Chromium - go-rod将在首次运行时自动下载")
	}

	// 检查输出目录可写
	if err := os.MkdirAll("output", 0755); err != nil {
		fmt.Printf("❌ 输出目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 输出目录可写")
	}

	// 检查日志目录可写
	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Printf("❌ 日志目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 日志目录可写")
	}

	fmt.Println()
	if allOK {
		fmt.Println("✅ 环境验证通过,可以开始使用")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证未通过,请按提示修复")
	os.Exit(1)
}

// browserCandidates 各平台常见的浏览器可执行文件名
func browserCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", "chromium"}
	case "windows":
		return []string{"chrome", "chromium"}
	default:
		return []string{"google-chrome", "chromium", "chromium-browser"}
	}
}

func checkCommand(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}

func getCommandOutput(name string, args ...string) string {
	cmd := exec.Command(name, args...)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(output)
}
