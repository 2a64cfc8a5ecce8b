package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// SaveResolveReport 保存解析报告
// 主报告带任务ID便于批量场景追溯,latest固定覆盖便于脚本消费
func (r *Reporter) SaveResolveReport(report *models.ResolveReport) error {
	reportsDir := filepath.Join(r.outputDir, r.domain, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	taskShort := report.TaskID
	if len(taskShort) > 8 {
		taskShort = taskShort[:8]
	}

	// 主报告
	filename := fmt.Sprintf("resolve_report_%s.json", taskShort)
	if err := r.saveJSONReport(reportsDir, filename, report); err != nil {
		return err
	}

	// 最新报告副本
	if err := r.saveJSONReport(reportsDir, "resolve_report_latest.json", report); err != nil {
		return err
	}

	// 结果条目单独一份,方便直接取URL
	if len(report.Items) > 0 {
		if err := r.saveJSONReport(reportsDir, "resolved_items.json", report.Items); err != nil {
			return err
		}
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	filepath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", filepath)
	return nil
}

// NewProgressBar 创建按字节计的下载进度条
// size为-1时退化为不定长的spinner (Content-Length未知)
func NewProgressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
