package core

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/resolver"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
)

// Resolver 主解析协调器
// 负责模式分发(static/dynamic/all)、资源预检、
// 报告生成与可选的视频下载
type Resolver struct {
	config    models.ResolveConfig
	pageURL   string
	domain    string
	outputDir string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 资源预检开关
	preflightEnabled bool

	// 最近一次会话(诊断数据来源)
	session *resolver.Session

	// 结果
	items  []models.VideoItem
	report *models.ResolveReport
}

// NewResolver 创建主解析器
// 支持直接粘贴分享文本,内部提取其中的URL
func NewResolver(input string, config models.ResolveConfig, outputDir string, headerProvider models.HeaderProvider, preflightEnabled bool) (*Resolver, error) {
	pageURL := utils.ExtractURLFromText(input)
	if pageURL == "" {
		return nil, fmt.Errorf("输入中未找到有效URL: %s", utils.TruncateURL(input, 80))
	}
	if err := models.ValidateURL(pageURL); err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("解析URL失败: %w", err)
	}
	domain := parsedURL.Host
	if domain == "" {
		return nil, fmt.Errorf("无法从URL中提取域名: %s", pageURL)
	}

	return &Resolver{
		config:           config,
		pageURL:          pageURL,
		domain:           domain,
		outputDir:        outputDir,
		headerProvider:   headerProvider,
		preflightEnabled: preflightEnabled,
	}, nil
}

// Resolve 执行解析任务
// 执行流程:
//  1. 创建输出目录结构
//  2. 根据模式执行解析 (static/dynamic/all)
//  3. 生成解析报告
//
// mode=all时先做轻量静态探测,仅当静态结果为高置信URL才短路,
// 否则仍然升级到浏览器会话
func (r *Resolver) Resolve() ([]models.VideoItem, error) {
	startTime := time.Now()

	utils.Infof("🚀 开始解析任务")
	utils.Infof("目标页面: %s", r.pageURL)
	utils.Infof("域名: %s", r.domain)
	utils.Infof("解析模式: %s", r.config.Mode)

	if err := r.setupOutputDirectories(); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	var items []models.VideoItem
	var err error

	switch r.config.Mode {
	case models.ModeStatic:
		items, err = r.runStaticProbe()
		if err != nil {
			return nil, err
		}
	case models.ModeDynamic:
		items, err = r.runBrowserSession()
		if err != nil {
			return nil, err
		}
	case models.ModeAll:
		if r.config.StaticProbe {
			staticItems, probeErr := r.runStaticProbe()
			if probeErr != nil {
				utils.Warnf("静态探测失败,升级到浏览器会话: %v", probeErr)
			}
			// 仅当静态结果为高置信URL才短路
			if len(staticItems) > 0 && resolver.IsHighConfidence(staticItems[0].SourceURL) {
				items = staticItems
				break
			}
			if len(staticItems) > 0 {
				utils.Infof("静态结果非高置信,升级到浏览器会话")
			}
		}
		if items == nil {
			items, err = r.runBrowserSession()
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("无效的解析模式: %s", r.config.Mode)
	}

	r.items = items
	r.buildReport(startTime, items)

	if err := r.saveReport(); err != nil {
		utils.Warnf("保存报告失败: %v", err)
	}

	utils.Infof("✅ 解析任务完成 (耗时%.2f秒)", time.Since(startTime).Seconds())
	return items, nil
}

// setupOutputDirectories 创建输出目录结构
func (r *Resolver) setupOutputDirectories() error {
	// 主输出目录: output/domain/
	basePath := filepath.Join(r.outputDir, r.domain)

	dirs := []string{
		filepath.Join(basePath, "reports"),   // 解析报告
		filepath.Join(basePath, "downloads"), // 下载的视频文件
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
		utils.Debugf("创建目录: %s", dir)
	}
	return nil
}

// runStaticProbe 执行静态探测
func (r *Resolver) runStaticProbe() ([]models.VideoItem, error) {
	utils.Infof("🔍 静态探测模式启动")

	headers, err := r.headerProvider.GetHeaders()
	if err != nil {
		return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	items, err := resolver.StaticProbe(r.pageURL, headers)
	if err != nil {
		return nil, fmt.Errorf("静态探测失败: %w", err)
	}
	return items, nil
}

// runBrowserSession 执行浏览器会话解析
func (r *Resolver) runBrowserSession() ([]models.VideoItem, error) {
	utils.Infof("🌐 浏览器会话模式启动")

	if r.preflightEnabled {
		if err := resolver.PreflightCheck(); err != nil {
			return nil, err
		}
	}

	r.session = resolver.NewSession(r.pageURL, r.config)
	items, err := r.session.Resolve()
	if err != nil {
		return nil, fmt.Errorf("浏览器会话解析失败: %w", err)
	}
	return items, nil
}

// buildReport 组装解析报告
func (r *Resolver) buildReport(startTime time.Time, items []models.VideoItem) {
	report := &models.ResolveReport{
		TaskID:    models.NewResolveTaskID(),
		PageURL:   r.pageURL,
		Domain:    r.domain,
		Mode:      r.config.Mode,
		StartTime: startTime,
		EndTime:   time.Now(),
		Duration:  time.Since(startTime).Seconds(),
		Items:     items,
		Config:    r.config,
	}
	if r.session != nil {
		report.Candidates = r.session.Candidates()
		report.Stats = r.session.Stats()
	}
	r.report = report
}

// saveReport 将报告写入输出目录
func (r *Resolver) saveReport() error {
	if r.report == nil {
		return nil
	}
	reporter := utils.NewReporter(r.outputDir, r.domain)
	return reporter.SaveResolveReport(r.report)
}

// GetReport 获取解析报告
func (r *Resolver) GetReport() *models.ResolveReport {
	return r.report
}

// GetItems 获取解析结果
func (r *Resolver) GetItems() []models.VideoItem {
	return r.items
}

// GetOutputDir 获取输出目录路径
func (r *Resolver) GetOutputDir() string {
	return filepath.Join(r.outputDir, r.domain)
}

// PageURL 提取后的页面URL
func (r *Resolver) PageURL() string {
	return r.pageURL
}
