package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
)

// BatchResolver 批量解析器
// 顺序处理URL列表,每个URL独立会话,URL之间留随机化的间隔
// 降低同源高频访问被风控的概率
type BatchResolver struct {
	config           models.ResolveConfig
	outputDir        string
	batchDelay       time.Duration
	continueOnErr    bool
	headerProvider   models.HeaderProvider
	preflightEnabled bool

	rnd *rand.Rand
}

// BatchResult 单个URL的解析结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Items       []models.VideoItem
	Stats       models.ResolveStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量解析摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	EmptyCount    int
	ResolvedCount int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchResolver 创建批量解析器
func NewBatchResolver(config models.ResolveConfig, outputDir string, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider, preflightEnabled bool) *BatchResolver {
	return &BatchResolver{
		config:           config,
		outputDir:        outputDir,
		batchDelay:       time.Duration(batchDelay) * time.Second,
		continueOnErr:    continueOnErr,
		headerProvider:   headerProvider,
		preflightEnabled: preflightEnabled,
		rnd:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// jitteredDelay 基础间隔加上最多1秒的随机抖动
// 固定节奏的批量访问本身就是一种行为指纹
func (br *BatchResolver) jitteredDelay() time.Duration {
	if br.batchDelay <= 0 {
		return 0
	}
	return br.batchDelay + time.Duration(br.rnd.Int63n(int64(time.Second)))
}

// ResolveBatch 批量解析URL列表
func (br *BatchResolver) ResolveBatch(urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量解析: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		// 执行单个URL解析
		result := br.resolveSingleURL(targetURL)
		summary.Results = append(summary.Results, result)

		// 更新统计
		if result.Success {
			summary.SuccessCount++
			if len(result.Items) > 0 {
				summary.ResolvedCount++
			} else {
				summary.EmptyCount++
			}
		} else {
			summary.FailCount++
			utils.Errorf("❌ 解析失败: %v", result.Error)

			// 如果不继续处理错误,则停止
			if !br.continueOnErr {
				utils.Warn("批量解析中止 (--continue-on-error=false)")
				break
			}
		}

		// 批量延迟(最后一个URL不需要延迟)
		if i < len(urls)-1 && br.batchDelay > 0 {
			delay := br.jitteredDelay()
			utils.Debugf("等待 %.1f 秒后处理下一个URL...", delay.Seconds())
			time.Sleep(delay)
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	// 显示批量解析摘要
	br.printSummary(summary)

	return summary, nil
}

// resolveSingleURL 解析单个URL
func (br *BatchResolver) resolveSingleURL(targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	// 创建解析器
	res, err := NewResolver(targetURL, br.config, br.outputDir, br.headerProvider, br.preflightEnabled)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建解析器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	// 执行解析
	items, err := res.Resolve()
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("解析失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	// 成功 (空结果也算成功,页面确实没有视频)
	result.Success = true
	result.Items = items
	if report := res.GetReport(); report != nil {
		result.Stats = report.Stats
	}
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量解析摘要
func (br *BatchResolver) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量解析摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d (解析出视频%d, 空结果%d)", summary.SuccessCount, summary.ResolvedCount, summary.EmptyCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	// 显示失败的URL
	if summary.FailCount > 0 {
		utils.Warn("\n失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
