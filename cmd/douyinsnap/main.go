package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/core"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	headersFile    string   // HTTP头部配置文件路径
	validateConfig bool     // 验证配置文件

	// 解析参数
	targetURL    string
	urlFile      string
	mode         string
	navTimeout   int
	waitRounds   int
	waitInterval int
	headless     bool
	staticProbe  bool
	download     bool
	outputDir    string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "douyinsnap",
	Short: "抖音视频页面解析工具",
	Long: `DouyinSnap - 抖音视频真实地址解析工具 (Go版本)

启动反检测无头浏览器加载视频页面,全程监听网络流量,
从诱饵资源中甄别出douyinvod.com真实视频地址,支持:
  • 静态和动态解析模式
  • 分享口令文本直接粘贴
  • 升级式解析 (被动等待→页面交互→脚本回退→终态提取)
  • 批量URL处理
  • 解析后直接下载视频
  • 自定义HTTP请求头

使用示例:
  # 解析单个页面
  douyinsnap -u "https://www.douyin.com/video/74..."

  # 直接粘贴分享口令
  douyinsnap -u "7.43 复制打开抖音 https://v.douyin.com/xxx/ 看视频"

  # 解析并下载
  douyinsnap -u https://v.douyin.com/xxx/ --download

  # 验证配置文件
  douyinsnap --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		// 重新加载配置(从PersistentPreRunE中获取)
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器 (头部配置独立于应用配置文件)
		headerManager, err := core.NewHeaderManager(headersFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(navTimeout, waitRounds, waitInterval, headless, mode, download)
		appConfig.Resolve.StaticProbe = staticProbe
		if outputDir == "" {
			outputDir = appConfig.Output.BaseDir
		}

		resolveConfig := appConfig.GetResolveConfig()
		if err := ValidateFlags(resolveConfig, urlFile); err != nil {
			return err
		}

		// 检查是否为批量处理模式
		if urlFile != "" {
			// 批量处理模式
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			// 创建批量解析器
			batchResolver := core.NewBatchResolver(resolveConfig, outputDir, batchDelay, continueOnError, headerManager, appConfig.Resource.PreflightEnabled)

			// 执行批量解析
			if _, err := batchResolver.ResolveBatch(urls); err != nil {
				return fmt.Errorf("批量解析失败: %w", err)
			}

			utils.Info("✨ 批量解析任务完成!")
			return nil
		}

		// 单URL解析模式
		resolver, err := core.NewResolver(targetURL, resolveConfig, outputDir, headerManager, appConfig.Resource.PreflightEnabled)
		if err != nil {
			return fmt.Errorf("创建解析器失败: %w", err)
		}

		// 执行解析
		items, err := resolver.Resolve()
		if err != nil {
			return fmt.Errorf("解析失败: %w", err)
		}

		// 显示解析结果
		report := resolver.GetReport()
		fmt.Println("\n==================================================")
		fmt.Println("📊 解析结果")
		fmt.Println("==================================================")
		if len(items) == 0 {
			fmt.Println("未发现视频 (页面可能不包含视频内容)")
		}
		for _, item := range items {
			fmt.Printf("✅ [%d] %s\n", item.Index, item.Title)
			fmt.Printf("    来源: %s\n", item.Kind)
			fmt.Printf("    地址: %s\n", item.SourceURL)
		}
		if report != nil {
			fmt.Printf("📡 观测请求/响应: %d/%d\n", report.Stats.TotalRequests, report.Stats.TotalResponses)
			fmt.Printf("⏱️  总耗时: %.2f秒\n", report.Duration)
		}
		fmt.Println("==================================================")

		// 可选下载
		if appConfig.Download.Enabled && len(items) > 0 {
			downloadDir := filepath.Join(resolver.GetOutputDir(), appConfig.Download.Dir)
			downloader := core.NewDownloader(headerManager, downloadDir, time.Duration(appConfig.Download.Timeout)*time.Second)
			taskID := ""
			if report != nil {
				taskID = report.TaskID
			}
			filePath, err := downloader.Download(items[0], taskID)
			if err != nil {
				return fmt.Errorf("下载失败: %w", err)
			}
			if report != nil {
				report.DownloadedFile = filePath
			}
			fmt.Printf("📥 视频已保存: %s\n", filePath)
		}

		utils.Info("✨ 解析任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DouyinSnap %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 抖音视频真实地址解析工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-config", "", "HTTP头部配置文件路径 (默认configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 解析参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标URL或分享口令文本 (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "all", "解析模式 (all|static|dynamic)")
	rootCmd.Flags().IntVar(&navTimeout, "nav-timeout", 60, "页面导航超时(秒)")
	rootCmd.Flags().IntVar(&waitRounds, "wait-rounds", 12, "被动等待轮数")
	rootCmd.Flags().IntVarP(&waitInterval, "wait", "w", 5, "每轮等待时间(秒)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&staticProbe, "static-probe", true, "mode=all时先尝试静态探测")
	rootCmd.Flags().BoolVar(&download, "download", false, "解析成功后下载视频")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认取配置output.base_dir)")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 3, "批量处理URL间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
