package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Resolve  ResolveSection `mapstructure:"resolve"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
	Download DownloadConfig `mapstructure:"download"`
	Resource ResourceConfig `mapstructure:"resource"`
}

// ResolveSection 解析配置 (配置文件形态,时长单位为秒)
type ResolveSection struct {
	NavTimeout   int    `mapstructure:"nav_timeout"`
	WaitRounds   int    `mapstructure:"wait_rounds"`
	WaitInterval int    `mapstructure:"wait_interval"`
	Headless     bool   `mapstructure:"headless"`
	Mode         string `mapstructure:"mode"`
	StaticProbe  bool   `mapstructure:"static_probe"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir    string `mapstructure:"base_dir"`
	SaveReport bool   `mapstructure:"save_report"`
}

// DownloadConfig 下载配置
type DownloadConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	Timeout int    `mapstructure:"timeout"`
}

// ResourceConfig 资源预检配置
type ResourceConfig struct {
	PreflightEnabled bool `mapstructure:"preflight_enabled"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".douyinsnap"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 解析配置默认值
	v.SetDefault("resolve.nav_timeout", 60)
	v.SetDefault("resolve.wait_rounds", 12)
	v.SetDefault("resolve.wait_interval", 5)
	v.SetDefault("resolve.headless", true)
	v.SetDefault("resolve.mode", "all")
	v.SetDefault("resolve.static_probe", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.save_report", true)

	// 下载配置默认值
	v.SetDefault("download.enabled", false)
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.timeout", 300)

	// 资源预检默认值
	v.SetDefault("resource.preflight_enabled", true)
}

// GetResolveConfig 从配置中提取解析配置
func (c *Config) GetResolveConfig() models.ResolveConfig {
	return models.ResolveConfig{
		NavTimeout:   c.Resolve.NavTimeout,
		WaitRounds:   c.Resolve.WaitRounds,
		WaitInterval: c.Resolve.WaitInterval,
		Headless:     c.Resolve.Headless,
		Mode:         models.ResolveMode(c.Resolve.Mode),
		StaticProbe:  c.Resolve.StaticProbe,
	}
}

// MergeCLIFlags 合并命令行参数到配置
func (c *Config) MergeCLIFlags(
	navTimeout int,
	waitRounds int,
	waitInterval int,
	headless bool,
	mode string,
	download bool,
) {
	// 命令行参数优先于配置文件
	if navTimeout > 0 {
		c.Resolve.NavTimeout = navTimeout
	}
	if waitRounds > 0 {
		c.Resolve.WaitRounds = waitRounds
	}
	if waitInterval > 0 {
		c.Resolve.WaitInterval = waitInterval
	}
	c.Resolve.Headless = headless
	if mode != "" {
		c.Resolve.Mode = mode
	}
	if download {
		c.Download.Enabled = true
	}
}
