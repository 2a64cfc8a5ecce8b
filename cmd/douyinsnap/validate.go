package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
// 目标URL允许是分享口令文本,此处不校验,由解析器提取后校验
func ValidateFlags(config models.ResolveConfig, urlFile string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if urlFile != "" {
		if err := ValidateURLFile(urlFile); err != nil {
			return err
		}
	}

	return nil
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	// 文件存在性检查将在运行时进行
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
