package core

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/andybalholm/brotli"
)

// Downloader 视频下载器
// 使用与浏览器会话一致的HTTP头部拉取解析出的视频URL,
// 站点CDN校验UA/Referer,头部不一致会拿到403
type Downloader struct {
	client         *http.Client
	headerProvider models.HeaderProvider
	outputDir      string
}

// NewDownloader 创建下载器
func NewDownloader(headerProvider models.HeaderProvider, outputDir string, timeout time.Duration) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
			// 压缩解码自行处理,禁用transport的透明解压
			Transport: &http.Transport{DisableCompression: true},
		},
		headerProvider: headerProvider,
		outputDir:      outputDir,
	}
}

// Download 下载单个视频
// 返回保存的文件路径
func (d *Downloader) Download(item models.VideoItem, taskID string) (string, error) {
	headers, err := d.headerProvider.GetHeaders()
	if err != nil {
		return "", fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, item.SourceURL, nil)
	if err != nil {
		return "", &models.DownloadError{URL: item.SourceURL, Cause: err}
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	utils.Infof("⬇️ 开始下载: %s", utils.TruncateURL(item.SourceURL, 100))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &models.DownloadError{URL: item.SourceURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", &models.DownloadError{URL: item.SourceURL, StatusCode: resp.StatusCode}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return "", &models.DownloadError{URL: item.SourceURL, Cause: err}
	}

	filePath := filepath.Join(d.outputDir, downloadFileName(item, taskID))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("创建下载目录失败: %w", err)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer out.Close()

	bar := utils.NewProgressBar(resp.ContentLength, "下载中")
	written, err := io.Copy(io.MultiWriter(out, bar), reader)
	if err != nil {
		// 半截文件不保留
		os.Remove(filePath)
		return "", &models.DownloadError{URL: item.SourceURL, Cause: err}
	}

	utils.Infof("✅ 下载完成: %s (%.2f MB)", filePath, float64(written)/(1024*1024))
	return filePath, nil
}

// decodeBody 根据Content-Encoding解码响应体
func decodeBody(resp *http.Response) (io.Reader, error) {
	encoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	switch encoding {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// downloadFileName 生成下载文件名
// URL路径中的扩展名优先,取不到时按mp4处理
func downloadFileName(item models.VideoItem, taskID string) string {
	ext := ".mp4"
	if idx := strings.LastIndex(item.SourceURL, "."); idx > 0 {
		candidate := item.SourceURL[idx:]
		if q := strings.IndexAny(candidate, "?#"); q > 0 {
			candidate = candidate[:q]
		}
		switch candidate {
		case ".mp4", ".flv", ".webm", ".mov", ".avi":
			ext = candidate
		}
	}
	short := taskID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("video_%s%s", short, ext)
}
