package core

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/andybalholm/brotli"
)

// stubHeaderProvider 测试用头部提供者
type stubHeaderProvider struct {
	headers http.Header
	err     error
}

func (s *stubHeaderProvider) GetHeaders() (http.Header, error) {
	return s.headers, s.err
}

func TestDownloader_Download(t *testing.T) {
	t.Run("成功下载并透传头部", func(t *testing.T) {
		var gotUA, gotReferer string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotReferer = r.Header.Get("Referer")
			w.Write([]byte("fake video bytes"))
		}))
		defer server.Close()

		provider := &stubHeaderProvider{headers: http.Header{
			"User-Agent": []string{models.DefaultUserAgent},
			"Referer":    []string{"https://www.douyin.com/"},
		}}

		outDir := t.TempDir()
		d := NewDownloader(provider, outDir, 30*time.Second)
		item := models.NewVideoItem(server.URL+"/video/media.mp4", 1, models.KindFirstCaptured, "", "")

		filePath, err := d.Download(item, "task1234abcd")
		if err != nil {
			t.Fatalf("下载失败: %v", err)
		}

		if gotUA != models.DefaultUserAgent {
			t.Errorf("UA未透传: %s", gotUA)
		}
		if gotReferer != "https://www.douyin.com/" {
			t.Errorf("Referer未透传: %s", gotReferer)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			t.Fatalf("读取下载文件失败: %v", err)
		}
		if string(content) != "fake video bytes" {
			t.Errorf("文件内容不符: %s", content)
		}
	})

	t.Run("403返回DownloadError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		provider := &stubHeaderProvider{headers: http.Header{}}
		d := NewDownloader(provider, t.TempDir(), 30*time.Second)
		item := models.NewVideoItem(server.URL+"/v.mp4", 1, models.KindFirstCaptured, "", "")

		_, err := d.Download(item, "task")
		if err == nil {
			t.Fatal("期望返回错误")
		}

		var dlErr *models.DownloadError
		if !errors.As(err, &dlErr) {
			t.Fatalf("期望DownloadError, 实际: %T", err)
		}
		if dlErr.StatusCode != 403 {
			t.Errorf("状态码应为403, 实际%d", dlErr.StatusCode)
		}
	})

	t.Run("头部提供者失败时中止", func(t *testing.T) {
		provider := &stubHeaderProvider{err: errors.New("配置损坏")}
		d := NewDownloader(provider, t.TempDir(), 30*time.Second)
		item := models.NewVideoItem("https://example.com/v.mp4", 1, models.KindFirstCaptured, "", "")

		if _, err := d.Download(item, "task"); err == nil {
			t.Error("期望返回错误")
		}
	})
}

func TestDecodeBody(t *testing.T) {
	payload := []byte("video payload data")

	t.Run("gzip解码", func(t *testing.T) {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		gw.Write(payload)
		gw.Close()

		resp := &http.Response{
			Header: http.Header{"Content-Encoding": []string{"gzip"}},
			Body:   io.NopCloser(&buf),
		}

		reader, err := decodeBody(resp)
		if err != nil {
			t.Fatalf("解码失败: %v", err)
		}
		decoded, _ := io.ReadAll(reader)
		if !bytes.Equal(decoded, payload) {
			t.Errorf("gzip解码结果不符: %s", decoded)
		}
	})

	t.Run("brotli解码", func(t *testing.T) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write(payload)
		bw.Close()

		resp := &http.Response{
			Header: http.Header{"Content-Encoding": []string{"br"}},
			Body:   io.NopCloser(&buf),
		}

		reader, err := decodeBody(resp)
		if err != nil {
			t.Fatalf("解码失败: %v", err)
		}
		decoded, _ := io.ReadAll(reader)
		if !bytes.Equal(decoded, payload) {
			t.Errorf("brotli解码结果不符: %s", decoded)
		}
	})

	t.Run("无压缩原样返回", func(t *testing.T) {
		resp := &http.Response{
			Header: http.Header{},
			Body:   io.NopCloser(bytes.NewReader(payload)),
		}

		reader, err := decodeBody(resp)
		if err != nil {
			t.Fatalf("解码失败: %v", err)
		}
		decoded, _ := io.ReadAll(reader)
		if !bytes.Equal(decoded, payload) {
			t.Errorf("原样返回结果不符: %s", decoded)
		}
	})
}

func TestDownloadFileName(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		taskID   string
		expected string
	}{
		{
			name:     "mp4扩展名",
			url:      "https://v3.douyinvod.com/abc/video/media.mp4?sig=x",
			taskID:   "0123456789abcdef",
			expected: "video_01234567.mp4",
		},
		{
			name:     "无扩展名默认mp4",
			url:      "https://v3.douyinvod.com/abc/video/stream",
			taskID:   "0123456789abcdef",
			expected: "video_01234567.mp4",
		},
		{
			name:     "webm扩展名",
			url:      "https://cdn.example.com/clip.webm",
			taskID:   "short",
			expected: "video_short.webm",
		},
		{
			name:     "未知扩展名回退mp4",
			url:      "https://cdn.example.com/page.html",
			taskID:   "short",
			expected: "video_short.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.VideoItem{SourceURL: tt.url}
			if got := downloadFileName(item, tt.taskID); got != tt.expected {
				t.Errorf("期望 '%s', 实际 '%s'", tt.expected, got)
			}
		})
	}
}
