package resolver

import (
	"net/url"
	"strings"
)

// URL分类器: 三个纯函数,仅依赖URL字符串本身。
// 站点更换URL规则时只需要改这里。

const (
	// HighConfidenceHost 平台真实视频分发主机
	HighConfidenceHost = "douyinvod.com"

	// VideoPathMarker 视频资源路径标记
	VideoPathMarker = "video"
)

var (
	// skipWords 诱饵资源关键字(缩略图/图标/特效/客户端安装包等)
	skipWords = []string{
		"icon", "logo", "bg", "background", "thumb", "preview",
		"avatar", "cover", "uuu_265",
		"douyin_pc_client", "client", "download", "install", "setup",
	}

	// excludeDomains 已知非视频CDN域名(特效/静态资源)
	excludeDomains = []string{
		"douyinstatic.com", "byteeffecttos.com", "effectcdn",
		"bytednsdoc.com", "eden-cn", "ild_jw",
	}

	// videoExtensions 可播放媒体文件扩展名标记
	videoExtensions = []string{".mp4", ".m3u8", ".flv", ".webm", ".mov", ".avi"}
)

// Normalize 规范化URL,仅保留scheme+host+path,去除query与fragment。
// 只作为去重键使用,绝不返回给调用方。
// 空串或无法解析的输入原样返回,不会崩溃。
func Normalize(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return rawURL
	}
	return parsed.Scheme + "://" + parsed.Host + parsed.Path
}

// IsValidVideo 判断URL是否为有效视频。
// 判定顺序:
//  1. 包含诱饵关键字 → 拒绝
//  2. douyinvod.com且带video路径标记 → 立即接受
//  3. 已知非视频CDN域名 → 拒绝
//  4. 其余仅当包含可播放扩展名标记时接受
func IsValidVideo(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)

	for _, skip := range skipWords {
		if strings.Contains(lower, skip) {
			return false
		}
	}

	if strings.Contains(lower, HighConfidenceHost) && strings.Contains(lower, VideoPathMarker) {
		return true
	}

	for _, domain := range excludeDomains {
		if strings.Contains(lower, domain) {
			return false
		}
	}

	for _, ext := range videoExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// IsHighConfidence 判断URL是否为douyinvod.com的真实视频URL。
// 严格窄于IsValidVideo,是提前退出的判定基础。
func IsHighConfidence(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, HighConfidenceHost) && strings.Contains(lower, VideoPathMarker)
}
