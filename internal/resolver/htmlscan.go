package resolver

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// HTML静态扫描
// 只依赖字节输入的纯解析逻辑,与网络层解耦

// foundURL 静态扫描发现的一条URL
type foundURL struct {
	url    string
	source string // video_element / source_element / meta_og / script_tag
	title  string
}

var (
	// douyinvodPattern 内联脚本中的douyinvod视频URL
	douyinvodPattern = regexp.MustCompile(`https?://[^\s"'\\]+douyinvod\.com[^\s"'\\]*`)

	// mediaPattern 内联脚本中的直链媒体URL
	mediaPattern = regexp.MustCompile(`https?://[^\s"'\\]+\.(?:mp4|m3u8)[^\s"'\\]*`)

	// escapedSlash JSON内联时的转义斜杠
	escapedSlash = strings.NewReplacer(`\/`, `/`, `\u002F`, `/`, `\u002f`, `/`)
)

// scanHTML 从页面HTML中扫描视频URL
// 解析失败时退化为纯正则扫描,残缺HTML也能尽力提取
func scanHTML(body []byte) []foundURL {
	var found []foundURL
	seen := make(map[string]bool)
	push := func(rawURL, source, title string) {
		u := strings.TrimSpace(rawURL)
		if u == "" || !strings.HasPrefix(u, "http") || seen[u] {
			return
		}
		seen[u] = true
		found = append(found, foundURL{url: u, source: source, title: title})
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		scanText(string(body), push)
		return found
	}

	pageTitle := ""
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if pageTitle == "" && n.FirstChild != nil {
					pageTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "video":
				push(attrValue(n, "src"), "video_element", pageTitle)
			case "source":
				push(attrValue(n, "src"), "source_element", pageTitle)
			case "meta":
				prop := attrValue(n, "property")
				if prop == "og:video" || prop == "og:video:url" || prop == "og:video:secure_url" {
					push(attrValue(n, "content"), "meta_og", pageTitle)
				}
			case "script":
				if n.FirstChild != nil {
					// JSON内联时URL常以\/转义,先还原再匹配
					text := escapedSlash.Replace(n.FirstChild.Data)
					for _, m := range douyinvodPattern.FindAllString(text, -1) {
						push(m, "script_tag", pageTitle)
					}
					for _, m := range mediaPattern.FindAllString(text, -1) {
						push(m, "script_tag", pageTitle)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// scanText HTML解析失败时的纯正则退化路径
func scanText(text string, push func(url, source, title string)) {
	text = escapedSlash.Replace(text)
	for _, m := range douyinvodPattern.FindAllString(text, -1) {
		push(m, "script_tag", "")
	}
	for _, m := range mediaPattern.FindAllString(text, -1) {
		push(m, "script_tag", "")
	}
}

// attrValue 读取节点属性值,不存在时返回空串
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
