package resolver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/gocolly/colly/v2"
)

// StaticProbe 无浏览器的静态探测
// 直接抓取页面HTML,从DOM与内联脚本中扫描视频URL。
// 对服务端渲染的分享页足够,对需要JS运行时的页面会空手而归,
// 此时由调用方升级到浏览器会话
func StaticProbe(pageURL string, headers http.Header) ([]models.VideoItem, error) {
	utils.Infof("⚡ 静态探测: %s", utils.TruncateURL(pageURL, 120))

	c := colly.NewCollector(
		colly.UserAgent(models.DefaultUserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(30 * time.Second)

	c.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			for _, v := range values {
				r.Headers.Set(name, v)
			}
		}
	})

	var found []foundURL
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		found = scanHTML(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("页面抓取失败 (状态%d): %w", status, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("静态探测请求失败: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	// 静态结果同样走分类与收敛逻辑
	var firstHigh string
	var extracted []ExtractedVideo
	for _, f := range found {
		if firstHigh == "" && IsHighConfidence(f.url) {
			firstHigh = f.url
		}
		extracted = append(extracted, ExtractedVideo{URL: f.url, Source: f.source, Title: f.title})
	}

	items := Assemble(firstHigh, nil, extracted)
	if len(items) > 0 {
		// 静态来源统一标记
		items[0].Kind = models.KindStaticProbe
		items[0].Description = fmt.Sprintf("Source: %s", models.KindStaticProbe)
		utils.Infof("静态探测命中: %s", utils.TruncateURL(items[0].SourceURL, 100))
	} else {
		utils.Infof("静态探测未发现视频,需要浏览器会话")
	}
	return items, nil
}
