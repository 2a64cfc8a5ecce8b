package resolver

import (
	"github.com/RecoveryAshes/DouyinSnap/internal/models"
)

// Assemble 将所有来源的捕获收敛为至多一条结果
// 优先级:
//  1. 高置信槽位命中 → 直接以该URL作为唯一结果
//  2. 否则合并网络候选与终态提取,按规范化URL去重(先见者保留),
//     过滤掉无效视频,选第一个高置信URL,没有则选第一个
//
// 纯函数,不访问会话状态,方便单独测试
func Assemble(firstHighConfidence string, candidates []models.CandidateResource, extracted []ExtractedVideo) []models.VideoItem {
	if firstHighConfidence != "" {
		return []models.VideoItem{
			models.NewVideoItem(firstHighConfidence, 1, models.KindFirstCaptured, "", ""),
		}
	}

	// 合并: 网络观测在前,终态提取在后
	type merged struct {
		url   string
		kind  models.SourceKind
		title string
	}
	seen := make(map[string]bool)
	pool := make([]merged, 0, len(candidates)+len(extracted))

	for _, c := range candidates {
		key := c.NormalizedURL
		if key == "" {
			key = Normalize(c.URL)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		pool = append(pool, merged{url: c.URL, kind: models.KindNetworkIntercept})
	}

	for _, e := range extracted {
		if !IsValidVideo(e.URL) {
			continue
		}
		key := Normalize(e.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		pool = append(pool, merged{url: e.URL, kind: extractionKind(e.Source), title: e.Title})
	}

	if len(pool) == 0 {
		return nil
	}

	// 第一个高置信优先,其次第一个候选
	chosen := pool[0]
	for _, m := range pool {
		if IsHighConfidence(m.url) {
			chosen = m
			break
		}
	}

	return []models.VideoItem{
		models.NewVideoItem(chosen.url, 1, chosen.kind, chosen.title, ""),
	}
}

// extractionKind 终态提取来源标记到SourceKind的映射
func extractionKind(source string) models.SourceKind {
	switch source {
	case "window_object":
		return models.KindWindowObject
	case "video_element", "source_element":
		return models.KindHTMLElement
	case "script_tag":
		return models.KindScriptExtraction
	case "play_addr":
		return models.KindAPIExtraction
	default:
		return models.KindScriptExtraction
	}
}
