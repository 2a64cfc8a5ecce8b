package resolver

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
)

func timeNowMinusSecond() time.Time {
	return time.Now().Add(-time.Second)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession("https://www.douyin.com/video/7400000000000000000", models.DefaultResolveConfig())
}

func TestSession_ObserveRequest(t *testing.T) {
	t.Run("首个douyinvod请求写入槽位", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4?sig=1")

		if got := s.FirstHighConfidence(); got != "https://v3.douyinvod.com/abc/video/media.mp4?sig=1" {
			t.Errorf("槽位未写入, 实际: '%s'", got)
		}
	})

	t.Run("槽位只写一次不覆盖", func(t *testing.T) {
		s := newTestSession(t)

		first := "https://v3.douyinvod.com/first/video/media.mp4"
		second := "https://v3.douyinvod.com/second/video/media.mp4"
		s.ObserveRequest(first)
		s.ObserveRequest(second)

		if got := s.FirstHighConfidence(); got != first {
			t.Errorf("槽位应保留首个URL '%s', 实际: '%s'", first, got)
		}
	})

	t.Run("非高置信请求不写槽位", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveRequest("https://cdn.example.com/media/clip.mp4")
		s.ObserveRequest("https://p3.example.com/img/icon.png")

		if got := s.FirstHighConfidence(); got != "" {
			t.Errorf("槽位应为空, 实际: '%s'", got)
		}
	})

	t.Run("请求计数递增", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveRequest("https://www.douyin.com/api/detail")
		s.ObserveRequest("https://p3.example.com/img/icon.png")
		s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4")

		requests, responses := s.Counters()
		if requests != 3 {
			t.Errorf("期望请求计数3, 实际%d", requests)
		}
		if responses != 0 {
			t.Errorf("期望响应计数0, 实际%d", responses)
		}
	})
}

func TestSession_ObserveResponse(t *testing.T) {
	t.Run("有效视频进入候选集合", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://cdn.example.com/media/clip.mp4")

		candidates := s.Candidates()
		if len(candidates) != 1 {
			t.Fatalf("期望1个候选, 实际%d", len(candidates))
		}
		if candidates[0].URL != "https://cdn.example.com/media/clip.mp4" {
			t.Errorf("候选URL不符: %s", candidates[0].URL)
		}
		if candidates[0].ObservedVia != models.ViaResponse {
			t.Errorf("观测途径应为response, 实际: %s", candidates[0].ObservedVia)
		}
	})

	t.Run("诱饵资源被过滤", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://p3.example.com/img/thumb/cover.jpg")
		s.ObserveResponse("https://static.example.com/assets/logo.png")
		s.ObserveResponse("https://lf3.byteeffecttos.com/obj/effect/item.mp4")

		if got := len(s.Candidates()); got != 0 {
			t.Errorf("诱饵资源不应进入候选, 实际%d个", got)
		}
	})

	t.Run("规范化URL去重保留首见", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://v3.douyinvod.com/abc/video/media.mp4?sig=111")
		s.ObserveResponse("https://v3.douyinvod.com/abc/video/media.mp4?sig=222")

		candidates := s.Candidates()
		if len(candidates) != 1 {
			t.Fatalf("同一资源不同签名应去重, 实际%d个", len(candidates))
		}
		if candidates[0].URL != "https://v3.douyinvod.com/abc/video/media.mp4?sig=111" {
			t.Errorf("应保留首见的完整URL, 实际: %s", candidates[0].URL)
		}
	})

	t.Run("候选按首见顺序排列", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://cdn.example.com/a.mp4")
		s.ObserveResponse("https://cdn.example.com/b.mp4")
		s.ObserveResponse("https://cdn.example.com/c.mp4")

		candidates := s.Candidates()
		if len(candidates) != 3 {
			t.Fatalf("期望3个候选, 实际%d", len(candidates))
		}
		expected := []string{
			"https://cdn.example.com/a.mp4",
			"https://cdn.example.com/b.mp4",
			"https://cdn.example.com/c.mp4",
		}
		for i, url := range expected {
			if candidates[i].URL != url {
				t.Errorf("第%d个候选应为'%s', 实际'%s'", i+1, url, candidates[i].URL)
			}
		}
	})

	t.Run("高置信响应标记IsHighConfidence", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://v3.douyinvod.com/abc/video/media.mp4")
		s.ObserveResponse("https://cdn.example.com/other.mp4")

		candidates := s.Candidates()
		if !candidates[0].IsHighConfidence {
			t.Error("douyinvod候选应标记为高置信")
		}
		if candidates[1].IsHighConfidence {
			t.Error("普通mp4候选不应标记为高置信")
		}
	})
}

func TestSession_HasHighConfidence(t *testing.T) {
	t.Run("槽位命中", func(t *testing.T) {
		s := newTestSession(t)
		if s.HasHighConfidence() {
			t.Error("初始状态不应有高置信URL")
		}

		s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4")
		if !s.HasHighConfidence() {
			t.Error("槽位写入后应返回true")
		}
	})

	t.Run("候选集合命中", func(t *testing.T) {
		s := newTestSession(t)

		// 响应只进候选集合,不写槽位
		s.ObserveResponse("https://v3.douyinvod.com/abc/video/media.mp4")

		if s.FirstHighConfidence() != "" {
			t.Error("响应不应写槽位")
		}
		if !s.HasHighConfidence() {
			t.Error("候选集合中有高置信URL时应返回true")
		}
	})

	t.Run("仅普通候选不算高置信", func(t *testing.T) {
		s := newTestSession(t)

		s.ObserveResponse("https://cdn.example.com/clip.mp4")
		if s.HasHighConfidence() {
			t.Error("普通mp4候选不应触发高置信")
		}
	})
}

func TestSession_SetHighConfidence(t *testing.T) {
	s := newTestSession(t)

	// 脚本回退侧写入同样遵守first-write-wins
	if !s.setHighConfidence("https://v3.douyinvod.com/a/video/1.mp4") {
		t.Error("空槽位首次写入应成功")
	}
	if s.setHighConfidence("https://v3.douyinvod.com/b/video/2.mp4") {
		t.Error("槽位已占用时写入应失败")
	}
	if got := s.FirstHighConfidence(); got != "https://v3.douyinvod.com/a/video/1.mp4" {
		t.Errorf("槽位应保留首个URL, 实际: %s", got)
	}
}

func TestSession_ConcurrentObserve(t *testing.T) {
	// 监听回调在rod的goroutine上并发触发,观测方法必须并发安全
	s := newTestSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4")
		}()
		go func() {
			defer wg.Done()
			s.ObserveResponse("https://cdn.example.com/clip.mp4")
		}()
	}
	wg.Wait()

	requests, responses := s.Counters()
	if requests != 50 || responses != 50 {
		t.Errorf("计数丢失: 请求%d 响应%d", requests, responses)
	}
	if len(s.Candidates()) != 1 {
		t.Errorf("重复响应应去重为1个候选, 实际%d", len(s.Candidates()))
	}
	if s.FirstHighConfidence() == "" {
		t.Error("槽位应已写入")
	}
}

func TestSession_StageDriver(t *testing.T) {
	t.Run("前置条件不满足时跳过阶段", func(t *testing.T) {
		s := newTestSession(t)
		s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4")

		ran := false
		s.runStages([]stage{
			{
				name:         "升级阶段",
				precondition: needHighConfidence,
				run: func(*Session) stageResult {
					ran = true
					return ok()
				},
			},
		})
		if ran {
			t.Error("已有高置信URL时升级阶段不应执行")
		}
	})

	t.Run("普通阶段失败后跳过后续普通阶段", func(t *testing.T) {
		s := newTestSession(t)

		var executed []string
		s.runStages([]stage{
			{
				name: "第一阶段",
				run: func(*Session) stageResult {
					executed = append(executed, "first")
					return failed("模拟失败")
				},
			},
			{
				name: "第二阶段",
				run: func(*Session) stageResult {
					executed = append(executed, "second")
					return ok()
				},
			},
			{
				name:   "终态阶段",
				always: true,
				run: func(*Session) stageResult {
					executed = append(executed, "terminal")
					return ok()
				},
			},
		})

		if len(executed) != 2 || executed[0] != "first" || executed[1] != "terminal" {
			t.Errorf("失败后应只执行always阶段, 实际执行: %v", executed)
		}
	})

	t.Run("阶段状态切换", func(t *testing.T) {
		s := newTestSession(t)

		s.runStages([]stage{
			{
				name:  "导航",
				state: models.StateNavigating,
				run:   func(*Session) stageResult { return ok() },
			},
		})
		if s.State() != models.StateNavigating {
			t.Errorf("状态应切换到navigating, 实际: %s", s.State())
		}
	})
}

func TestSession_FinishStats(t *testing.T) {
	t.Run("有结果时终态为resolved", func(t *testing.T) {
		s := newTestSession(t)
		s.ObserveRequest("https://v3.douyinvod.com/abc/video/media.mp4")
		s.ObserveResponse("https://v3.douyinvod.com/abc/video/media.mp4")

		items := Assemble(s.FirstHighConfidence(), s.Candidates(), nil)
		s.finishStats(timeNowMinusSecond(), items)

		if s.State() != models.StateResolved {
			t.Errorf("期望终态resolved, 实际: %s", s.State())
		}
		stats := s.Stats()
		if stats.TotalRequests != 1 || stats.TotalResponses != 1 {
			t.Errorf("统计计数不符: 请求%d 响应%d", stats.TotalRequests, stats.TotalResponses)
		}
		if stats.HighConfidence != 1 {
			t.Errorf("高置信候选数应为1, 实际%d", stats.HighConfidence)
		}
		if stats.Duration <= 0 {
			t.Error("耗时应大于0")
		}
	})

	t.Run("无结果时终态为empty", func(t *testing.T) {
		s := newTestSession(t)
		s.finishStats(timeNowMinusSecond(), nil)

		if s.State() != models.StateEmpty {
			t.Errorf("期望终态empty, 实际: %s", s.State())
		}
	})

	t.Run("导航失败时终态为failed", func(t *testing.T) {
		s := newTestSession(t)
		s.navFailed = true
		s.finishStats(timeNowMinusSecond(), nil)

		if s.State() != models.StateFailed {
			t.Errorf("期望终态failed, 实际: %s", s.State())
		}
	})
}

func TestSession_ResolveError(t *testing.T) {
	t.Run("加载双超时零流量返回空结果不报错", func(t *testing.T) {
		// load与DOM就绪都超时,但Navigate本身成功:
		// 会话以failed终态收尾,对调用方不是错误
		s := newTestSession(t)
		s.navFailed = true
		s.navErr = errors.New("load与DOM就绪均未在60s内完成")

		if err := s.resolveError(nil); err != nil {
			t.Errorf("软超时不应上抛错误, 实际: %v", err)
		}

		s.finishStats(timeNowMinusSecond(), nil)
		if s.State() != models.StateFailed {
			t.Errorf("期望终态failed, 实际: %s", s.State())
		}
	})

	t.Run("导航硬失败且零捕获返回页面不可达", func(t *testing.T) {
		s := newTestSession(t)
		s.navFailed = true
		s.navHard = true
		s.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

		err := s.resolveError(nil)
		if err == nil {
			t.Fatal("期望返回错误")
		}
		var navErr *models.NavigationError
		if !errors.As(err, &navErr) {
			t.Fatalf("期望NavigationError, 实际: %T", err)
		}
		if !errors.Is(err, models.ErrPageUnreachable) {
			t.Error("应可识别页面不可达哨兵错误")
		}
	})

	t.Run("导航硬失败但有流量观测不报错", func(t *testing.T) {
		s := newTestSession(t)
		s.navFailed = true
		s.navHard = true
		s.navErr = errors.New("net::ERR_CONNECTION_RESET")
		s.ObserveRequest("https://www.douyin.com/api/detail")

		if err := s.resolveError(nil); err != nil {
			t.Errorf("有观测流量时应尽力返回, 实际: %v", err)
		}
	})

	t.Run("导航硬失败但有结果不报错", func(t *testing.T) {
		s := newTestSession(t)
		s.navFailed = true
		s.navHard = true
		s.navErr = errors.New("net::ERR_CONNECTION_RESET")

		items := []models.VideoItem{
			models.NewVideoItem("https://v3.douyinvod.com/abc/video/m.mp4", 1, models.KindFirstCaptured, "", ""),
		}
		if err := s.resolveError(items); err != nil {
			t.Errorf("有结果时应尽力返回, 实际: %v", err)
		}
	})
}
