package resolver

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/go-rod/rod"
	"github.com/google/uuid"
)

// Session 一次解析会话
// 独占一个浏览器实例和标签页,生命周期仅覆盖单次Resolve调用。
// 候选集合与高置信槽位由网络监听回调写入、由状态机与装配器读取;
// rod事件回调运行在独立goroutine上,所有共享观测状态必须经互斥锁访问。
type Session struct {
	ID      string
	pageURL string
	config  models.ResolveConfig
	profile *StealthProfile

	browser *rod.Browser
	page    *rod.Page

	// 观测状态 (mu保护)
	mu                  sync.Mutex
	candidates          map[string]*models.CandidateResource // 规范化URL -> 候选
	order               []string                             // 规范化URL的首见顺序
	firstHighConfidence string                               // 高置信槽位,只写一次
	totalRequests       int                                  // 诊断计数
	totalResponses      int                                  // 诊断计数

	// 状态机
	state     models.SessionState
	stats     models.ResolveStats
	navFailed bool  // 导航失败标记(硬错误或双超时),驱动FAILED终态
	navHard   bool  // Navigate调用本身失败(页面可能完全不可达)
	navErr    error // 导航底层错误

	// 终态提取输出
	extracted []ExtractedVideo

	rnd *rand.Rand
}

// NewSession 创建解析会话
// 浏览器在Resolve时才启动,创建本身不做I/O
func NewSession(pageURL string, config models.ResolveConfig) *Session {
	return &Session{
		ID:         uuid.New().String(),
		pageURL:    pageURL,
		config:     config,
		profile:    NewStealthProfile(),
		candidates: make(map[string]*models.CandidateResource),
		order:      make([]string, 0),
		state:      models.StateInit,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve 执行完整解析流程
// 所有退出路径(成功/空结果/错误)都保证拆除浏览器会话。
// 返回:
//   - 非空列表(至多1条): 解析成功
//   - 空列表+nil: 页面无视频或导航超时且无任何捕获
//   - 错误: 页面完全不可达等解析器无法控制的情况
func (s *Session) Resolve() ([]models.VideoItem, error) {
	startTime := time.Now()
	utils.Infof("🎬 解析会话启动 [%s]", s.ID[:8])
	utils.Infof("目标页面: %s", utils.TruncateURL(s.pageURL, 120))

	browser, err := launchBrowser(s.profile, s.config.Headless)
	if err != nil {
		return nil, err
	}
	s.browser = browser
	defer s.teardown()

	page, err := newStealthPage(browser, s.profile)
	if err != nil {
		return nil, err
	}
	s.page = page

	// 监听必须在导航前挂载,否则会漏掉页面加载期间的请求
	if err := s.attachObserver(page); err != nil {
		utils.Warnf("挂载网络监听失败: %v", err)
	}

	s.runStages(s.resolutionStages())

	items := Assemble(s.FirstHighConfidence(), s.Candidates(), s.extracted)

	s.finishStats(startTime, items)

	if err := s.resolveError(items); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		utils.Infof("会话结束: 未发现视频 (请求%d/响应%d)", s.stats.TotalRequests, s.stats.TotalResponses)
	} else {
		utils.Infof("✅ 会话结束: %s (%s)", utils.TruncateURL(items[0].SourceURL, 100), items[0].Kind)
	}
	return items, nil
}

// resolutionStages 状态机的有序阶段列表
// 升级阶段(交互/脚本回退)带前置条件: 尚无高置信URL时才执行;
// 终态提取无视前序结果始终执行一次
func (s *Session) resolutionStages() []stage {
	return []stage{
		{
			name:  "导航",
			state: models.StateNavigating,
			run:   (*Session).stageNavigate,
		},
		{
			name:  "被动等待",
			state: models.StatePassiveWait,
			run:   (*Session).stagePassiveWait,
		},
		{
			name:         "页面交互",
			state:        models.StateInteracting,
			precondition: needHighConfidence,
			run:          (*Session).stageInteract,
		},
		{
			name:         "脚本回退",
			state:        models.StateScriptFallback,
			precondition: needHighConfidence,
			run:          (*Session).stageScriptFallback,
		},
		{
			name:   "终态提取",
			always: true,
			run:    (*Session).stageTerminalExtract,
		},
	}
}

// needHighConfidence 升级阶段的前置条件: 还没有高置信URL
func needHighConfidence(s *Session) bool {
	return !s.HasHighConfidence()
}

// teardown 拆除浏览器会话
// 每条退出路径都必须走到这里
func (s *Session) teardown() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			utils.Warnf("关闭浏览器失败: %v", err)
		}
		s.browser = nil
		s.page = nil
		utils.Debugf("浏览器会话已拆除 [%s]", s.ID[:8])
	}
}

// ----- 观测状态访问 (监听回调与状态机共用) -----

// ObserveRequest 处理出站请求
// douyinvod视频请求首次出现时写入高置信槽位(只写一次,不覆盖)
func (s *Session) ObserveRequest(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	if IsHighConfidence(rawURL) && s.firstHighConfidence == "" {
		s.firstHighConfidence = rawURL
		utils.Infof("🎯 捕获首个douyinvod视频请求: %s", utils.TruncateURL(rawURL, 120))
	}
}

// ObserveResponse 处理入站响应
// 通过一般有效性判定的URL进入候选集合(按规范化URL去重,重复添加为no-op)
func (s *Session) ObserveResponse(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalResponses++
	if !IsValidVideo(rawURL) {
		return
	}
	s.addCandidateLocked(rawURL, models.ViaResponse)
}

// addCandidateLocked 添加候选,调用方必须持有s.mu
func (s *Session) addCandidateLocked(rawURL string, via models.ObservedVia) {
	normalized := Normalize(rawURL)
	if _, exists := s.candidates[normalized]; exists {
		return
	}
	s.candidates[normalized] = &models.CandidateResource{
		URL:              rawURL,
		NormalizedURL:    normalized,
		ObservedVia:      via,
		IsHighConfidence: IsHighConfidence(rawURL),
		FirstObservedAt:  time.Now(),
	}
	s.order = append(s.order, normalized)
	if IsHighConfidence(rawURL) {
		utils.Infof("捕获douyinvod视频响应: %s", utils.TruncateURL(rawURL, 100))
	} else {
		utils.Debugf("捕获其他视频URL: %s", utils.TruncateURL(rawURL, 80))
	}
}

// FirstHighConfidence 读取高置信槽位
func (s *Session) FirstHighConfidence() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstHighConfidence
}

// setHighConfidence 状态机侧写入槽位(脚本回退命中时)
// 与监听回调同样遵守first-write-wins
func (s *Session) setHighConfidence(rawURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstHighConfidence != "" {
		return false
	}
	s.firstHighConfidence = rawURL
	return true
}

// HasHighConfidence 槽位已设置,或候选集合中存在高置信URL
// 判定在同一临界区内完成,避免check-then-act竞态
func (s *Session) HasHighConfidence() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstHighConfidence != "" {
		return true
	}
	for _, c := range s.candidates {
		if c.IsHighConfidence {
			return true
		}
	}
	return false
}

// Candidates 按首见顺序返回候选快照
func (s *Session) Candidates() []models.CandidateResource {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.CandidateResource, 0, len(s.order))
	for _, key := range s.order {
		result = append(result, *s.candidates[key])
	}
	return result
}

// Counters 诊断计数快照
func (s *Session) Counters() (requests, responses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRequests, s.totalResponses
}

// resolveError 决定会话是否以错误收尾
// 仅当Navigate本身硬失败且全程零捕获时判定页面不可达;
// 加载双超时(软失败)走尽力装配,空结果不是错误
func (s *Session) resolveError(items []models.VideoItem) error {
	if !s.navHard || len(items) > 0 || s.totalObserved() > 0 {
		return nil
	}
	cause := fmt.Errorf("%w: %v", models.ErrPageUnreachable, s.navErr)
	return &models.NavigationError{URL: s.pageURL, Cause: cause}
}

func (s *Session) totalObserved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRequests + s.totalResponses
}

// Stats 统计快照
func (s *Session) Stats() models.ResolveStats {
	return s.stats
}

// State 当前状态
func (s *Session) State() models.SessionState {
	return s.state
}

// finishStats 结束时填充统计与终态
func (s *Session) finishStats(startTime time.Time, items []models.VideoItem) {
	s.mu.Lock()
	s.stats.TotalRequests = s.totalRequests
	s.stats.TotalResponses = s.totalResponses
	s.stats.CandidatesFound = len(s.candidates)
	high := 0
	for _, c := range s.candidates {
		if c.IsHighConfidence {
			high++
		}
	}
	s.stats.HighConfidence = high
	s.mu.Unlock()

	switch {
	case s.navFailed:
		s.state = models.StateFailed
	case len(items) > 0:
		s.state = models.StateResolved
	default:
		s.state = models.StateEmpty
	}
	s.stats.FinalState = string(s.state)
	s.stats.Duration = time.Since(startTime).Seconds()
}

// ----- 随机延迟辅助 -----

// sleepRange 在[min,max]毫秒间随机停留,模拟人类行为
func (s *Session) sleepRange(minMs, maxMs int) {
	d := time.Duration(minMs+s.rnd.Intn(maxMs-minMs+1)) * time.Millisecond
	time.Sleep(d)
}

// sleepJitter 基准时长加减抖动
func (s *Session) sleepJitter(base time.Duration, jitter time.Duration) {
	offset := time.Duration(s.rnd.Int63n(int64(2*jitter))) - jitter
	time.Sleep(base + offset)
}
