package resolver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RecoveryAshes/DouyinSnap/internal/models"
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/go-rod/rod/lib/proto"
)

// 状态机阶段驱动
// 阶段只向前推进,绝不回退。非终态阶段失败后,
// 后续普通阶段全部跳过,标记为always的阶段仍然执行。

type stageStatus int

const (
	stageOK stageStatus = iota
	stageSkipped
	stageFailed
)

// stageResult 单个阶段的执行结果
type stageResult struct {
	status stageStatus
	reason string
}

func ok() stageResult { return stageResult{status: stageOK} }

func skipped(reason string) stageResult { return stageResult{status: stageSkipped, reason: reason} }

func failed(reason string) stageResult { return stageResult{status: stageFailed, reason: reason} }

// stage 状态机中的一个阶段
type stage struct {
	name string
	// state 进入该阶段时切换到的会话状态 (空值不切换)
	state models.SessionState
	// precondition 为nil时无条件执行;返回false时跳过该阶段
	precondition func(*Session) bool
	// always 为true时无视前序失败仍然执行 (终态提取)
	always bool
	run    func(*Session) stageResult
}

// runStages 顺序驱动阶段列表
func (s *Session) runStages(stages []stage) {
	aborted := false
	for _, st := range stages {
		if aborted && !st.always {
			utils.Debugf("阶段[%s]跳过: 前序阶段已失败", st.name)
			s.stats.StagesSkipped++
			continue
		}
		if st.precondition != nil && !st.precondition(s) {
			utils.Infof("阶段[%s]跳过: 已捕获高置信URL", st.name)
			s.stats.StagesSkipped++
			continue
		}
		if st.state != "" {
			s.state = st.state
		}

		s.stats.StagesRun++
		result := st.run(s)
		switch result.status {
		case stageOK:
			utils.Debugf("阶段[%s]完成", st.name)
		case stageSkipped:
			utils.Infof("阶段[%s]跳过: %s", st.name, result.reason)
		case stageFailed:
			utils.Warnf("阶段[%s]失败: %s", st.name, result.reason)
			if !st.always {
				aborted = true
			}
		}
	}
}

// ----- 各阶段实现 -----

// stageNavigate 导航到目标页面
// Navigate本身的硬错误视为页面不可达;
// load与DOM就绪两个完成条件都未在预算内满足时同样判定导航失败,
// 后续普通阶段不再对死页面做升级,仅保留终态的尽力装配
func (s *Session) stageNavigate() stageResult {
	// 导航前随机停留,降低行为指纹
	s.sleepRange(500, 1500)

	utils.Infof("🌐 正在访问页面...")
	if err := s.page.Navigate(s.pageURL); err != nil {
		s.navFailed = true
		s.navHard = true
		s.navErr = err
		return failed("导航错误: " + err.Error())
	}

	navBudget := time.Duration(s.config.NavTimeout) * time.Second
	if err := s.page.Timeout(navBudget).WaitLoad(); err != nil {
		utils.Warnf("页面加载未在%v内完成: %v", navBudget, err)
		// 退而求其次等待DOM就绪,媒体请求可能已经在途
		if !s.waitDOMReady(navBudget) {
			s.navFailed = true
			s.navErr = fmt.Errorf("load与DOM就绪均未在%v内完成", navBudget)
			return failed("页面加载超时: " + s.navErr.Error())
		}
	}
	return ok()
}

// waitDOMReady 轮询document.readyState直到interactive/complete或超时
// 返回DOM是否在预算内就绪
func (s *Session) waitDOMReady(budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		res, err := s.page.Eval(`() => document.readyState`)
		if err == nil {
			state := res.Value.Str()
			if state == "interactive" || state == "complete" {
				utils.Debugf("DOM就绪: %s", state)
				return true
			}
		}
		time.Sleep(time.Second)
	}
	utils.Warnf("DOM在%v内未就绪", budget)
	return false
}

// stagePassiveWait 被动等待媒体请求自然出现
// 每轮之间带随机抖动;任何时刻出现高置信URL立即提前退出
func (s *Session) stagePassiveWait() stageResult {
	// 页面稳定期
	s.sleepRange(2000, 3000)

	for round := 1; round <= s.config.WaitRounds; round++ {
		if s.HasHighConfidence() {
			utils.Infof("第%d轮等待时已捕获高置信URL,提前结束", round)
			return ok()
		}
		utils.Debugf("被动等待第%d/%d轮", round, s.config.WaitRounds)
		s.sleepJitter(time.Duration(s.config.WaitInterval)*time.Second, 500*time.Millisecond)
	}
	return ok()
}

// stageInteract 模拟用户交互诱发媒体加载
// 滚动触发懒加载,点击video元素触发播放器拉流。
// 单个动作失败只记录,不中断阶段
func (s *Session) stageInteract() stageResult {
	utils.Infof("🖱️ 尝试页面交互诱发视频加载...")

	// 滚动到底部再回顶部
	if _, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		utils.Debugf("%v", &models.InteractionError{Action: "scroll", Cause: err})
	}
	s.sleepRange(1500, 2500)
	if s.HasHighConfidence() {
		return ok()
	}
	if _, err := s.page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		utils.Debugf("%v", &models.InteractionError{Action: "scroll", Cause: err})
	}
	s.sleepRange(1500, 2500)
	if s.HasHighConfidence() {
		return ok()
	}

	// 逐个点击video元素
	elements, err := s.page.Elements("video")
	if err != nil {
		utils.Debugf("查找video元素失败: %v", err)
		return ok()
	}
	if len(elements) == 0 {
		return skipped("页面无video元素")
	}
	utils.Debugf("页面包含%d个video元素", len(elements))
	for i, el := range elements {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			// 单个元素点击失败仅记录,继续尝试其余元素
			utils.Debugf("%v", &models.InteractionError{Action: "click", Index: i + 1, Cause: err})
			continue
		}
		// 留出播放器发起拉流的时间
		s.sleepRange(4000, 6000)
		if s.HasHighConfidence() {
			utils.Infof("点击第%d个video元素后捕获高置信URL", i+1)
			return ok()
		}
	}
	return ok()
}

// stageScriptFallback 页面内脚本探测window全局对象与video标签
// 仅在网络观测未产出高置信URL时执行;
// 脚本结果仍需通过分类器判定,不会把任意src当作真视频
func (s *Session) stageScriptFallback() stageResult {
	utils.Infof("🔍 执行页面内脚本探测...")

	res, err := s.page.Eval(fallbackExtractionJS)
	if err != nil {
		extErr := &models.ExtractionError{Stage: "script_fallback", Cause: err}
		return failed(extErr.Error())
	}

	var urls []string
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &urls); err != nil {
		extErr := &models.ExtractionError{Stage: "script_fallback", Cause: err}
		return failed(extErr.Error())
	}

	for _, u := range urls {
		if IsHighConfidence(u) {
			if s.setHighConfidence(u) {
				utils.Infof("🎯 脚本探测命中douyinvod视频: %s", utils.TruncateURL(u, 120))
			}
			return ok()
		}
	}
	utils.Debugf("脚本探测到%d个URL,均非高置信", len(urls))
	return ok()
}

// stageTerminalExtract 终态提取,始终执行一次
// 收割页面最终DOM中的视频要素,作为网络观测的补充来源
func (s *Session) stageTerminalExtract() stageResult {
	res, err := s.page.Eval(terminalExtractionJS)
	if err != nil {
		extErr := &models.ExtractionError{Stage: "terminal", Cause: err}
		return failed(extErr.Error())
	}

	var videos []ExtractedVideo
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &videos); err != nil {
		extErr := &models.ExtractionError{Stage: "terminal", Cause: err}
		return failed(extErr.Error())
	}

	s.extracted = videos
	utils.Debugf("终态提取到%d个候选", len(videos))
	return ok()
}
