package resolver

import (
	"github.com/RecoveryAshes/DouyinSnap/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// attachObserver 挂载全量网络监听
// 必须在导航之前调用,否则页面加载期间的请求会漏掉。
// EachEvent在独立goroutine上回调,观测方法内部已加锁
func (s *Session) attachObserver(page *rod.Page) error {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return err
	}

	go page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			s.ObserveRequest(e.Request.URL)
		},
		func(e *proto.NetworkResponseReceived) {
			s.ObserveResponse(e.Response.URL)
		},
	)()

	utils.Debugf("网络监听已挂载 [%s]", s.ID[:8])
	return nil
}
