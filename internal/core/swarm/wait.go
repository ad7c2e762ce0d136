package swarm

import (
	"time"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// waitState 等待状态
type waitState int

const (
	waitPending waitState = iota
	waitMatched
	waitTimedOut
	// waitClosed 事件流已结束
	waitClosed
)

// waiter 一次阻塞等待
//
// match 只认领自己期待的事件（按请求 ID、监听器 ID 或对端精确匹配），
// 其余事件照常交给 handleEvent，不会因为等待而丢失。
type waiter struct {
	name  string
	match func(types.Event) bool

	state waitState
	event types.Event
}

// await 消费网络事件直到 w 匹配、超时或事件流结束
//
// 截止时间从等待开始计算。超时不取消网络层中的操作，迟到的事件
// 不会匹配之后的等待，只会落入 handleEvent。
func (s *Swarm[Req, Res, P]) await(w *waiter, timeout time.Duration) waitState {
	s.depth++
	defer func() { s.depth-- }()

	timer := s.clock.Timer(timeout)
	defer timer.Stop()

	for w.state == waitPending {
		if s.events == nil {
			w.state = waitClosed
			break
		}

		select {
		case evt, ok := <-s.events:
			if !ok {
				s.eventsClosed()
				continue
			}
			if w.match(evt) {
				w.state = waitMatched
				w.event = evt
				continue
			}
			s.handleEvent(evt)

		case <-timer.C:
			w.state = waitTimedOut
		}
	}

	if w.state != waitMatched {
		log.Debug("等待未完成", "wait", w.name, "state", w.state)
	}
	return w.state
}

// String 返回状态名称
func (w waitState) String() string {
	switch w {
	case waitPending:
		return "pending"
	case waitMatched:
		return "matched"
	case waitTimedOut:
		return "timed_out"
	default:
		return "closed"
	}
}
