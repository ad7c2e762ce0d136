package swarm

import (
	"fmt"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// startListening 启动监听器并等待它报告绑定地址
//
// 只有在时限内观察到该监听器的 EvtNewListenAddr 才将其记为当前监听器；
// 之前的监听器继续运行但不再被跟踪。超时的监听器会被移除。
func (s *Swarm[Req, Res, P]) startListening(addr types.Multiaddr) (types.Multiaddr, error) {
	if addr.IsEmpty() {
		addr = s.config.DefaultListenAddr
	}

	id, err := s.fabric.Listen(addr)
	if err != nil {
		return "", &ListenError{Addr: addr, Err: err}
	}

	w := &waiter{
		name: "listen",
		match: func(evt types.Event) bool {
			switch e := evt.(type) {
			case types.EvtNewListenAddr:
				return e.Listener == id
			case types.EvtListenerClosed:
				return e.Listener == id
			}
			return false
		},
	}

	switch s.await(w, s.config.ListenTimeout) {
	case waitMatched:
		if closed, ok := w.event.(types.EvtListenerClosed); ok {
			cause := closed.Err
			if cause == nil {
				cause = ErrListenerClosed
			}
			return "", &ListenError{Addr: addr, Err: cause}
		}
		bound := w.event.(types.EvtNewListenAddr).Addr
		s.listener = id
		s.hasListener = true
		log.Info("开始监听", "addr", bound, "listener", id)
		return bound, nil

	case waitTimedOut:
		s.fabric.RemoveListener(id)
		return "", &ListenError{Addr: addr, Err: ErrListenTimeout}

	default:
		s.fabric.RemoveListener(id)
		return "", &ListenError{Addr: addr, Err: ErrEventsClosed}
	}
}

// removeListener 关闭当前监听器
func (s *Swarm[Req, Res, P]) removeListener() error {
	if !s.hasListener {
		return ErrNoListener
	}
	id := s.listener
	s.hasListener = false

	if !s.fabric.RemoveListener(id) {
		return fmt.Errorf("%w: %s already closed", ErrNoListener, id)
	}
	log.Info("已移除监听器", "listener", id)
	return nil
}
