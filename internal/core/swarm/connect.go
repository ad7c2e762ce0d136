package swarm

import (
	"errors"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// pendingReconnect 等待期间观察到的连接断开
type pendingReconnect struct {
	peer types.PeerID
	addr types.Multiaddr
}

// connect 拨号并等待与 peer 的连接建立
//
// 先按已知地址拨号，网络层不知道地址时改用 addr。
// 成功时返回本地作为拨号方的端点。
func (s *Swarm[Req, Res, P]) connect(peer types.PeerID, addr types.Multiaddr) (types.Endpoint, error) {
	fail := func(kind ConnectKind, err error) (types.Endpoint, error) {
		return types.Endpoint{}, &ConnectError{Peer: peer, Addr: addr, Kind: kind, Err: err}
	}

	if err := s.fabric.Dial(peer); err != nil {
		if !errors.Is(err, pkgif.ErrNoAddresses) {
			return fail(ConnectDialFailure, err)
		}
		if addr.IsEmpty() {
			return fail(ConnectNoRoute, err)
		}
		if err := s.fabric.DialAddr(addr); err != nil {
			return fail(ConnectDialFailure, err)
		}
	}

	w := &waiter{
		name: "connect",
		match: func(evt types.Event) bool {
			switch e := evt.(type) {
			case types.EvtConnectionEstablished:
				return e.Peer == peer && e.Endpoint.IsDialer()
			case types.EvtDialFailure:
				return e.Peer == peer || (e.Peer.IsEmpty() && !addr.IsEmpty() && e.Addr == addr)
			}
			return false
		},
	}

	switch s.await(w, s.config.DialTimeout) {
	case waitMatched:
		if f, ok := w.event.(types.EvtDialFailure); ok {
			return fail(ConnectUnreachable, f.Err)
		}
		return w.event.(types.EvtConnectionEstablished).Endpoint, nil
	case waitTimedOut:
		return fail(ConnectTimeout, ErrConnectTimeout)
	default:
		return fail(ConnectUnreachable, ErrEventsClosed)
	}
}

// establish 处理 EstablishConnection：连接成功后以给定保活策略登记
func (s *Swarm[Req, Res, P]) establish(peer types.PeerID, addr types.Multiaddr, keepAlive types.KeepAlive) error {
	endpoint, err := s.connect(peer, addr)
	if err != nil {
		log.Debug("建立连接失败", "peer", peer.ShortString(), "err", err)
		return err
	}

	s.table.Insert(peer, endpoint, keepAlive)
	s.metrics.ConnectionsTracked(s.table.Len())
	log.Info("连接已建立", "peer", peer.ShortString(), "keepalive", keepAlive)
	return nil
}

// setRelay 连接中继并以无限保活登记后才替换配置
func (s *Swarm[Req, Res, P]) setRelay(cfg types.RelayConfig) error {
	if !cfg.Enabled() {
		s.relay = cfg
		log.Info("已关闭中继")
		return nil
	}

	endpoint, err := s.connect(cfg.Peer, cfg.Addr)
	if err != nil {
		log.Warn("中继不可达，保留原配置", "relay", cfg.Peer.ShortString(), "err", err)
		return err
	}

	s.table.Insert(cfg.Peer, endpoint, types.UnlimitedKeepAlive())
	s.metrics.ConnectionsTracked(s.table.Len())
	s.relay = cfg
	log.Info("中继已设置", "relay", cfg)
	return nil
}

// onConnectionEstablished 被动发现的连接以 None 登记，已有记录只更新端点
func (s *Swarm[Req, Res, P]) onConnectionEstablished(e types.EvtConnectionEstablished) {
	keepAlive := types.NoKeepAlive()
	if info, ok := s.table.Get(e.Peer); ok {
		keepAlive = info.KeepAlive
	}
	s.table.Insert(e.Peer, e.Endpoint, keepAlive)
	s.metrics.ConnectionsTracked(s.table.Len())
}

// onConnectionClosed 最后一条连接断开时重连或移除记录
//
// 只有本地拨出且保活有效的连接才重连；处于等待中时推迟到等待结束。
func (s *Swarm[Req, Res, P]) onConnectionClosed(e types.EvtConnectionClosed) {
	if e.NumEstablished > 0 {
		return
	}
	info, ok := s.table.Get(e.Peer)
	if !ok {
		return
	}

	if e.Endpoint.IsDialer() && info.KeepAlive.Active() {
		if s.depth > 0 {
			s.reconnects = append(s.reconnects, pendingReconnect{peer: e.Peer, addr: e.Endpoint.Addr})
			return
		}
		s.reconnect(e.Peer, e.Endpoint.Addr)
		return
	}

	s.table.RemoveConnection(e.Peer)
	s.metrics.ConnectionsTracked(s.table.Len())
	log.Debug("连接已关闭", "peer", e.Peer.ShortString(), "cause", e.Cause)
}

// reconnect 消耗一次保活额度并尝试重连一次，失败则移除记录
func (s *Swarm[Req, Res, P]) reconnect(peer types.PeerID, addr types.Multiaddr) {
	if !s.table.ConsumeKeepAlive(peer) {
		if _, ok := s.table.RemoveConnection(peer); ok {
			s.metrics.ConnectionsTracked(s.table.Len())
		}
		return
	}

	endpoint, err := s.connect(peer, addr)
	s.metrics.ReconnectAttempted(err == nil)
	if err != nil {
		s.table.RemoveConnection(peer)
		s.metrics.ConnectionsTracked(s.table.Len())
		log.Info("重连失败，已移除连接记录", "peer", peer.ShortString(), "err", err)
		return
	}

	if info, ok := s.table.Get(peer); ok {
		s.table.Insert(peer, endpoint, info.KeepAlive)
	}
	log.Info("连接已恢复", "peer", peer.ShortString())
}

// drainReconnects 执行等待期间推迟的重连，只在最外层调用
func (s *Swarm[Req, Res, P]) drainReconnects() {
	for s.depth == 0 && len(s.reconnects) > 0 {
		r := s.reconnects[0]
		s.reconnects = s.reconnects[1:]

		if s.fabric.IsConnected(r.peer) {
			continue
		}
		s.reconnect(r.peer, r.addr)
	}
}
