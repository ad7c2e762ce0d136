package netfabric

import (
	"context"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// dial 拨号并登记连接；失败时发出 EvtDialFailure
func (n *Node[Req, Res]) dial(expect types.PeerID, addr types.Multiaddr) (*connEntry, error) {
	fail := func(err error) (*connEntry, error) {
		log.Debug("拨号失败", "peer", expect.ShortString(), "addr", addr, "err", err)
		n.emit(types.EvtDialFailure{Peer: expect, Addr: addr, Err: err})
		return nil, err
	}

	tr, err := n.tm.TransportFor(addr)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(n.ctx, n.tm.DialTimeout())
	defer cancel()
	c, err := tr.Dial(ctx, addr, expect)
	if err != nil {
		return fail(err)
	}

	remote := c.RemotePeer()
	if remote == n.local {
		_ = c.Close()
		return fail(ErrDialSelf)
	}
	if !n.gater.InterceptSecured(remote) {
		_ = c.Close()
		return fail(connmgr.ErrPeerBlocked)
	}

	n.addrs.Add(remote, addr)
	e, ok := n.addConn(c, types.DialerEndpoint(addr))
	if !ok {
		_ = c.Close()
		return fail(pkgif.ErrFabricClosed)
	}
	return e, nil
}

// acceptLoop 接受入站连接，直到监听器关闭
func (n *Node[Req, Res]) acceptLoop(le *listenerEntry) {
	for {
		c, err := le.l.Accept(n.ctx)
		if err != nil {
			n.mu.Lock()
			_, ours := n.listeners[le.id]
			if ours {
				// 非主动移除：监听器自行失效
				delete(n.listeners, le.id)
				n.emit(types.EvtListenerClosed{Listener: le.id, Addrs: []types.Multiaddr{le.l.Addr()}, Err: err})
			}
			n.mu.Unlock()

			if ours {
				log.Warn("监听器异常关闭", "listener", le.id, "err", err)
				_ = le.l.Close()
			}
			return
		}
		n.accepted(c)
	}
}

func (n *Node[Req, Res]) accepted(c pkgif.Conn) {
	remote := c.RemotePeer()
	if !n.gater.InterceptAccept(c.RemoteAddr()) || !n.gater.InterceptSecured(remote) {
		log.Debug("拒绝入站连接", "peer", remote.ShortString(), "addr", c.RemoteAddr())
		_ = c.Close()
		return
	}
	if _, ok := n.addConn(c, types.ListenerEndpoint(c.RemoteAddr())); !ok {
		_ = c.Close()
	}
}

// addConn 登记连接、发出 EvtConnectionEstablished 并开始服务入站流
func (n *Node[Req, Res]) addConn(c pkgif.Conn, endpoint types.Endpoint) (*connEntry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, false
	}

	peer := c.RemotePeer()
	e := &connEntry{conn: c, endpoint: endpoint}
	n.conns[peer] = append(n.conns[peer], e)
	n.emit(types.EvtConnectionEstablished{
		Peer:           peer,
		Endpoint:       endpoint,
		NumEstablished: len(n.conns[peer]),
	})
	n.spawnLocked(func() { n.serveConn(e) })

	log.Debug("连接已建立", "peer", peer.ShortString(), "endpoint", endpoint)
	return e, true
}

// serveConn 为连接上的每条入站流启动处理，连接结束后注销
func (n *Node[Req, Res]) serveConn(e *connEntry) {
	for {
		s, err := e.conn.AcceptStream(n.ctx)
		if err != nil {
			break
		}
		if !n.spawn(func() { n.handleStream(e, s) }) {
			_ = s.Reset()
			break
		}
	}
	n.removeConn(e)
}

// removeConn 注销连接并发出 EvtConnectionClosed，等待中的入站请求以连接关闭失败
func (n *Node[Req, Res]) removeConn(e *connEntry) {
	_ = e.conn.Close()
	peer := e.conn.RemotePeer()

	n.mu.Lock()
	entries := n.conns[peer]
	idx := -1
	for i, x := range entries {
		if x == e {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	if len(entries) == 0 {
		delete(n.conns, peer)
	} else {
		n.conns[peer] = entries
	}
	n.emit(types.EvtConnectionClosed{
		Peer:           peer,
		Endpoint:       e.endpoint,
		NumEstablished: len(entries),
		Cause:          e.cause,
	})
	remaining := len(entries)
	n.mu.Unlock()

	n.failPendingFor(e)
	if remaining == 0 && n.limiter != nil {
		n.limiter.Forget(peer)
	}
	log.Debug("连接已关闭", "peer", peer.ShortString(), "remaining", remaining)
}

// closeConns 主动关闭与 peer 的所有连接；事件由各连接的服务 goroutine 发出
func (n *Node[Req, Res]) closeConns(peer types.PeerID, cause error) error {
	n.mu.Lock()
	entries := append([]*connEntry(nil), n.conns[peer]...)
	for _, e := range entries {
		if e.cause == nil {
			e.cause = cause
		}
	}
	n.mu.Unlock()

	for _, e := range entries {
		_ = e.conn.Close()
	}
	return nil
}

// connTo 返回与 peer 最新的一条连接
func (n *Node[Req, Res]) connTo(peer types.PeerID) *connEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	entries := n.conns[peer]
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

// connFor 返回可用连接，没有时按地址簿拨号
func (n *Node[Req, Res]) connFor(peer types.PeerID) (*connEntry, error) {
	if e := n.connTo(peer); e != nil {
		return e, nil
	}
	if !n.gater.InterceptPeerDial(peer) {
		return nil, connmgr.ErrPeerBlocked
	}
	addr, ok := n.addrs.Get(peer)
	if !ok {
		return nil, pkgif.ErrNoAddresses
	}
	return n.dial(peer, addr)
}
