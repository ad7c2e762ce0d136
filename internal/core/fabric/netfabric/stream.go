package netfabric

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	mss "github.com/multiformats/go-multistream"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// ============================================================================
//                              出站请求
// ============================================================================

// SendRequest 实现 Fabric
//
// 未连接时按地址簿拨号；拨号失败以 OutboundDialFailure 结束请求。
func (n *Node[Req, Res]) SendRequest(peer types.PeerID, env types.RequestEnvelope[Req]) types.RequestID {
	id := types.NewRequestID()
	if !n.spawn(func() { n.outbound(peer, id, env) }) {
		n.emit(types.EvtOutboundFailure{Peer: peer, RequestID: id, Failure: types.OutboundConnectionClosed})
	}
	return id
}

func (n *Node[Req, Res]) outbound(peer types.PeerID, id types.RequestID, env types.RequestEnvelope[Req]) {
	fail := func(f types.OutboundFailure, err error) {
		log.Debug("出站请求失败", "peer", peer.ShortString(), "request", id, "failure", f, "err", err)
		n.emit(types.EvtOutboundFailure{Peer: peer, RequestID: id, Failure: f})
	}

	payload, err := n.codec.EncodeRequest(env.Message)
	if err != nil {
		fail(types.OutboundUnsupportedProtocols, err)
		return
	}
	body := requestFrame{source: env.Source, target: env.Target, payload: payload}.marshal()

	e, err := n.connFor(peer)
	if err != nil {
		fail(types.OutboundDialFailure, err)
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, n.cfg.RequestTimeout)
	defer cancel()
	resp, err := n.roundTrip(ctx, e.conn, body)
	if err != nil {
		fail(outboundFailure(err), err)
		return
	}

	raw, err := unmarshalResponse(resp)
	if err != nil {
		fail(types.OutboundUnsupportedProtocols, err)
		return
	}
	res, err := n.codec.DecodeResponse(raw)
	if err != nil {
		fail(types.OutboundUnsupportedProtocols, err)
		return
	}
	n.emit(types.EvtResponse[Res]{Peer: peer, RequestID: id, Response: res})
}

// roundTrip 开流、协商协议、写请求帧并读回响应帧
func (n *Node[Req, Res]) roundTrip(ctx context.Context, c pkgif.Conn, body []byte) ([]byte, error) {
	s, err := c.OpenStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if d, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(d)
	}

	if err := mss.SelectProtoOrFail(ProtocolID, s); err != nil {
		_ = s.Reset()
		var ns mss.ErrNotSupported[string]
		if errors.As(err, &ns) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, err)
		}
		return nil, fmt.Errorf("select protocol: %w", err)
	}

	if err := writeFrame(s, body); err != nil {
		_ = s.Reset()
		return nil, fmt.Errorf("write request: %w", err)
	}
	if err := s.CloseWrite(); err != nil {
		_ = s.Reset()
		return nil, fmt.Errorf("close write: %w", err)
	}
	n.reportSent(len(body), c.RemotePeer())

	resp, err := readFrame(s, n.cfg.MaxFrameSize)
	if err != nil {
		_ = s.Reset()
		return nil, fmt.Errorf("read response: %w", err)
	}
	n.reportRecv(len(resp), c.RemotePeer())
	_ = s.Close()
	return resp, nil
}

// outboundFailure 把流错误映射为出站失败原因
func outboundFailure(err error) types.OutboundFailure {
	var ne net.Error
	switch {
	case errors.Is(err, ErrUnsupportedProtocol), errors.Is(err, ErrMalformedFrame), errors.Is(err, ErrFrameTooLarge):
		return types.OutboundUnsupportedProtocols
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return types.OutboundTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return types.OutboundTimeout
	default:
		return types.OutboundConnectionClosed
	}
}

// ============================================================================
//                              入站请求
// ============================================================================

// handleStream 处理一条入站流
//
// 目标是本节点（或未启用中继服务）时登记为待响应请求并发出
// EvtInboundRequest，流保持打开直到 SendResponse 或过期。
func (n *Node[Req, Res]) handleStream(e *connEntry, s pkgif.Stream) {
	peer := e.conn.RemotePeer()
	_ = s.SetDeadline(time.Now().Add(n.cfg.RequestTimeout))

	if _, _, err := n.mux.Negotiate(s); err != nil {
		log.Debug("入站流协议协商失败", "peer", peer.ShortString(), "err", err)
		_ = s.Reset()
		n.emit(types.EvtInboundFailure{Peer: peer, RequestID: types.NewRequestID(), Failure: types.InboundUnsupportedProtocols})
		return
	}

	body, err := readFrame(s, n.cfg.MaxFrameSize)
	if err != nil {
		log.Debug("读取请求帧失败", "peer", peer.ShortString(), "err", err)
		_ = s.Reset()
		return
	}
	n.reportRecv(len(body), peer)

	f, err := unmarshalRequest(body)
	if err != nil {
		log.Debug("请求帧无效", "peer", peer.ShortString(), "err", err)
		_ = s.Reset()
		return
	}

	if n.limiter != nil && f.target != n.local.String() {
		n.forward(peer, s, f.target, body)
		return
	}

	msg, err := n.codec.DecodeRequest(f.payload)
	if err != nil {
		log.Debug("请求载荷解码失败", "peer", peer.ShortString(), "err", err)
		_ = s.Reset()
		n.emit(types.EvtInboundFailure{Peer: peer, RequestID: types.NewRequestID(), Failure: types.InboundUnsupportedProtocols})
		return
	}

	// 响应写入另设时限
	_ = s.SetDeadline(time.Time{})

	id := types.NewRequestID()
	n.pending.Add(id, &inbound{peer: peer, conn: e, stream: s})
	n.emit(types.EvtInboundRequest[Req]{
		Peer:      peer,
		RequestID: id,
		Envelope:  types.RequestEnvelope[Req]{Source: f.source, Target: f.target, Message: msg},
	})
}

// forward 把请求帧原样转发给目标，并把响应帧写回
func (n *Node[Req, Res]) forward(src types.PeerID, s pkgif.Stream, target string, body []byte) {
	if err := n.limiter.AllowCircuit(src); err != nil {
		st := n.limiter.Stats()
		log.Debug("中继转发被限流", "src", src.ShortString(), "err", err,
			"circuits", st.TotalCircuits, "peers", st.UniquePeers)
		_ = s.Reset()
		return
	}
	defer n.limiter.ReleaseCircuit(src)

	dst, err := types.ParsePeerID(target)
	if err != nil {
		_ = s.Reset()
		return
	}
	e := n.connTo(dst)
	if e == nil {
		log.Debug("中继目标不可达", "src", src.ShortString(), "target", dst.ShortString())
		_ = s.Reset()
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, n.cfg.RequestTimeout)
	defer cancel()
	resp, err := n.roundTrip(ctx, e.conn, body)
	if err != nil {
		log.Debug("中继转发失败", "src", src.ShortString(), "target", dst.ShortString(), "err", err)
		_ = s.Reset()
		return
	}

	if err := writeFrame(s, resp); err != nil {
		_ = s.Reset()
		return
	}
	n.reportSent(len(resp), src)
	_ = s.CloseWrite()
	_ = s.Close()
}

// SendResponse 实现 Fabric
//
// 编码在调用方 goroutine 中完成，写入在后台进行；写入失败时发出
// EvtInboundFailure。
func (n *Node[Req, Res]) SendResponse(id types.RequestID, res Res) error {
	in, ok := n.pending.Peek(id)
	if !ok || !in.answered.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	n.pending.Remove(id)

	payload, err := n.codec.EncodeResponse(res)
	if err != nil {
		_ = in.stream.Reset()
		return fmt.Errorf("encode response: %w", err)
	}
	body := marshalResponse(payload)

	if !n.spawn(func() { n.writeResponse(id, in, body) }) {
		_ = in.stream.Reset()
		return pkgif.ErrFabricClosed
	}
	return nil
}

func (n *Node[Req, Res]) writeResponse(id types.RequestID, in *inbound, body []byte) {
	_ = in.stream.SetDeadline(time.Now().Add(n.cfg.RequestTimeout))
	if err := writeFrame(in.stream, body); err != nil {
		log.Debug("响应写入失败", "peer", in.peer.ShortString(), "request", id, "err", err)
		_ = in.stream.Reset()
		n.emit(types.EvtInboundFailure{Peer: in.peer, RequestID: id, Failure: types.InboundConnectionClosed})
		return
	}
	n.reportSent(len(body), in.peer)
	_ = in.stream.CloseWrite()
	_ = in.stream.Close()
}

// onPendingEvicted 入站请求过期未响应
func (n *Node[Req, Res]) onPendingEvicted(id types.RequestID, in *inbound) {
	if !in.answered.CompareAndSwap(false, true) {
		return
	}
	_ = in.stream.Reset()
	n.emit(types.EvtInboundFailure{Peer: in.peer, RequestID: id, Failure: types.InboundTimeout})
}

// failPendingFor 连接关闭后，其上等待响应的请求以连接关闭失败
func (n *Node[Req, Res]) failPendingFor(e *connEntry) {
	for _, id := range n.pending.Keys() {
		in, ok := n.pending.Peek(id)
		if !ok || in.conn != e || !in.answered.CompareAndSwap(false, true) {
			continue
		}
		n.pending.Remove(id)
		n.emit(types.EvtInboundFailure{Peer: in.peer, RequestID: id, Failure: types.InboundConnectionClosed})
	}
}
