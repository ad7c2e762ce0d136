package swarm

import (
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	"github.com/dep2p/go-p2pcomm/internal/core/relay"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// 请求结果标签
const (
	outcomeOK              = "ok"
	outcomeRejectedLocal   = "rejected_local"
	outcomeRejectedRemote  = "rejected_remote"
	outcomeInboundFailure  = "inbound_failure"
	outcomeOutboundFailure = "outbound_failure"

	inboundWrongTarget = "wrong_target"
	inboundBadSource   = "bad_source"
	inboundUntrusted   = "untrusted"
	inboundRejected    = "rejected"
	inboundNoResponse  = "no_response"
	inboundSendFailed  = "send_failed"
	inboundAnswered    = "answered"
)

// request 处理 RequestMsg：出站防火墙检查后按中继配置发送
func (s *Swarm[Req, Res, P]) request(peer types.PeerID, req Req) (Res, error) {
	if !firewall.Permits(s.firewall, req.PermissionKind(), peer, types.DirOutbound) {
		var zero Res
		s.metrics.RequestCompleted(outcomeRejectedLocal)
		if req.PermissionKind().Permission() == 0 {
			log.Warn("请求种类没有权限位，始终被拒绝", "kind", req.PermissionKind())
		} else {
			log.Debug("出站请求被本地防火墙拒绝", "peer", peer.ShortString())
		}
		return zero, &RejectedError{By: BlockedLocal}
	}

	env := types.NewEnvelope(s.LocalPeer(), peer, req)
	plan := relay.Route(s.relay, peer)

	res, err := s.sendEnvelope(plan.Primary, env)
	if err != nil && relay.ShouldFallback(plan, err) {
		log.Debug("直连拨号失败，经中继重试", "peer", peer.ShortString(), "relay", plan.Fallback.ShortString())
		res, err = s.sendEnvelope(plan.Fallback, env)
	}

	s.metrics.RequestCompleted(requestOutcome(err))
	return res, err
}

// sendEnvelope 发送信封并等待同一请求 ID 的响应或失败
//
// 时限内没有结果时报告为远端拒绝。
func (s *Swarm[Req, Res, P]) sendEnvelope(peer types.PeerID, env types.RequestEnvelope[Req]) (Res, error) {
	var zero Res
	id := s.fabric.SendRequest(peer, env)

	w := &waiter{
		name: "request",
		match: func(evt types.Event) bool {
			switch e := evt.(type) {
			case types.EvtResponse[Res]:
				return e.RequestID == id
			case types.EvtInboundFailure:
				return e.RequestID == id
			case types.EvtOutboundFailure:
				return e.RequestID == id
			}
			return false
		},
	}

	if s.await(w, s.config.RequestTimeout) != waitMatched {
		return zero, &RejectedError{By: BlockedRemote}
	}

	switch e := w.event.(type) {
	case types.EvtResponse[Res]:
		return e.Response, nil
	case types.EvtInboundFailure:
		return zero, &InboundError{Peer: peer, Failure: e.Failure}
	case types.EvtOutboundFailure:
		return zero, &OutboundError{Peer: peer, Failure: e.Failure}
	}
	return zero, &RejectedError{By: BlockedRemote}
}

// handleInbound 处理入站信封
//
// 目标不是本节点、来源无法解析、发送方不可信或防火墙拒绝时静默丢弃，
// 不向发送方回复任何内容。
func (s *Swarm[Req, Res, P]) handleInbound(e types.EvtInboundRequest[Req]) {
	env := e.Envelope

	if !env.IsAddressedTo(s.LocalPeer()) {
		s.dropInbound(inboundWrongTarget, e)
		return
	}

	source, err := env.SourcePeer()
	if err != nil {
		s.dropInbound(inboundBadSource, e)
		return
	}

	direct := e.Peer == source && s.table.IsActiveConnection(source)
	if !direct && !relay.IsRelayPeer(s.relay, e.Peer) {
		s.dropInbound(inboundUntrusted, e)
		return
	}

	if !firewall.Permits(s.firewall, env.Message.PermissionKind(), source, types.DirInbound) {
		s.dropInbound(inboundRejected, e)
		return
	}

	res, ok := s.askClient(env.Message)
	if !ok {
		s.metrics.InboundHandled(inboundNoResponse)
		return
	}

	if err := s.fabric.SendResponse(e.RequestID, res); err != nil {
		s.metrics.InboundHandled(inboundSendFailed)
		log.Debug("发送响应失败", "peer", e.Peer.ShortString(), "err", err)
		return
	}
	s.metrics.InboundHandled(inboundAnswered)
}

func (s *Swarm[Req, Res, P]) dropInbound(reason string, e types.EvtInboundRequest[Req]) {
	s.metrics.InboundHandled(reason)
	log.Debug("丢弃入站请求", "reason", reason, "sender", e.Peer.ShortString(), "source", e.Envelope.Source)
}

func requestOutcome(err error) string {
	switch err.(type) {
	case nil:
		return outcomeOK
	case *RejectedError:
		return outcomeRejectedRemote
	case *InboundError:
		return outcomeInboundFailure
	default:
		return outcomeOutboundFailure
	}
}
