package relay

import (
	"errors"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Plan 一次出站发送的目的地
type Plan struct {
	// Primary 首次发送的节点
	Primary types.PeerID

	// Fallback 首次发送拨号失败后重试的节点，仅 HasFallback 时有效
	Fallback    types.PeerID
	HasFallback bool
}

// Route 计算发往 target 的路由
func Route(cfg types.RelayConfig, target types.PeerID) Plan {
	switch cfg.Mode {
	case types.RelayModeAlways:
		return Plan{Primary: cfg.Peer}
	case types.RelayModeBackup:
		if cfg.Peer == target {
			// 中继即目标时重试走同一路径，不设后备
			return Plan{Primary: target}
		}
		return Plan{Primary: target, Fallback: cfg.Peer, HasFallback: true}
	default:
		return Plan{Primary: target}
	}
}

// ShouldFallback 首次发送失败后是否经中继重试
//
// 只有出站拨号失败才重试，其他失败原样返回。
func ShouldFallback(plan Plan, failure error) bool {
	if !plan.HasFallback {
		return false
	}
	var f types.OutboundFailure
	return errors.As(failure, &f) && f == types.OutboundDialFailure
}

// IsRelayPeer sender 是否为当前配置的中继节点
func IsRelayPeer(cfg types.RelayConfig, sender types.PeerID) bool {
	return cfg.Enabled() && cfg.Peer == sender
}
