package types

import (
	"fmt"
	"strings"
)

// RelayMode 中继模式
type RelayMode int

const (
	// RelayModeNone 不使用中继
	RelayModeNone RelayMode = iota
	// RelayModeAlways 所有出站请求都经中继发送
	RelayModeAlways
	// RelayModeBackup 直连拨号失败时经中继重试
	RelayModeBackup
)

// String 返回中继模式的字符串表示
func (m RelayMode) String() string {
	switch m {
	case RelayModeAlways:
		return "always"
	case RelayModeBackup:
		return "backup"
	default:
		return "none"
	}
}

// ParseRelayMode 解析中继模式名称
func ParseRelayMode(s string) (RelayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no":
		return RelayModeNone, nil
	case "always":
		return RelayModeAlways, nil
	case "backup":
		return RelayModeBackup, nil
	default:
		return RelayModeNone, fmt.Errorf("unknown relay mode %q", s)
	}
}

// RelayConfig 中继配置
//
// Mode 为 None 时 Peer/Addr 无意义。
type RelayConfig struct {
	Mode RelayMode
	Peer PeerID
	Addr Multiaddr
}

// NoRelay 不使用中继
func NoRelay() RelayConfig {
	return RelayConfig{}
}

// RelayAlways 始终经 peer 中继
func RelayAlways(peer PeerID, addr Multiaddr) RelayConfig {
	return RelayConfig{Mode: RelayModeAlways, Peer: peer, Addr: addr}
}

// RelayBackup 直连失败时经 peer 中继
func RelayBackup(peer PeerID, addr Multiaddr) RelayConfig {
	return RelayConfig{Mode: RelayModeBackup, Peer: peer, Addr: addr}
}

// Enabled 是否配置了中继
func (c RelayConfig) Enabled() bool {
	return c.Mode != RelayModeNone
}

// String 返回中继配置的字符串表示
func (c RelayConfig) String() string {
	if !c.Enabled() {
		return "none"
	}
	return c.Mode.String() + "(" + c.Peer.ShortString() + "@" + c.Addr.String() + ")"
}
