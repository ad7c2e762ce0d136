package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// FirewallConfig 默认防火墙规则
//
// 取值 "all"（允许所有请求种类）、"none"（拒绝所有），
// 或十进制/0x 十六进制位掩码。
type FirewallConfig struct {
	DefaultInbound  string `json:"default_inbound"`
	DefaultOutbound string `json:"default_outbound"`

	// BlockedIPs 拒绝拨号与接入的远端 IP
	BlockedIPs []string `json:"blocked_ips,omitempty"`
}

// DefaultFirewallConfig 默认双向全部放行
func DefaultFirewallConfig() FirewallConfig {
	return FirewallConfig{
		DefaultInbound:  "all",
		DefaultOutbound: "all",
	}
}

// Validate 验证防火墙配置
func (c FirewallConfig) Validate() error {
	if _, err := ParsePermission(c.DefaultInbound); err != nil {
		return fmt.Errorf("firewall: default_inbound: %w", err)
	}
	if _, err := ParsePermission(c.DefaultOutbound); err != nil {
		return fmt.Errorf("firewall: default_outbound: %w", err)
	}
	for _, ip := range c.BlockedIPs {
		if net.ParseIP(strings.TrimSpace(ip)) == nil {
			return fmt.Errorf("firewall: blocked_ips: invalid ip %q", ip)
		}
	}
	return nil
}

// Inbound 返回入站默认规则，无效值按 "all" 处理
func (c FirewallConfig) Inbound() types.FirewallPermission {
	p, err := ParsePermission(c.DefaultInbound)
	if err != nil {
		return types.PermissionAll
	}
	return p
}

// Outbound 返回出站默认规则，无效值按 "all" 处理
func (c FirewallConfig) Outbound() types.FirewallPermission {
	p, err := ParsePermission(c.DefaultOutbound)
	if err != nil {
		return types.PermissionAll
	}
	return p
}

// ParsePermission 解析权限字符串
func ParsePermission(s string) (types.FirewallPermission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "allow":
		return types.PermissionAll, nil
	case "none", "deny":
		return types.PermissionNone, nil
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return types.PermissionNone, fmt.Errorf("invalid permission %q", s)
	}
	return types.FirewallPermission(v), nil
}
