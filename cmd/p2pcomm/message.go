package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dep2p/go-p2pcomm/internal/util/addrutil"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Kind 演示节点的请求种类
type Kind uint32

const (
	// KindPing 探活，应答 "pong"
	KindPing Kind = 1 << iota
	// KindEcho 原样返回文本
	KindEcho
)

// Permission 实现 types.PermissionKind
func (k Kind) Permission() uint32 { return uint32(k) }

// String 返回种类名称
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindEcho:
		return "echo"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Message 演示节点的请求
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// PermissionKind 实现 types.Request
func (m Message) PermissionKind() Kind { return m.Kind }

// handle 本地请求处理
func handle(_ context.Context, m Message) (string, error) {
	switch m.Kind {
	case KindPing:
		return "pong", nil
	case KindEcho:
		return m.Text, nil
	default:
		return "", fmt.Errorf("unsupported kind %s", m.Kind)
	}
}

// parseTarget 解析 <peer>@<multiaddr> 或完整地址 <multiaddr>/p2p/<peer>
func parseTarget(s string) (types.PeerID, types.Multiaddr, error) {
	if addrutil.HasPeerID(s) {
		return addrutil.ParseFullAddr(s)
	}
	peerStr, addrStr, ok := strings.Cut(s, "@")
	if !ok || peerStr == "" || addrStr == "" {
		return types.EmptyPeerID, "", fmt.Errorf("expected <peer>@<addr> or <addr>/p2p/<peer>, got %q", s)
	}
	peer, err := types.ParsePeerID(peerStr)
	if err != nil {
		return types.EmptyPeerID, "", err
	}
	addr, err := types.ParseMultiaddr(addrStr)
	if err != nil {
		return types.EmptyPeerID, "", err
	}
	return peer, addr, nil
}

// splitList 拆分逗号分隔的列表，忽略空项
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
