// Package addrutil 提供地址解析工具
//
// 完整地址在可拨号 multiaddr 后追加 /p2p/<PeerID>，
// 用于命令行参数、配置文件与用户间分享节点地址。
package addrutil

import (
	"errors"
	"strings"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

const p2pComponent = "/p2p/"

var (
	// ErrMissingPeerID 缺少 /p2p/<PeerID> 后缀
	ErrMissingPeerID = errors.New("missing /p2p/<PeerID> suffix")
	// ErrInvalidPeerID 无效的 PeerID
	ErrInvalidPeerID = errors.New("invalid peer ID in address")
	// ErrPeerIDNotAtEnd /p2p/<PeerID> 不在地址末尾
	ErrPeerIDNotAtEnd = errors.New("/p2p/<PeerID> must be at the end of address")
	// ErrEmptyAddress 空地址
	ErrEmptyAddress = errors.New("empty address")
	// ErrPeerIDConflict 地址已包含不同的 PeerID
	ErrPeerIDConflict = errors.New("address already contains different peer ID")
)

// ParseFullAddr 解析完整地址
//
//	/ip4/1.2.3.4/tcp/4001/p2p/<PeerID>
//	/ip4/1.2.3.4/udp/4001/quic-v1/p2p/<PeerID>
//
// 返回对端 ID 与去掉后缀的可拨号地址。
func ParseFullAddr(full string) (types.PeerID, types.Multiaddr, error) {
	full = strings.TrimSpace(full)
	if full == "" {
		return types.EmptyPeerID, "", ErrEmptyAddress
	}

	idx := strings.LastIndex(full, p2pComponent)
	if idx == -1 {
		return types.EmptyPeerID, "", ErrMissingPeerID
	}
	idStr := full[idx+len(p2pComponent):]
	if strings.Contains(idStr, "/") {
		return types.EmptyPeerID, "", ErrPeerIDNotAtEnd
	}

	peer, err := types.ParsePeerID(idStr)
	if err != nil {
		return types.EmptyPeerID, "", ErrInvalidPeerID
	}
	addr, err := types.ParseMultiaddr(full[:idx])
	if err != nil {
		return types.EmptyPeerID, "", err
	}
	return peer, addr, nil
}

// BuildFullAddr 构建完整地址
//
// 地址已包含 /p2p/<PeerID> 时，与 peer 一致则原样返回，否则报错。
func BuildFullAddr(addr types.Multiaddr, peer types.PeerID) (string, error) {
	if addr.IsEmpty() {
		return "", ErrEmptyAddress
	}
	if peer.IsEmpty() {
		return "", ErrInvalidPeerID
	}

	s := addr.String()
	if HasPeerID(s) {
		existing, _, err := ParseFullAddr(s)
		if err != nil {
			return "", err
		}
		if existing != peer {
			return "", ErrPeerIDConflict
		}
		return s, nil
	}
	return s + p2pComponent + peer.String(), nil
}

// StripPeerID 移除末尾的 /p2p/<PeerID>，没有时返回原地址
func StripPeerID(addr string) string {
	idx := strings.LastIndex(addr, p2pComponent)
	if idx == -1 || strings.Contains(addr[idx+len(p2pComponent):], "/") {
		return addr
	}
	return addr[:idx]
}

// HasPeerID 检查地址末尾是否为 /p2p/<PeerID>
func HasPeerID(addr string) bool {
	idx := strings.LastIndex(addr, p2pComponent)
	return idx != -1 && !strings.Contains(addr[idx+len(p2pComponent):], "/")
}
