package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ============================================================================
//                              Multiaddr - 统一地址类型
// ============================================================================

// Multiaddr 统一地址类型（值对象）
//
// 约束：String() 始终返回以 "/" 开头的规范形式。
//
// 支持的格式：
//   - /ip4/127.0.0.1/tcp/4001
//   - /ip6/::1/udp/4001/quic-v1
//   - /dns4/example.com/tcp/4001
//   - /memory/node-a
type Multiaddr string

// 传输协议名
const (
	TransportTCP    = "tcp"
	TransportQUIC   = "quic-v1"
	TransportMemory = "memory"
)

// Multiaddr 错误定义
var (
	// ErrInvalidMultiaddr 无效的 multiaddr 格式
	ErrInvalidMultiaddr = errors.New("invalid multiaddr format")

	// ErrEmptyMultiaddr 空 multiaddr
	ErrEmptyMultiaddr = errors.New("empty multiaddr")

	// ErrNotMultiaddrFormat 不以 / 开头
	ErrNotMultiaddrFormat = errors.New("not multiaddr format: must start with /")

	// ErrMissingTransport 缺少传输协议
	ErrMissingTransport = errors.New("missing transport protocol")
)

// ParseMultiaddr 解析并校验 multiaddr
func ParseMultiaddr(s string) (Multiaddr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMultiaddr
	}
	if !strings.HasPrefix(s, "/") {
		return "", ErrNotMultiaddrFormat
	}

	ma := Multiaddr(strings.TrimSuffix(s, "/"))
	if ma.Transport() == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingTransport, s)
	}
	if ma.Transport() != TransportMemory {
		if _, _, err := ma.HostPort(); err != nil {
			return "", err
		}
	}
	return ma, nil
}

// MustParseMultiaddr 解析失败时 panic，仅用于常量初始化和测试
func MustParseMultiaddr(s string) Multiaddr {
	ma, err := ParseMultiaddr(s)
	if err != nil {
		panic(fmt.Sprintf("MustParseMultiaddr(%q): %v", s, err))
	}
	return ma
}

// FromNetAddr 从 net.Addr 构造 multiaddr
//
// transport 为 TransportTCP 或 TransportQUIC。
func FromNetAddr(addr net.Addr, transport string) (Multiaddr, error) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("%w: bad port %q", ErrInvalidMultiaddr, portStr)
	}
	return FromHostPort(host, port, transport)
}

// FromHostPort 从 host:port 创建 multiaddr
func FromHostPort(host string, port int, transport string) (Multiaddr, error) {
	if host == "" {
		return "", errors.New("empty host")
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port: %d", port)
	}

	netType := "dns4"
	if ip := net.ParseIP(host); ip != nil {
		netType = "ip6"
		if ip.To4() != nil {
			netType = "ip4"
		}
	}

	switch transport {
	case TransportTCP:
		return Multiaddr(fmt.Sprintf("/%s/%s/tcp/%d", netType, host, port)), nil
	case TransportQUIC:
		return Multiaddr(fmt.Sprintf("/%s/%s/udp/%d/quic-v1", netType, host, port)), nil
	default:
		return "", ErrMissingTransport
	}
}

// String 返回规范字符串
func (m Multiaddr) String() string {
	return string(m)
}

// IsEmpty 是否为空地址
func (m Multiaddr) IsEmpty() bool {
	return m == ""
}

func (m Multiaddr) parts() []string {
	return strings.Split(strings.TrimPrefix(string(m), "/"), "/")
}

// Transport 返回传输协议：tcp、quic-v1、memory，无法识别时返回空串
func (m Multiaddr) Transport() string {
	p := m.parts()
	switch {
	case len(p) == 2 && p[0] == "memory" && p[1] != "":
		return TransportMemory
	case len(p) == 4 && p[2] == "tcp":
		return TransportTCP
	case len(p) == 5 && p[2] == "udp" && p[4] == "quic-v1":
		return TransportQUIC
	default:
		return ""
	}
}

// HostPort 返回 host 与 port（memory 地址不适用）
func (m Multiaddr) HostPort() (string, int, error) {
	p := m.parts()
	if len(p) < 4 {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidMultiaddr, m)
	}

	switch p[0] {
	case "ip4", "ip6":
		if net.ParseIP(p[1]) == nil {
			return "", 0, fmt.Errorf("%w: bad ip %q", ErrInvalidMultiaddr, p[1])
		}
	case "dns4", "dns6":
		if p[1] == "" {
			return "", 0, fmt.Errorf("%w: empty host", ErrInvalidMultiaddr)
		}
	default:
		return "", 0, fmt.Errorf("%w: unknown protocol %q", ErrInvalidMultiaddr, p[0])
	}

	port, err := strconv.Atoi(p[3])
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port %q", ErrInvalidMultiaddr, p[3])
	}
	return p[1], port, nil
}

// NetAddr 返回可供 net 包使用的 "host:port"
func (m Multiaddr) NetAddr() (string, error) {
	host, port, err := m.HostPort()
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// MemoryName 返回 memory 地址的名称部分
func (m Multiaddr) MemoryName() string {
	if m.Transport() != TransportMemory {
		return ""
	}
	return m.parts()[1]
}
