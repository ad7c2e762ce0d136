package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net"
	"time"

	"github.com/libp2p/go-yamux/v5"
	mss "github.com/multiformats/go-multistream"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// ALPN TLS 应用层协议标识
const ALPN = "p2pcomm"

// YamuxID yamux 多路复用协议标识
const YamuxID = "/yamux/1.0.0"

// defaultHandshakeTimeout TLS 握手与协商的总时限
const defaultHandshakeTimeout = 10 * time.Second

func yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	// 16MiB 窗口：100ms 延迟下可达 160MB/s
	cfg.MaxStreamWindowSize = uint32(16 * 1024 * 1024)
	cfg.LogOutput = io.Discard
	// TLS 层已有缓冲
	cfg.ReadBufSize = 0
	cfg.MaxIncomingStreams = math.MaxUint32
	return cfg
}

// upgrader 把原始 TCP 连接升级为已认证的 yamux 会话
type upgrader struct {
	id      *identity.Identity
	tlsConf *tls.Config
	yamux   *yamux.Config
}

func newUpgrader(id *identity.Identity) (*upgrader, error) {
	tlsConf, err := id.TLSConfig(ALPN)
	if err != nil {
		return nil, err
	}
	return &upgrader{id: id, tlsConf: tlsConf, yamux: yamuxConfig()}, nil
}

// upgrade 完成握手与协商；失败时关闭 raw
func (u *upgrader) upgrade(ctx context.Context, raw net.Conn, isServer bool, expect types.PeerID) (*conn, error) {
	deadline := time.Now().Add(defaultHandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := raw.SetDeadline(deadline); err != nil {
		_ = raw.Close()
		return nil, err
	}

	c, err := u.handshake(ctx, raw, isServer, expect)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return c, nil
}

func (u *upgrader) handshake(ctx context.Context, raw net.Conn, isServer bool, expect types.PeerID) (*conn, error) {
	var tc *tls.Conn
	if isServer {
		tc = tls.Server(raw, u.tlsConf)
	} else {
		tc = tls.Client(raw, u.tlsConf)
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	remote, err := identity.PeerFromConnState(tc.ConnectionState())
	if err != nil {
		return nil, err
	}
	if err := identity.CheckPeer(expect, remote); err != nil {
		return nil, err
	}

	if isServer {
		muxer := mss.NewMultistreamMuxer[string]()
		muxer.AddHandler(YamuxID, nil)
		if _, _, err := muxer.Negotiate(tc); err != nil {
			return nil, fmt.Errorf("negotiate muxer: %w", err)
		}
	} else if err := mss.SelectProtoOrFail(YamuxID, tc); err != nil {
		return nil, fmt.Errorf("select muxer: %w", err)
	}

	// 握手完成后清除截止时间，后续由 yamux 保活
	if err := raw.SetDeadline(time.Time{}); err != nil {
		return nil, err
	}

	var sess *yamux.Session
	if isServer {
		sess, err = yamux.Server(tc, u.yamux, nil)
	} else {
		sess, err = yamux.Client(tc, u.yamux, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("yamux session: %w", err)
	}

	laddr, err := types.FromNetAddr(raw.LocalAddr(), types.TransportTCP)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	raddr, err := types.FromNetAddr(raw.RemoteAddr(), types.TransportTCP)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}

	return &conn{
		sess:   sess,
		local:  u.id.PeerID(),
		remote: remote,
		laddr:  laddr,
		raddr:  raddr,
	}, nil
}
