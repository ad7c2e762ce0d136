package quic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func newTransport(t *testing.T) (*Transport, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	tr, err := New(id)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr, id
}

func listenLocal(t *testing.T, tr *Transport) pkgif.Listener {
	t.Helper()
	l, err := tr.Listen("/ip4/127.0.0.1/udp/0/quic-v1")
	require.NoError(t, err)
	return l
}

func TestCanDial(t *testing.T) {
	tr, _ := newTransport(t)
	assert.True(t, tr.CanDial("/ip4/127.0.0.1/udp/4001/quic-v1"))
	assert.False(t, tr.CanDial("/ip4/127.0.0.1/tcp/4001"))
	assert.False(t, tr.CanDial("/memory/a"))
	assert.Equal(t, types.TransportQUIC, tr.Name())
}

func TestDialAccept_StreamEcho(t *testing.T) {
	server, serverID := newTransport(t)
	client, clientID := newTransport(t)
	l := listenLocal(t, server)

	_, port, err := l.Addr().HostPort()
	require.NoError(t, err)
	assert.NotZero(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accepted := make(chan pkgif.Conn, 1)
	go func() {
		c, err := l.Accept(ctx)
		if err == nil {
			accepted <- c
		}
		close(accepted)
	}()

	cc, err := client.Dial(ctx, l.Addr(), serverID.PeerID())
	require.NoError(t, err)
	defer cc.Close()
	assert.Equal(t, serverID.PeerID(), cc.RemotePeer())
	assert.Equal(t, clientID.PeerID(), cc.LocalPeer())

	s, err := cc.OpenStream(ctx)
	require.NoError(t, err)
	_, err = s.Write([]byte("ping"))
	require.NoError(t, err)
	require.NoError(t, s.CloseWrite())

	sc, ok := <-accepted
	require.True(t, ok)
	defer sc.Close()
	assert.Equal(t, clientID.PeerID(), sc.RemotePeer())

	ss, err := sc.AcceptStream(ctx)
	require.NoError(t, err)
	got, err := io.ReadAll(ss)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))

	_, err = ss.Write([]byte("pong"))
	require.NoError(t, err)
	require.NoError(t, ss.CloseWrite())

	reply, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(reply))
	t.Log("✅ QUIC 双向认证与流读写正常")
}

func TestDial_PeerMismatch(t *testing.T) {
	server, _ := newTransport(t)
	client, _ := newTransport(t)
	l := listenLocal(t, server)

	go func() { _, _ = l.Accept(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := client.Dial(ctx, l.Addr(), types.RandomPeerID())
	assert.ErrorIs(t, err, identity.ErrPeerIDMismatch)
}

func TestDial_UnsupportedAddr(t *testing.T) {
	tr, _ := newTransport(t)
	_, err := tr.Dial(context.Background(), "/ip4/127.0.0.1/tcp/1", types.EmptyPeerID)
	assert.ErrorIs(t, err, ErrUnsupportedAddr)
}

func TestListener_Close(t *testing.T) {
	tr, _ := newTransport(t)
	l := listenLocal(t, tr)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err := l.Accept(context.Background())
	assert.ErrorIs(t, err, ErrListenerClosed)
}

func TestTransport_CloseRejectsUse(t *testing.T) {
	tr, _ := newTransport(t)
	listenLocal(t, tr)
	require.NoError(t, tr.Close())

	_, err := tr.Listen("/ip4/127.0.0.1/udp/0/quic-v1")
	assert.ErrorIs(t, err, ErrTransportClosed)
	_, err = tr.Dial(context.Background(), "/ip4/127.0.0.1/udp/1/quic-v1", types.EmptyPeerID)
	assert.ErrorIs(t, err, ErrTransportClosed)
}
