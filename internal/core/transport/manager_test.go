package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func newIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id
}

func TestNewManager_Selection(t *testing.T) {
	m, err := NewManager(DefaultConfig(), newIdentity(t))
	require.NoError(t, err)
	defer m.Close()

	assert.Len(t, m.Transports(), 2)

	tr, err := m.TransportFor("/ip4/127.0.0.1/udp/4001/quic-v1")
	require.NoError(t, err)
	assert.Equal(t, types.TransportQUIC, tr.Name())

	tr, err = m.TransportFor("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)
	assert.Equal(t, types.TransportTCP, tr.Name())

	_, err = m.TransportFor("/memory/a")
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestNewManager_TCPOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableQUIC = false
	m, err := NewManager(cfg, newIdentity(t))
	require.NoError(t, err)
	defer m.Close()

	_, err = m.TransportFor("/ip4/127.0.0.1/udp/4001/quic-v1")
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestNewManager_Rejects(t *testing.T) {
	_, err := NewManager(Config{}, newIdentity(t))
	assert.ErrorIs(t, err, ErrNoTransportsEnabled)

	_, err = NewManager(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestConfigFromUnified(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))

	cfg := config.NewConfig()
	cfg.Transport.EnableQUIC = false
	got := ConfigFromUnified(cfg)
	assert.False(t, got.EnableQUIC)
	assert.True(t, got.EnableTCP)
	assert.Equal(t, cfg.Transport.DialTimeout.Duration(), got.DialTimeout)
}

func TestModule_Lifecycle(t *testing.T) {
	id := newIdentity(t)
	var m *Manager

	app := fxtest.New(t,
		fx.Supply(id),
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&m),
	)
	app.RequireStart()

	require.NotNil(t, m)
	assert.Equal(t, id.PeerID(), m.LocalPeer())

	tr, err := m.TransportFor("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	l, err := tr.Listen("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)

	app.RequireStop()

	_, err = l.Accept(context.Background())
	assert.Error(t, err, "监听器随传输一起关闭")
	t.Log("✅ 停止时关闭所有传输")
}
