package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("test", nil)

	c.CommandHandled("dial")
	c.CommandHandled("dial")
	c.EventHandled(types.EventResponse)
	c.RequestCompleted("ok")
	c.RequestCompleted("timeout")
	c.InboundHandled("rejected")
	c.ReconnectAttempted(true)
	c.ReconnectAttempted(false)
	c.ReconnectAttempted(false)
	c.ConnectionsTracked(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commands.WithLabelValues("dial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues(types.EventResponse)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.inbound.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconnects.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.reconnects.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.connections))

	t.Log("✅ 计数器正确累加")
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("p2pcomm", nil)

	require.NoError(t, c.Register(reg))
	c.RequestCompleted("ok")
	c.ConnectionsTracked(1)

	expected := `
# HELP p2pcomm_connections Peers in the connection table.
# TYPE p2pcomm_connections gauge
p2pcomm_connections 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "p2pcomm_connections"))

	// 重复注册应报错
	assert.Error(t, c.Register(reg))

	c.Unregister(reg)
	require.NoError(t, c.Register(reg))
}

func TestCollector_Bytes(t *testing.T) {
	c := NewCollector("test", nil)
	p := types.RandomPeerID()

	c.LogSentMessage(100, p)
	c.LogRecvMessage(40, p)
	c.LogRecvMessage(2, p)

	assert.Equal(t, 100.0, testutil.ToFloat64(c.bytes.WithLabelValues("out")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.bytes.WithLabelValues("in")))

	stats := c.GetBandwidthForPeer(p)
	assert.Equal(t, int64(100), stats.TotalOut)
	assert.Equal(t, int64(42), stats.TotalIn)
}

func TestNop(t *testing.T) {
	m := Nop()
	assert.NotPanics(t, func() {
		m.CommandHandled("x")
		m.EventHandled("x")
		m.RequestCompleted("x")
		m.InboundHandled("x")
		m.ReconnectAttempted(true)
		m.ConnectionsTracked(0)
	})
}
