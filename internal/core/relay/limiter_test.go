package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func TestLimiter_Circuits(t *testing.T) {
	l := NewLimiter(LimiterConfig{MaxCircuits: 3, MaxCircuitsPerPeer: 2})
	a, b := types.RandomPeerID(), types.RandomPeerID()

	require.NoError(t, l.AllowCircuit(a))
	require.NoError(t, l.AllowCircuit(a))
	assert.ErrorIs(t, l.AllowCircuit(a), ErrTooManyCircuits)

	require.NoError(t, l.AllowCircuit(b))
	assert.ErrorIs(t, l.AllowCircuit(b), ErrResourceLimitExceeded)

	l.ReleaseCircuit(a)
	require.NoError(t, l.AllowCircuit(b))

	stats := l.Stats()
	assert.Equal(t, 3, stats.TotalCircuits)
	assert.Equal(t, 2, stats.UniquePeers)

	// 多余的释放不会变负
	l.ReleaseCircuit(a)
	l.ReleaseCircuit(a)
	l.ReleaseCircuit(a)
	assert.Equal(t, 2, l.Stats().TotalCircuits)
}

func TestLimiter_Rate(t *testing.T) {
	l := NewLimiter(LimiterConfig{Rate: 0.001, Burst: 2})
	a := types.RandomPeerID()

	require.NoError(t, l.AllowCircuit(a))
	l.ReleaseCircuit(a)
	require.NoError(t, l.AllowCircuit(a))
	l.ReleaseCircuit(a)
	assert.ErrorIs(t, l.AllowCircuit(a), ErrRateLimited)

	// 其他节点不受影响
	assert.NoError(t, l.AllowCircuit(types.RandomPeerID()))

	l.Forget(a)
	assert.NoError(t, l.AllowCircuit(a))
}
