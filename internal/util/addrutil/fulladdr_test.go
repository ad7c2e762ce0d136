package addrutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func TestParseFullAddr_Valid(t *testing.T) {
	peer := types.RandomPeerID()

	tests := []struct {
		name     string
		full     string
		wantAddr types.Multiaddr
	}{
		{"ip4 tcp", "/ip4/1.2.3.4/tcp/4001/p2p/" + peer.String(), "/ip4/1.2.3.4/tcp/4001"},
		{"ip4 quic", "/ip4/1.2.3.4/udp/4001/quic-v1/p2p/" + peer.String(), "/ip4/1.2.3.4/udp/4001/quic-v1"},
		{"ip6 quic", "/ip6/::1/udp/4001/quic-v1/p2p/" + peer.String(), "/ip6/::1/udp/4001/quic-v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, addr, err := ParseFullAddr(tt.full)
			require.NoError(t, err)
			assert.Equal(t, peer, id)
			assert.Equal(t, tt.wantAddr, addr)
		})
	}
}

func TestParseFullAddr_Invalid(t *testing.T) {
	peer := types.RandomPeerID()

	tests := []struct {
		name string
		full string
		want error
	}{
		{"empty", "", ErrEmptyAddress},
		{"no peer", "/ip4/1.2.3.4/tcp/4001", ErrMissingPeerID},
		{"bad peer", "/ip4/1.2.3.4/tcp/4001/p2p/notapeer", ErrInvalidPeerID},
		{"not at end", "/ip4/1.2.3.4/tcp/4001/p2p/" + peer.String() + "/tcp/1", ErrPeerIDNotAtEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFullAddr(tt.full)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := ParseFullAddr("/p2p/" + peer.String())
	assert.Error(t, err, "dial part must be a valid multiaddr")
}

func TestBuildFullAddr(t *testing.T) {
	peer := types.RandomPeerID()
	addr := types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/4001")

	full, err := BuildFullAddr(addr, peer)
	require.NoError(t, err)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/4001/p2p/"+peer.String(), full)

	// 往返
	id, dial, err := ParseFullAddr(full)
	require.NoError(t, err)
	assert.Equal(t, peer, id)
	assert.Equal(t, addr, dial)

	// 已含相同 ID
	again, err := BuildFullAddr(types.Multiaddr(full), peer)
	require.NoError(t, err)
	assert.Equal(t, full, again)

	_, err = BuildFullAddr(types.Multiaddr(full), types.RandomPeerID())
	assert.ErrorIs(t, err, ErrPeerIDConflict)

	_, err = BuildFullAddr("", peer)
	assert.ErrorIs(t, err, ErrEmptyAddress)
	_, err = BuildFullAddr(addr, types.EmptyPeerID)
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}

func TestStripAndHasPeerID(t *testing.T) {
	peer := types.RandomPeerID()
	full := "/ip4/1.2.3.4/tcp/1/p2p/" + peer.String()

	assert.True(t, HasPeerID(full))
	assert.False(t, HasPeerID("/ip4/1.2.3.4/tcp/1"))
	assert.Equal(t, "/ip4/1.2.3.4/tcp/1", StripPeerID(full))
	assert.Equal(t, "/ip4/1.2.3.4/tcp/1", StripPeerID("/ip4/1.2.3.4/tcp/1"))
}
