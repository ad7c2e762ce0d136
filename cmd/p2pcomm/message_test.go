package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func TestParseTarget(t *testing.T) {
	peer := types.RandomPeerID()

	id, addr, err := parseTarget(peer.String() + "@/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)
	assert.Equal(t, peer, id)
	assert.Equal(t, types.Multiaddr("/ip4/127.0.0.1/tcp/4001"), addr)

	id, addr, err = parseTarget("/ip4/127.0.0.1/udp/4001/quic-v1/p2p/" + peer.String())
	require.NoError(t, err)
	assert.Equal(t, peer, id)
	assert.Equal(t, types.Multiaddr("/ip4/127.0.0.1/udp/4001/quic-v1"), addr)

	for _, bad := range []string{"", "abc", "@/ip4/1.2.3.4/tcp/1", peer.String() + "@", "abc@/ip4/1.2.3.4/tcp/1"} {
		_, _, err := parseTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	res, err := handle(ctx, Message{Kind: KindPing})
	require.NoError(t, err)
	assert.Equal(t, "pong", res)

	res, err = handle(ctx, Message{Kind: KindEcho, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res)

	_, err = handle(ctx, Message{Kind: Kind(64)})
	assert.Error(t, err)
	assert.Equal(t, "echo", KindEcho.String())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"10.0.0.1", "::1"}, splitList(" 10.0.0.1, ,::1 "))
}
