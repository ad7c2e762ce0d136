package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerID(t *testing.T) {
	t.Run("ParsePeerID", func(t *testing.T) {
		valid := RandomPeerID().String()

		tests := []struct {
			name    string
			input   string
			wantErr bool
		}{
			{"valid", valid, false},
			{"empty", "", true},
			{"not base58", "0OIl", true},
			{"wrong length", "12D3KooWTest", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParsePeerID(tt.input)
				if tt.wantErr {
					assert.ErrorIs(t, err, ErrInvalidPeerID)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		id := RandomPeerID()
		parsed, err := ParsePeerID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("ShortString", func(t *testing.T) {
		id := RandomPeerID()
		assert.Len(t, id.ShortString(), 8)
		assert.Equal(t, id.String()[:8], id.ShortString())
		assert.Equal(t, "", EmptyPeerID.ShortString())
	})

	t.Run("IsEmpty", func(t *testing.T) {
		assert.True(t, EmptyPeerID.IsEmpty())
		assert.False(t, RandomPeerID().IsEmpty())
	})

	t.Run("FromPublicKey", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		a := PeerIDFromPublicKey(pub)
		b := PeerIDFromPublicKey(pub)
		assert.Equal(t, a, b)
		assert.False(t, a.IsEmpty())
	})

	t.Run("JSON", func(t *testing.T) {
		id := RandomPeerID()
		data, err := json.Marshal(map[string]PeerID{"peer": id})
		require.NoError(t, err)
		assert.Contains(t, string(data), id.String())

		var out map[string]PeerID
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, id, out["peer"])
	})
}

func TestRequestID_Unique(t *testing.T) {
	seen := make(map[RequestID]struct{})
	for i := 0; i < 1000; i++ {
		id := NewRequestID()
		require.False(t, id.IsZero())
		_, dup := seen[id]
		require.False(t, dup, "request id reused")
		seen[id] = struct{}{}
	}
}
