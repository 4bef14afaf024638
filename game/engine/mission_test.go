package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNodeMission(minLevel uint8) *Mission {
	return &Mission{
		Name:  "gate",
		Entry: 1,
		Nodes: map[NodeID]*Node{
			1: {ID: 1, Kind: NodeAccessPoint, Links: []Link{{To: 2, MinLevel: minLevel}}},
			2: {ID: 2, Kind: NodeBackend},
		},
	}
}

func TestTraverseGatedByAuthorizationLevel(t *testing.T) {
	m := twoNodeMission(2)
	ms := newMissionState(1)

	err := ms.Traverse(m, 2)
	require.ErrorIs(t, err, ErrAuthorization)
	assert.Equal(t, NodeID(1), ms.Current, "a failed move never changes position")

	ms.Tokens = []Token{{Kind: TokenAuthorization, Level: 1, Expiry: 100}}
	err = ms.Traverse(m, 2)
	require.ErrorIs(t, err, ErrAuthorization, "level below the link minimum never passes")

	ms.Tokens = append(ms.Tokens, Token{Kind: TokenAuthorization, Level: 2, Expiry: 100})
	require.NoError(t, ms.Traverse(m, 2), "a sufficient level always passes")
	assert.Equal(t, NodeID(2), ms.Current)
	assert.True(t, ms.Known[2], "moving discovers the destination")
}

func TestCredentialsDoNotOpenLinks(t *testing.T) {
	m := twoNodeMission(1)
	ms := newMissionState(1)
	ms.Tokens = []Token{{Kind: TokenCredentials, Level: 5, Expiry: 100}}

	err := ms.Traverse(m, 2)
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestTraverseRequiresLink(t *testing.T) {
	m := twoNodeMission(0)
	ms := newMissionState(2)

	err := ms.Traverse(m, 1)
	assert.ErrorIs(t, err, ErrNoLink, "links are directional")

	ms = newMissionState(1)
	err = ms.Traverse(m, 99)
	assert.ErrorIs(t, err, ErrNoSuchNode)
}

func TestIntentAcceptanceIsDisjoint(t *testing.T) {
	seen := make(map[Intent]NodeKind)
	for kind := NodeKind(0); kind < nodeKindCount; kind++ {
		accepted := 0
		for i := Intent(0); i < intentCount; i++ {
			if !kind.Accepts(i) {
				continue
			}
			accepted++
			if prev, dup := seen[i]; dup {
				t.Fatalf("intent %s accepted by both %s and %s", i, prev, kind)
			}
			seen[i] = kind
		}
		assert.Equal(t, 2, accepted, "kind %s must accept exactly two intents", kind)
	}
	assert.Len(t, seen, int(intentCount), "every intent belongs to some kind")
}
