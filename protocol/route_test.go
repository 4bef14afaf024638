package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkwire-games/darkwire/wire"
)

func TestRouteRoundTrip(t *testing.T) {
	routes := []Route{
		Local(),
		One(42),
		Any(FlavorGame),
		All(FlavorGateway),
	}

	for _, r := range routes {
		t.Run(r.String(), func(t *testing.T) {
			b := wire.NewBuffer(r.Size())
			r.Encode(b)
			assert.Equal(t, r.Size(), b.Len(), "declared size must match encoded size")

			got, err := DecodeRoute(b)
			require.NoError(t, err)
			assert.Equal(t, r, got)
			assert.Equal(t, 0, b.Remaining(), "decode must consume exactly the encoding")
		})
	}
}

func TestRouteDecodeUnknownTag(t *testing.T) {
	b := wire.FromBytes([]byte{0xFF})
	_, err := DecodeRoute(b)
	assert.Error(t, err)
}

func TestRouteDecodeTruncated(t *testing.T) {
	// A One route missing its peer id.
	b := wire.FromBytes([]byte{byte(RouteOne)})
	_, err := DecodeRoute(b)
	assert.ErrorIs(t, err, wire.ErrTruncated)
}

func TestFlavorValid(t *testing.T) {
	assert.True(t, FlavorGame.Valid())
	assert.True(t, FlavorClient.Valid())
	assert.False(t, Flavor(200).Valid())
}
