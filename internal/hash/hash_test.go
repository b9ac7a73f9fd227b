package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := Password("Passw0rd!")
	require.NoError(t, err)
	require.NotEqual(t, "Passw0rd!", h)

	require.True(t, Check(h, "Passw0rd!"))
	require.False(t, Check(h, "passw0rd!"))
	require.False(t, Check(h, ""))
}

func TestPasswordSaltedPerCall(t *testing.T) {
	h1, err := Password("same")
	require.NoError(t, err)
	h2, err := Password("same")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.True(t, Check(h1, "same"))
	require.True(t, Check(h2, "same"))
}
