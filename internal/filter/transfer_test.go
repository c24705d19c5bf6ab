package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearTransferRoundTrips(t *testing.T) {
	tr := linearTransfer{scale: 2.5}
	for _, v := range []float32{0, 0.1, 1, 3.7} {
		require.InDelta(t, v, tr.Inverse(tr.Forward(v)), 1e-5)
	}
}

func TestLinearTransferInverseHandlesZeroScale(t *testing.T) {
	tr := linearTransfer{scale: 0}
	require.Equal(t, float32(0), tr.Inverse(1))
}

func TestSrgbTransferRoundTrips(t *testing.T) {
	tr := srgbTransfer{scale: 1}
	for _, v := range []float32{0, 0.01, 0.18, 0.5, 0.99} {
		require.InDelta(t, v, tr.Inverse(tr.Forward(v)), 1e-4)
	}
}

func TestSrgbToLinearMatchesPiecewiseCurve(t *testing.T) {
	require.InDelta(t, 0, srgbToLinear(0), 1e-6)
	require.InDelta(t, 1, srgbToLinear(1), 1e-4)
	require.Less(t, srgbToLinear(0.5), float32(0.5))
}

func TestLinearToSrgbMatchesPiecewiseCurve(t *testing.T) {
	require.InDelta(t, 0, linearToSrgb(0), 1e-6)
	require.InDelta(t, 1, linearToSrgb(1), 1e-4)
	require.Greater(t, linearToSrgb(0.2), float32(0.2))
}

func TestNewTransferFuncSelectsBySrgbFlag(t *testing.T) {
	_, isLinear := newTransferFunc(false, 1).(linearTransfer)
	require.True(t, isLinear)
	_, isSrgb := newTransferFunc(true, 1).(srgbTransfer)
	require.True(t, isSrgb)
}
