package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBlobResolvesKnownCombinations(t *testing.T) {
	cases := []struct {
		hasColor, hasAlbedo, hasNormal, hdr, directional, cleanAux bool
		want                                                       string
	}{
		{hasColor: true, want: "ldr"},
		{hasColor: true, hdr: true, want: "hdr"},
		{hasColor: true, directional: true, want: "dir"},
		{hasColor: true, hasAlbedo: true, want: "ldr_alb"},
		{hasColor: true, hasAlbedo: true, hasNormal: true, want: "ldr_alb_nrm"},
		{hasColor: true, hasAlbedo: true, hasNormal: true, cleanAux: true, want: "ldr_calb_cnrm"},
		{hasAlbedo: true, want: "alb"},
		{hasNormal: true, want: "nrm"},
	}
	for _, c := range cases {
		got, err := SelectBlob(c.hasColor, c.hasAlbedo, c.hasNormal, c.hdr, c.directional, c.cleanAux)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestSelectBlobRejectsUnlistedCombination(t *testing.T) {
	_, err := SelectBlob(true, false, true, true, true, false)
	require.Error(t, err)
}

func TestSelectBlobRejectsNoInputsAtAll(t *testing.T) {
	_, err := SelectBlob(false, false, false, false, false, false)
	require.Error(t, err)
}
