package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := DeviceConfig{NumEngines: 2, Alignment: 32, Overlap: 16, MaxMemoryMB: 256}

	data, err := Marshal(cfg)
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestParseAppliesDefaultsForMissingFields(t *testing.T) {
	cfg, err := Parse([]byte("alignment: 8\n"))
	require.NoError(t, err)
	require.Equal(t, Default().NumEngines, cfg.NumEngines)
	require.Equal(t, 8, cfg.Alignment)
}

func TestValidateRejectsNonPositiveNumEngines(t *testing.T) {
	_, err := Parse([]byte("numEngines: 0\nalignment: 16\noverlap: 16\n"))
	require.Error(t, err)
}

func TestValidateRejectsNonPositiveAlignment(t *testing.T) {
	_, err := Parse([]byte("numEngines: 1\nalignment: 0\noverlap: 16\n"))
	require.Error(t, err)
}

func TestValidateRejectsNegativeOverlap(t *testing.T) {
	_, err := Parse([]byte("numEngines: 1\nalignment: 16\noverlap: -1\n"))
	require.Error(t, err)
}
