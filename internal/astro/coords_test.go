package astro

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec string
		wantRA  float64
		wantDec float64
	}{
		{"sexagesimal pair", "00:42:44", "+41:16:09", 0.712222, 41.269167},
		{"decimal degrees", "10.684583", "41.269167", 0.712306, 41.269167},
		{"negative declination", "12:30:00", "-05:45:00", 12.5, -5.75},
		{"negative zero degrees dec", "06:00:00", "-00:30:00", 6.0, -0.5},
		{"ra lower bound", "00:00:00", "0", 0, 0},
		{"dec poles", "12:00:00", "-90:00:00", 12, -90},
		{"no seconds", "05:30", "10:30", 5.5, 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra, dec, err := Normalize(tt.ra, tt.dec)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRA, ra, 1e-4)
			assert.InDelta(t, tt.wantDec, dec, 1e-4)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ra, dec, err := Normalize("00:42:44", "+41:16:09")
	require.NoError(t, err)

	// Feeding normalized values back in must not move them. RA round-trips
	// through degrees since bare decimals are read as degrees.
	ra2, dec2, err := Normalize(
		strconv.FormatFloat(ra*15, 'f', -1, 64),
		strconv.FormatFloat(dec, 'f', -1, 64),
	)
	require.NoError(t, err)
	assert.InDelta(t, ra, ra2, 1e-9)
	assert.InDelta(t, dec, dec2, 1e-9)
}

func TestNormalizeOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec string
	}{
		{"ra at 24h", "24:00:00", "0"},
		{"ra past 24h", "25:00:00", "0"},
		{"negative ra", "-1.5", "0"},
		{"dec past north pole", "12:00:00", "90:00:01"},
		{"dec past south pole", "12:00:00", "-91:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.ra, tt.dec)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec string
	}{
		{"ra not a number", "twelve", "0"},
		{"dec not a number", "12:00:00", "north"},
		{"too many components", "12:00:00:00", "0"},
		{"negative minutes", "12:-30:00", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.ra, tt.dec)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDefaultTargetName(t *testing.T) {
	assert.Equal(t, "J2000-12.5000-5.7500", DefaultTargetName(12.5, -5.75))
	assert.Equal(t, "J2000-0.7122+41.2692", DefaultTargetName(0.712222, 41.269167))
}
