package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProfitPortal/internal/model"
)

func TestRange(t *testing.T) {
	s := seriesOf(100, 101, 99, 102, 105, 103, 104)
	s.Samples[4].High = dec("107.5")
	s.Samples[2].Low = dec("97")

	high, low, err := Range(s, 0)
	require.NoError(t, err)
	assert.True(t, high.Equal(dec("107.5")))
	assert.True(t, low.Equal(dec("97")))

	high, low, err = Range(s, 2)
	require.NoError(t, err)
	assert.True(t, high.Equal(dec("104")))
	assert.True(t, low.Equal(dec("103")))

	_, _, err = Range(seriesOf(), 0)
	var ide *model.InsufficientDataError
	assert.ErrorAs(t, err, &ide)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		price, high, low, want string
	}{
		{"105", "110", "100", "0.5"},
		{"100", "110", "100", "0"},
		{"120", "110", "100", "1"},
		{"90", "110", "100", "0"},
		{"50", "50", "50", "0.5"},
	}
	for _, tt := range tests {
		got, err := Position(dec(tt.price), dec(tt.high), dec(tt.low))
		require.NoError(t, err)
		assert.True(t, got.Equal(dec(tt.want)), "Position(%s, %s, %s) = %s", tt.price, tt.high, tt.low, got)
	}

	_, err := Position(dec("1"), dec("1"), dec("2"))
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}
