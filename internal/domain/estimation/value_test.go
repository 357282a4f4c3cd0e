package estimation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw    string
		days   float64
		custom bool
		err    error
	}{
		{raw: "1.5d", days: 1.5},
		{raw: "4h", days: 0.5},
		{raw: "8h", days: 1},
		{raw: "3d", days: 3},
		{raw: "5d", days: 5, custom: true},
		{raw: "6h", days: 0.75, custom: true},
		{raw: "2w", err: ErrInvalidFormat},
		{raw: "", err: ErrInvalidFormat},
		{raw: "abcd", err: ErrInvalidValue},
		{raw: "h", err: ErrInvalidValue},
		{raw: "NaNd", err: ErrInvalidValue},
		{raw: "-1d", err: ErrInvalidValue},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			days, custom, err := ParseValue(tc.raw)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.days, days, 1e-9)
			assert.Equal(t, tc.custom, custom)
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.5d", FormatValue(1.5))
	assert.Equal(t, "1d", FormatValue(1))
	assert.Equal(t, "4h", FormatValue(0.5))
	assert.Equal(t, "2h", FormatValue(0.25))
}

func TestPresetDeckFormatting(t *testing.T) {
	// A full day of hours is displayed in days.
	displayed := map[string]string{"8h": "1d"}
	for _, card := range PresetDeck {
		days, custom, err := ParseValue(card)
		require.NoError(t, err)
		assert.False(t, custom)

		want, ok := displayed[card]
		if !ok {
			want = card
		}
		assert.Equal(t, want, FormatValue(days))
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Estimation{{Estimation: 3}, {Estimation: 1}, {Estimation: 2}, {Estimation: 4}, {Estimation: 5}})
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 3.0, s.Median, 1e-9)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 5.0, s.Max, 1e-9)
	assert.InDelta(t, 1.4, s.P10, 1e-9)
	assert.InDelta(t, 4.6, s.P90, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))

	one := Summarize([]Estimation{{Estimation: 0.5}})
	assert.Equal(t, 0.5, one.P10)
	assert.Equal(t, 0.5, one.P90)
}
