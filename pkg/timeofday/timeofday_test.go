package timeofday

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty string is zero", input: "", expected: 0},
		{name: "midnight", input: "00:00", expected: 0},
		{name: "morning", input: "09:00", expected: 540},
		{name: "afternoon", input: "18:10", expected: 1090},
		{name: "past midnight is not validated", input: "25:00", expected: 1500},
		{name: "single digits", input: "9:5", expected: 545},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToMinutes(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestToMinutes_Malformed(t *testing.T) {
	for _, input := range []string{"0900", "ab:cd", "09:00:00", "09:"} {
		_, err := ToMinutes(input)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "expected ParseError for %q", input)
		assert.Equal(t, input, parseErr.Value)
	}
}

func TestToTimeString(t *testing.T) {
	assert.Equal(t, "00:00", ToTimeString(0))
	assert.Equal(t, "09:05", ToTimeString(545))
	assert.Equal(t, "17:00", ToTimeString(1020))
	assert.Equal(t, "25:00", ToTimeString(1500), "no wrap at 24:00")
}

func TestAddMinutes(t *testing.T) {
	got, err := AddMinutes("09:00", 510)
	require.NoError(t, err)
	assert.Equal(t, "17:30", got)

	got, err = AddMinutes("17:00", -10)
	require.NoError(t, err)
	assert.Equal(t, "16:50", got)

	_, err = AddMinutes("bad", 1)
	assert.Error(t, err)
}

func TestClockHelpers(t *testing.T) {
	at := time.Date(2026, time.October, 16, 12, 34, 56, 0, time.Local)

	assert.Equal(t, 754, MinuteOfDay(at))
	assert.Equal(t, "12:34", Format(at))
	assert.Equal(t, "2026-10-16", DateString(at))
	assert.Equal(t, "8時間40分", FormatDuration(520))
}
