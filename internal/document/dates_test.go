package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15/03/2024", date(2024, 3, 15)},
		{"15-03-2024", date(2024, 3, 15)},
		{"15.03.2024", date(2024, 3, 15)},
		{"5/3/2024", date(2024, 3, 5)},
		{"05/06/2030", date(2030, 6, 5)},
		{"15/03/24", date(2024, 3, 15)},
		{"12/25/2030", date(2030, 12, 25)},
		{"2024-03-15", date(2024, 3, 15)},
		{"2024/3/15", date(2024, 3, 15)},
		{"15 March 2024", date(2024, 3, 15)},
		{"  15/03/2024  ", date(2024, 3, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDate(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "31/02/2024", "99/99/9999", "not a date", "15/03"} {
		assert.Nil(t, ParseDate(in), in)
	}
}

func TestParseMRZDate(t *testing.T) {
	got := ParseMRZDate("740812")
	require.NotNil(t, got)
	assert.Equal(t, date(1974, 8, 12), *got)

	got = ParseMRZDate("300101")
	require.NotNil(t, got)
	assert.Equal(t, date(2030, 1, 1), *got)

	got = ParseMRZDate("491231")
	require.NotNil(t, got)
	assert.Equal(t, date(2049, 12, 31), *got)

	got = ParseMRZDate("550101")
	require.NotNil(t, got)
	assert.Equal(t, date(1955, 1, 1), *got)

	assert.Nil(t, ParseMRZDate("741332"))
	assert.Nil(t, ParseMRZDate("7408a2"))
	assert.Nil(t, ParseMRZDate("<<<<<<"))
	assert.Nil(t, ParseMRZDate("7408"))
}

func TestParseCompactDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *time.Time
	}{
		{"ddmmyyyy", "15031990", ptr(date(1990, 3, 15))},
		{"stray leading digit", "115031990", ptr(date(1990, 3, 15))},
		{"ten digits first eight valid", "1503199000", ptr(date(1990, 3, 15))},
		{"ten digits shifted", "1150319900", ptr(date(1990, 3, 15))},
		{"invalid", "99999999", nil},
		{"too short", "1503199", nil},
		{"non digits", "15O31990", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCompactDate(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
