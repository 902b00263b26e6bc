package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"14th Feb 2026", "2026-02-14", true},
		{"Feb 14, 2026", "2026-02-14", true},
		{"February 14 2026", "2026-02-14", true},
		{"1st March 2027", "2027-03-01", true},
		{"3rd Apr 2026 - 5th Apr 2026", "2026-04-03", true},
		{"2026-05-20", "2026-05-20", true},
		{"14 February, 2026", "2026-02-14", true},
		{"2026/03/14", "2026-03-14", true},
		{"14th Feb 99", "", false},
		{"14 Feb 2024", "", false},
		{"31 Feb 2026", "", false},
		{"sometime soon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in, fixedNow)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysLeftDate(t *testing.T) {
	assert.Equal(t, "2026-03-06", DaysLeftDate(5, fixedNow))
	assert.Equal(t, "2026-03-01", DaysLeftDate(0, fixedNow))
}

func TestIsPast(t *testing.T) {
	assert.True(t, IsPast("2026-02-28", fixedNow))
	assert.False(t, IsPast("2026-03-01", fixedNow))
	assert.False(t, IsPast("2026-03-02", fixedNow))
}

func TestWithYear(t *testing.T) {
	got, ok := withYear("14 Mar", fixedNow)
	assert.True(t, ok)
	assert.Equal(t, "2026-03-14", got)

	got, ok = withYear("20 Jan", fixedNow)
	assert.True(t, ok)
	assert.Equal(t, "2027-01-20", got, "a passed day rolls to next year")

	got, ok = withYear("5 Feb 2026", fixedNow)
	assert.True(t, ok)
	assert.Equal(t, "2026-02-05", got, "explicit years are kept even when past")

	leapless := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	got, ok = withYear("29th Feb", leapless)
	assert.True(t, ok)
	assert.Equal(t, "2028-02-29", got, "29 Feb rolls to the next leap year")

	_, ok = withYear("sometime", fixedNow)
	assert.False(t, ok)
}
