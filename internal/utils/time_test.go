package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), date)

	// Surrounding whitespace is tolerated
	date, err = ParseDate(" 2025-06-01 ")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDate("01/06/2025")
	assert.Error(t, err)
}

func TestParseExpiry(t *testing.T) {
	// A bare date is promoted to the end of that day
	expiry := ParseExpiry("2025-06-01")
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), expiry)

	expiry = ParseExpiry("2025-06-01 18:30")
	assert.Equal(t, time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC), expiry)

	expiry = ParseExpiry("2025-06-01 18:30:45")
	assert.Equal(t, time.Date(2025, 6, 1, 18, 30, 45, 0, time.UTC), expiry)

	assert.True(t, ParseExpiry("").IsZero())
	assert.True(t, ParseExpiry("not a date").IsZero())
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), EndOfDay(in))
}
