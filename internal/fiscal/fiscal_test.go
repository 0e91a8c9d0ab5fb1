package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	fy, err := Parse("2024-25")
	assert.NoError(t, err)
	assert.Equal(t, Year("2024-25"), fy)

	_, err = Parse("2024-26")
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = Parse("2024")
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = Parse("24-25")
	assert.ErrorIs(t, err, ErrInvalidYear)

	// Century rollover.
	fy, err = Parse("2099-00")
	assert.NoError(t, err)
	assert.Equal(t, 2099, fy.StartYear())
}

func TestForDate(t *testing.T) {
	assert.Equal(t, Year("2024-25"), ForDate(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Year("2023-24"), ForDate(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Year("2024-25"), ForDate(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))
}

func TestQuarterDueDates(t *testing.T) {
	fy := Year("2024-25")

	q1, err := fy.QuarterDueDate(1)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), q1)

	q4, err := fy.QuarterDueDate(4)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), q4)

	_, err = fy.QuarterDueDate(5)
	assert.ErrorIs(t, err, ErrInvalidQuarter)
}

func TestQuarterFor(t *testing.T) {
	fy := Year("2024-25")

	assert.Equal(t, 1, fy.QuarterFor(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, fy.QuarterFor(time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, fy.QuarterFor(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, fy.QuarterFor(time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)))
}

func TestMonthsBetween(t *testing.T) {
	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	// April through July: part of the fourth month counts in full.
	assert.Equal(t, 4, MonthsBetween(start, time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, MonthsBetween(start, start))
	assert.Equal(t, 0, MonthsBetween(start, start.Add(-time.Hour)))
}
