// Package fiscal models the Indian financial year (1 Apr - 31 Mar) and the
// statutory advance-tax calendar.
package fiscal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Year is a financial year in "2024-25" form.
type Year string

var (
	ErrInvalidYear    = errors.New("invalid_financial_year")
	ErrInvalidQuarter = errors.New("invalid_quarter")

	yearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// Parse validates "YYYY-YY" with consecutive years.
func Parse(s string) (Year, error) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return "", ErrInvalidYear
	}
	start, _ := strconv.Atoi(m[1])
	endSuffix, _ := strconv.Atoi(m[2])
	if (start+1)%100 != endSuffix {
		return "", ErrInvalidYear
	}
	return Year(s), nil
}

// ForDate returns the financial year containing t.
func ForDate(t time.Time) Year {
	y := t.Year()
	if t.Month() < time.April {
		y--
	}
	return FromStartYear(y)
}

func FromStartYear(start int) Year {
	return Year(fmt.Sprintf("%04d-%02d", start, (start+1)%100))
}

func (y Year) StartYear() int {
	m := yearPattern.FindStringSubmatch(string(y))
	if m == nil {
		return 0
	}
	start, _ := strconv.Atoi(m[1])
	return start
}

// Start is 1 April of the financial year.
func (y Year) Start() time.Time {
	return time.Date(y.StartYear(), time.April, 1, 0, 0, 0, 0, time.UTC)
}

// End is 31 March of the following calendar year.
func (y Year) End() time.Time {
	return time.Date(y.StartYear()+1, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// AssessmentStart is 1 April of the assessment year, the anchor for 234B.
func (y Year) AssessmentStart() time.Time {
	return time.Date(y.StartYear()+1, time.April, 1, 0, 0, 0, 0, time.UTC)
}

func (y Year) Next() Year {
	return FromStartYear(y.StartYear() + 1)
}

// QuarterDueDate returns the statutory installment due date:
// 15 Jun / 15 Sep / 15 Dec of the FY and 15 Mar of the following year.
func (y Year) QuarterDueDate(quarter int) (time.Time, error) {
	start := y.StartYear()
	switch quarter {
	case 1:
		return time.Date(start, time.June, 15, 0, 0, 0, 0, time.UTC), nil
	case 2:
		return time.Date(start, time.September, 15, 0, 0, 0, 0, time.UTC), nil
	case 3:
		return time.Date(start, time.December, 15, 0, 0, 0, 0, time.UTC), nil
	case 4:
		return time.Date(start+1, time.March, 15, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, ErrInvalidQuarter
	}
}

// QuarterFor maps a date within the FY to its installment quarter. Dates
// after the Q4 due date still belong to Q4.
func (y Year) QuarterFor(t time.Time) int {
	for q := 1; q <= 3; q++ {
		due, _ := y.QuarterDueDate(q)
		if !t.After(due) {
			return q
		}
	}
	return 4
}

// MonthsBetween counts months from start to end for interest purposes:
// any part of a month counts as a full month. Returns 0 when end precedes
// start.
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	return months + 1
}
