package render

import (
	"errors"
	"fmt"
)

// ErrMonthOutOfRange is returned by MonthName for indices outside 0..11.
var ErrMonthOutOfRange = errors.New("month index out of range")

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// weekdayLabels is the header row, Sunday first.
var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MonthName returns the English name of the 0-indexed month i.
func MonthName(i int) (string, error) {
	if i < 0 || i >= len(monthNames) {
		return "", fmt.Errorf("render: %d: %w", i, ErrMonthOutOfRange)
	}
	return monthNames[i], nil
}
