package statement

import (
	"fmt"
	"time"
)

// ResolveYear picks the calendar year of a month/day taken from a transaction
// line. Within a single-year period that year is returned. When the period
// crosses into a new year, months on or after the start month belong to the
// start year and earlier months to the end year.
func ResolveYear(day int, month time.Month, period StatementPeriod) (int, error) {
	if period.End.Before(period.Start) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	if !period.CrossesYear() {
		return period.Start.Year, nil
	}
	if month >= period.Start.Month {
		return period.Start.Year, nil
	}
	return period.End.Year, nil
}
