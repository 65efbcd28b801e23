package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// periodPattern matches "STATEMENT PERIOD: Dec 20, 2023 to Jan 19, 2024".
var periodPattern = regexp.MustCompile(
	`(?i)STATEMENT PERIOD:\s*(?P<startMonth>[A-Z]+) (?P<startDay>\d{1,2}), (?P<startYear>\d{4}) to (?P<endMonth>[A-Z]+) (?P<endDay>\d{1,2}), (?P<endYear>\d{4})`,
)

// StatementPeriod is the billing cycle a statement covers.
type StatementPeriod struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Contains reports whether d falls within the period, bounds included.
func (p StatementPeriod) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// CrossesYear reports whether the period spans a year boundary.
func (p StatementPeriod) CrossesYear() bool {
	return p.Start.Year != p.End.Year
}

func (p StatementPeriod) String() string {
	return p.Start.String() + ".." + p.End.String()
}

// ExtractPeriod finds the single statement period line in text.
func ExtractPeriod(text string) (StatementPeriod, error) {
	matches := periodPattern.FindAllStringSubmatch(text, -1)
	switch {
	case len(matches) == 0:
		return StatementPeriod{}, ErrMissingStatementPeriod
	case len(matches) > 1:
		return StatementPeriod{}, fmt.Errorf("%w: %d candidates", ErrAmbiguousStatementPeriod, len(matches))
	}

	m := matches[0]
	group := func(name string) string {
		return m[periodPattern.SubexpIndex(name)]
	}

	start, err := periodDate(group("startMonth"), group("startDay"), group("startYear"))
	if err != nil {
		return StatementPeriod{}, fmt.Errorf("period start: %w", err)
	}
	end, err := periodDate(group("endMonth"), group("endDay"), group("endYear"))
	if err != nil {
		return StatementPeriod{}, fmt.Errorf("period end: %w", err)
	}

	period := StatementPeriod{Start: start, End: end}
	if period.End.Before(period.Start) {
		return StatementPeriod{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	return period, nil
}

func periodDate(month, day, year string) (civil.Date, error) {
	m, ok := monthFromName(month)
	if !ok {
		return civil.Date{}, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, month)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: year %q", ErrInvalidDate, year)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: day %q", ErrInvalidDate, day)
	}
	return calendarDate(y, m, d)
}

// calendarDate builds a date and rejects values time.Date would normalize,
// such as February 30.
func calendarDate(year int, month time.Month, day int) (civil.Date, error) {
	d := civil.Date{Year: year, Month: month, Day: day}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return d, nil
}

var monthNames = func() map[string]time.Month {
	names := make(map[string]time.Month, 25)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		names[full] = m
		names[full[:3]] = m
	}
	names["sept"] = time.September
	return names
}()

// monthFromName accepts full month names and three letter abbreviations in any case.
func monthFromName(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(name)]
	return m, ok
}
