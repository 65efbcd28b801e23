package statement

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestResolveYear(t *testing.T) {
	march := StatementPeriod{
		Start: civil.Date{Year: 2024, Month: time.March, Day: 1},
		End:   civil.Date{Year: 2024, Month: time.March, Day: 31},
	}
	newYear := StatementPeriod{
		Start: civil.Date{Year: 2023, Month: time.December, Day: 20},
		End:   civil.Date{Year: 2024, Month: time.January, Day: 19},
	}

	tests := []struct {
		name   string
		day    int
		month  time.Month
		period StatementPeriod
		want   int
	}{
		{"single year", 15, time.March, march, 2024},
		{"crossing, trailing december", 22, time.December, newYear, 2023},
		{"crossing, leading january", 5, time.January, newYear, 2024},
		{"crossing, first day", 20, time.December, newYear, 2023},
		{"crossing, last day", 19, time.January, newYear, 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveYear(tt.day, tt.month, tt.period)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveYear(%d, %s) = %d, want %d", tt.day, tt.month, got, tt.want)
			}
		})
	}
}

func TestResolveYearInvalidPeriod(t *testing.T) {
	p := StatementPeriod{
		Start: civil.Date{Year: 2024, Month: time.January, Day: 19},
		End:   civil.Date{Year: 2023, Month: time.December, Day: 20},
	}
	if _, err := ResolveYear(1, time.January, p); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("got %v, want ErrInvalidPeriod", err)
	}
}

func TestResolveYearKeepsDatesInsidePeriod(t *testing.T) {
	p := StatementPeriod{
		Start: civil.Date{Year: 2023, Month: time.November, Day: 25},
		End:   civil.Date{Year: 2024, Month: time.February, Day: 10},
	}

	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		year, err := ResolveYear(d.Day, d.Month, p)
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		if year != d.Year {
			t.Errorf("%s resolved to year %d", d, year)
		}
	}
}
