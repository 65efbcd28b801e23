package statement

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
)

// CardSuffix returns the last four digits of a card key.
func CardSuffix(cardKey string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cardKey)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// Assemble turns every matching line of every card section into a new,
// unpersisted transaction. Order follows card first appearance, then line order.
func Assemble(sections *CardSections, period StatementPeriod, logger *slog.Logger) ([]models.Transaction, error) {
	if logger == nil {
		logger = slog.Default()
	}

	transactions := []models.Transaction{}
	for _, section := range sections.All() {
		suffix := CardSuffix(section.CardKey)
		for _, line := range section.Lines {
			matches := ParseLine(line)
			if len(matches) == 0 {
				logger.Debug("skipping non-transaction line", "card", suffix, "line", line)
				continue
			}
			for _, m := range matches {
				t, err := buildTransaction(suffix, m, period)
				if err != nil {
					return nil, fmt.Errorf("card %s line %q: %w", suffix, line, err)
				}
				transactions = append(transactions, t)
			}
		}
	}
	return transactions, nil
}

func buildTransaction(suffix string, m RawMatch, period StatementPeriod) (models.Transaction, error) {
	start, err := resolveDate(m.StartMonth, m.StartDay, period)
	if err != nil {
		return models.Transaction{}, err
	}
	end, err := resolveDate(m.EndMonth, m.EndDay, period)
	if err != nil {
		return models.Transaction{}, err
	}
	if end.Before(start) {
		return models.Transaction{}, fmt.Errorf("%w: ends %s before it starts %s", ErrInvalidDate, end, start)
	}

	return models.Transaction{
		CardNumber: suffix,
		Start:      start,
		End:        end,
		Amount:     m.Amount,
		Vendor:     m.Vendor,
	}, nil
}

func resolveDate(month, day string, period StatementPeriod) (civil.Date, error) {
	mm, ok := monthFromName(month)
	if !ok || len(month) != 3 {
		return civil.Date{}, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, month)
	}

	dd, err := strconv.Atoi(day)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: day %q", ErrInvalidDate, day)
	}
	year, err := ResolveYear(dd, mm, period)
	if err != nil {
		return civil.Date{}, err
	}

	d, err := calendarDate(year, mm, dd)
	if err != nil {
		return civil.Date{}, err
	}
	if !period.Contains(d) {
		return civil.Date{}, fmt.Errorf("%w: %s not in %s", ErrDateOutsidePeriod, d, period)
	}
	return d, nil
}
