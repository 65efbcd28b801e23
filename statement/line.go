package statement

import "regexp"

// transactionPattern is anchored at both ends: a line either matches whole or is skipped.
// Statements print the amount either after a space or glued to the end day.
var transactionPattern = regexp.MustCompile(
	`^(?P<startMonth>[A-Z]{3}) (?P<startDay>\d{1,2}) (?P<endMonth>[A-Z]{3}) (?P<endDay>\d{1,2}) ?(?P<amount>-?\$\d+\.\d{2})(?P<vendor>.+)$`,
)

// RawMatch holds the text fields captured from one transaction line.
type RawMatch struct {
	StartMonth string
	StartDay   string
	EndMonth   string
	EndDay     string
	Amount     string
	Vendor     string
}

// ParseLine returns the transaction fields found in line. Lines that are not
// transaction rows yield nil.
func ParseLine(line string) []RawMatch {
	found := transactionPattern.FindAllStringSubmatch(line, -1)
	if len(found) == 0 {
		return nil
	}

	matches := make([]RawMatch, 0, len(found))
	for _, m := range found {
		matches = append(matches, RawMatch{
			StartMonth: m[transactionPattern.SubexpIndex("startMonth")],
			StartDay:   m[transactionPattern.SubexpIndex("startDay")],
			EndMonth:   m[transactionPattern.SubexpIndex("endMonth")],
			EndDay:     m[transactionPattern.SubexpIndex("endDay")],
			Amount:     m[transactionPattern.SubexpIndex("amount")],
			Vendor:     m[transactionPattern.SubexpIndex("vendor")],
		})
	}
	return matches
}
