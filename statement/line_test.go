package statement

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *RawMatch
	}{
		{
			name: "amount glued to end day",
			line: "DEC 22 DEC 23-$45.67NETFLIX",
			want: &RawMatch{StartMonth: "DEC", StartDay: "22", EndMonth: "DEC", EndDay: "23", Amount: "-$45.67", Vendor: "NETFLIX"},
		},
		{
			name: "negative amount",
			line: "DEC 22 DEC 23 -$45.67NETFLIX",
			want: &RawMatch{StartMonth: "DEC", StartDay: "22", EndMonth: "DEC", EndDay: "23", Amount: "-$45.67", Vendor: "NETFLIX"},
		},
		{
			name: "positive amount, vendor with spaces",
			line: "JAN 5 JAN 6 $1234.50 AMAZON PRIME  ",
			want: &RawMatch{StartMonth: "JAN", StartDay: "5", EndMonth: "JAN", EndDay: "6", Amount: "$1234.50", Vendor: " AMAZON PRIME  "},
		},
		{name: "one decimal digit", line: "JAN 5 JAN 6 $12.5 SHOP"},
		{name: "no decimals", line: "JAN 5 JAN 6 $12 SHOP"},
		{name: "missing dollar sign", line: "JAN 5 JAN 6 12.50 SHOP"},
		{name: "leading text", line: "x JAN 5 JAN 6 $12.50 SHOP"},
		{name: "leading space", line: " JAN 5 JAN 6 $12.50 SHOP"},
		{name: "lower case month", line: "jan 5 jan 6 $12.50 SHOP"},
		{name: "three digit day", line: "JAN 123 JAN 6 $12.50 SHOP"},
		{name: "double space", line: "JAN 5  JAN 6 $12.50 SHOP"},
		{name: "double space before amount", line: "JAN 5 JAN 6  $12.50 SHOP"},
		{name: "no vendor", line: "JAN 5 JAN 6 $12.50"},
		{name: "blank", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line)
			if tt.want == nil {
				if len(got) != 0 {
					t.Fatalf("ParseLine(%q) = %+v, want no match", tt.line, got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("ParseLine(%q) returned %d matches, want 1", tt.line, len(got))
			}
			if got[0] != *tt.want {
				t.Errorf("got %+v, want %+v", got[0], *tt.want)
			}
		})
	}
}
