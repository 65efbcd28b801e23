package statement

import (
	"bufio"
	"regexp"
	"strings"
)

// cardPattern matches a masked card number such as "1234 56XX XXXX 7890".
var cardPattern = regexp.MustCompile(`^\d{4} \d{2}XX XXXX \d{4}$`)

// CardSection holds every line that followed one card marker, in document order.
type CardSection struct {
	CardKey string
	Lines   []string
}

// CardSections is an insertion-ordered mapping of card key to section.
type CardSections struct {
	sections []*CardSection
	index    map[string]int
}

// NewCardSections returns an empty mapping.
func NewCardSections() *CardSections {
	return &CardSections{index: make(map[string]int)}
}

// Section returns the bucket for cardKey, creating it on first use.
func (c *CardSections) Section(cardKey string) *CardSection {
	if i, ok := c.index[cardKey]; ok {
		return c.sections[i]
	}
	s := &CardSection{CardKey: cardKey}
	c.index[cardKey] = len(c.sections)
	c.sections = append(c.sections, s)
	return s
}

// Get looks up a card section without creating it.
func (c *CardSections) Get(cardKey string) (*CardSection, bool) {
	i, ok := c.index[cardKey]
	if !ok {
		return nil, false
	}
	return c.sections[i], true
}

// Keys returns card keys in order of first appearance.
func (c *CardSections) Keys() []string {
	keys := make([]string, len(c.sections))
	for i, s := range c.sections {
		keys[i] = s.CardKey
	}
	return keys
}

// All returns the sections in order of first appearance.
func (c *CardSections) All() []*CardSection {
	return c.sections
}

// Len returns the number of distinct cards.
func (c *CardSections) Len() int {
	return len(c.sections)
}

// IsCardMarker reports whether the trimmed line is exactly a masked card number.
func IsCardMarker(line string) bool {
	return cardPattern.MatchString(strings.TrimSpace(line))
}

// SplitByCard groups the lines of text under the card marker they follow.
// Lines before the first marker are dropped. A marker seen again resumes its
// existing bucket.
func SplitByCard(text string) *CardSections {
	sections := NewCardSections()
	var current *CardSection

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if IsCardMarker(line) {
			current = sections.Section(strings.TrimSpace(line))
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	return sections
}
