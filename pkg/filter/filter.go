// pkg/filter/filter.go - Package for limiting the inventory to matching products

package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
)

// ProductFilter matches product codes or display names against a set of patterns.
// A pattern matches when it is a case-insensitive prefix of the value.
type ProductFilter struct {
	patterns []string
}

// NewProductFilter creates a filter from patterns. Blank patterns are ignored.
func NewProductFilter(patterns ...string) *ProductFilter {
	f := &ProductFilter{}
	f.SetPatterns(patterns)
	return f
}

// RegisterFlags registers the --product flag on fs.
func (f *ProductFilter) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(
		&f.patterns,
		"product",
		nil,
		"Limit output to products whose code or name starts with this text. "+
			"Can be repeated or given as a comma-separated list.",
	)
}

// SetPatterns replaces the filter patterns.
func (f *ProductFilter) SetPatterns(patterns []string) {
	f.patterns = f.patterns[:0]
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			f.patterns = append(f.patterns, p)
		}
	}
}

// Patterns returns the current patterns.
func (f *ProductFilter) Patterns() []string {
	if f == nil {
		return nil
	}
	return f.patterns
}

// HasFilter returns true if any pattern is set. A nil filter has none.
func (f *ProductFilter) HasFilter() bool {
	return f != nil && len(f.patterns) > 0
}

// Matches reports whether value matches any pattern. Without patterns everything matches.
func (f *ProductFilter) Matches(value string) bool {
	if !f.HasFilter() {
		return true
	}
	for _, p := range f.patterns {
		if hasPrefixFold(value, p) {
			return true
		}
	}
	return false
}

// hasPrefixFold is strings.HasPrefix under Unicode case folding. It walks runes because
// case forms of the same letter may differ in encoded length.
func hasPrefixFold(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		pr, pn := utf8.DecodeRuneInString(prefix)
		sr, sn := utf8.DecodeRuneInString(s)
		if pr != sr && !strings.EqualFold(prefix[:pn], s[:sn]) {
			return false
		}
		prefix, s = prefix[pn:], s[sn:]
	}
	return true
}

// MatchesProduct reports whether either the product code or its name matches.
func (f *ProductFilter) MatchesProduct(code, name string) bool {
	if !f.HasFilter() {
		return true
	}
	return f.Matches(code) || (name != "" && f.Matches(name))
}
