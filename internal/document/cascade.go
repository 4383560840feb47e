package document

import (
	"regexp"
	"strings"
)

// Predicate decides whether a captured value is acceptable for a field.
type Predicate func(value string) bool

// TryPatterns runs an ordered cascade: for each pattern, the first match's
// capture group (trimmed) is offered to accept, and the first accepted value
// wins. A nil accept takes any non-empty value.
func TryPatterns(patterns []*regexp.Regexp, accept Predicate, source string) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		if v, ok := acceptCapture(m, accept); ok {
			return v, true
		}
	}
	return "", false
}

// TryPatternsAll is TryPatterns over every match of each pattern instead of
// only the first one.
func TryPatternsAll(patterns []*regexp.Regexp, accept Predicate, source string) (string, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			if v, ok := acceptCapture(m, accept); ok {
				return v, true
			}
		}
	}
	return "", false
}

func acceptCapture(m []string, accept Predicate) (string, bool) {
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if accept != nil && !accept(v) {
		return "", false
	}
	return v, true
}

// mustCompileAll compiles a cascade. Patterns are case-insensitive unless
// they already carry their own flags.
func mustCompileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		if !strings.HasPrefix(e, "(?") || strings.HasPrefix(e, "(?:") {
			e = "(?i)" + e
		}
		res = append(res, regexp.MustCompile(e))
	}
	return res
}

// lengthBetween accepts values whose length is strictly inside (min, max).
func lengthBetween(min, max int) Predicate {
	return func(v string) bool {
		n := len([]rune(v))
		return n > min && n < max
	}
}

func all(preds ...Predicate) Predicate {
	return func(v string) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}
