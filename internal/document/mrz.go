package document

import (
	"strings"
	"unicode/utf8"
)

const (
	// MRZFiller pads MRZ fields and separates name components.
	MRZFiller = '<'

	// MinMRZLineLength rejects short noise lines that happen to contain a filler.
	MinMRZLineLength = 30

	passportMRZPrefix = "P<"
)

// MRZLines are the two machine readable zone lines of a TD3 document.
type MRZLines struct {
	Line1 string
	Line2 string
}

// normalizeLines converts every line ending to \n, splits and trims.
func normalizeLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// mrzCandidates returns lines that look like MRZ lines, in text order.
func mrzCandidates(raw string) []string {
	var out []string
	for _, l := range normalizeLines(raw) {
		if strings.ContainsRune(l, MRZFiller) && utf8.RuneCountInString(l) >= MinMRZLineLength {
			out = append(out, l)
		}
	}
	return out
}

// LocateMRZ finds the two MRZ lines of a passport in arbitrary OCR text.
// Line 1 is the first candidate starting with "P<". Line 2 is the remaining
// candidate with the most fillers; the earliest one wins a tie.
func LocateMRZ(raw string) (MRZLines, error) {
	candidates := mrzCandidates(raw)
	if len(candidates) == 0 {
		return MRZLines{}, ErrNoMRZCandidates
	}

	line1 := ""
	for _, c := range candidates {
		if strings.HasPrefix(c, passportMRZPrefix) {
			line1 = c
			break
		}
	}
	if line1 == "" {
		return MRZLines{}, ErrMRZLine1NotFound
	}

	line2, best := "", -1
	for _, c := range candidates {
		if c == line1 {
			continue
		}
		if n := strings.Count(c, string(MRZFiller)); n > best {
			line2, best = c, n
		}
	}
	if line2 == "" {
		return MRZLines{}, ErrMRZLine2NotFound
	}

	return MRZLines{Line1: line1, Line2: line2}, nil
}

// hasPassportMRZ reports whether any MRZ candidate starts with "P<".
func hasPassportMRZ(raw string) bool {
	for _, c := range mrzCandidates(raw) {
		if strings.HasPrefix(c, passportMRZPrefix) {
			return true
		}
	}
	return false
}
