package document

import (
	"strings"

	"docextract/pkg/models"
)

// ParsePassport locates the MRZ in raw and decodes it.
func ParsePassport(raw string) (*models.PassportFields, error) {
	const op = "ParsePassport"

	lines, err := LocateMRZ(raw)
	if err != nil {
		return nil, WrapExtractionError(op, err, "")
	}
	return DecodePassport(lines), nil
}

// DecodePassport reads TD3 fields by their fixed offsets. Offsets past the
// end of a short line decode as empty values.
func DecodePassport(lines MRZLines) *models.PassportFields {
	l1, l2 := lines.Line1, lines.Line2

	parts := strings.SplitN(slice(l1, 5, len(l1)), "<<", 2)
	surname, given := cleanMRZName(parts[0]), ""
	if len(parts) > 1 {
		given = cleanMRZName(parts[1])
	}

	return &models.PassportFields{
		PassportNumber: strings.ReplaceAll(slice(l2, 0, 9), string(MRZFiller), ""),
		CountryCode:    slice(l1, 2, 5),
		Nationality:    slice(l2, 10, 13),
		Surname:        surname,
		GivenNames:     given,
		DateOfBirth:    ParseMRZDate(slice(l2, 13, 19)),
		Sex:            slice(l2, 20, 21),
		ExpiryDate:     ParseMRZDate(slice(l2, 21, 27)),
		MRZLine1:       l1,
		MRZLine2:       l2,
	}
}

func cleanMRZName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, string(MRZFiller), " "))
}

// slice returns s[start:end] clamped to the rune length of s.
func slice(s string, start, end int) string {
	r := []rune(s)
	if start >= len(r) {
		return ""
	}
	if end > len(r) {
		end = len(r)
	}
	return string(r[start:end])
}
