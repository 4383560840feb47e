package document

import (
	"regexp"
	"strings"
	"time"

	"docextract/pkg/models"
)

var (
	emiratesIDHyphenated = regexp.MustCompile(`784-\d{4}-\d{7}-\d`)
	emiratesIDCompact    = regexp.MustCompile(`\b784\d{12}\b`)

	// Spaced names need at least two words.
	eidNamePatterns = mustCompileAll(
		`\bname[\s:]*([A-Za-z][A-Za-z'-]*(?:[ \t]+[A-Za-z][A-Za-z'-]*)+)`,
		// Camel-joined names are split on case, so this one stays case-sensitive.
		`(?i:name)[\s:]*((?:[A-Z][a-z]+){2,})`,
		`(?:full[ \t]*name|name[ \t]*of[ \t]*holder)[\s:]+([A-Za-z][A-Za-z \t.'-]+)`,
	)

	eidBirthPatterns  = datePatterns(`(?:date[ \t]*of[ \t]*birth|birth[ \t]*date|d\.?o\.?b\.?)`)
	eidExpiryPatterns = datePatterns(`(?:date[ \t]*of[ \t]*)?expi?ry(?:[ \t]*date)?`)

	eidNationalityPatterns = mustCompileAll(
		`nationality[ \t]*[:\-]?[ \t]*([A-Za-z][A-Za-z \t]*)`,
		`nationality[ \t]*[:\-]?[ \t]*\n[ \t]*([A-Za-z][A-Za-z \t]*)`,
	)

	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	nonLetters    = regexp.MustCompile(`[^A-Za-z\s]+`)
)

// Words that start another field on a card. A capture running into one of
// them is cut there.
var fieldLabelWords = map[string]bool{
	"nationality": true, "date": true, "birth": true, "sex": true, "gender": true,
	"expiry": true, "expry": true, "issue": true, "card": true, "number": true,
	"signature": true, "id": true, "dob": true,
}

// datePatterns builds the label-anchored date cascade: separated dates,
// 8 digit DDMMYYYY, then 9-10 digit runs with a stray digit.
func datePatterns(label string) []*regexp.Regexp {
	return mustCompileAll(
		label+`[\s:]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`,
		label+`[\s:]*(\d{8})\b`,
		label+`[\s:]*(\d{9,10})\b`,
	)
}

// NormalizeEmiratesID formats a 15 digit ID as 784-XXXX-XXXXXXX-X.
func NormalizeEmiratesID(id string) string {
	digits := strings.ReplaceAll(id, "-", "")
	if len(digits) != 15 || !isDigits(digits) {
		return id
	}
	return digits[0:3] + "-" + digits[3:7] + "-" + digits[7:14] + "-" + digits[14:15]
}

// findEmiratesID returns the canonical ID number found in raw, if any.
func findEmiratesID(raw string) (string, bool) {
	if m := emiratesIDHyphenated.FindString(raw); m != "" {
		return m, true
	}
	if m := emiratesIDCompact.FindString(raw); m != "" {
		return NormalizeEmiratesID(m), true
	}
	return "", false
}

// ParseEmiratesID extracts identity card fields. Only the ID number is
// mandatory.
func ParseEmiratesID(raw string) (*models.EmiratesIDFields, error) {
	const op = "ParseEmiratesID"

	id, ok := findEmiratesID(raw)
	if !ok {
		return nil, WrapExtractionError(op, ErrEmiratesIDNotDetected, "")
	}

	fields := &models.EmiratesIDFields{IDNumber: id}

	if name, ok := TryPatterns(eidNamePatterns, nameAccept, raw); ok {
		fields.FullName = cleanPersonName(cutAtLabel(name))
	}
	fields.DateOfBirth = firstDate(eidBirthPatterns, raw)
	fields.ExpiryDate = firstDate(eidExpiryPatterns, raw)
	if nat, ok := TryPatterns(eidNationalityPatterns, hasWordsBeforeLabel, raw); ok {
		fields.Nationality = lettersOnly(cutAtLabel(nat))
	}

	return fields, nil
}

// firstDate returns the first cascade capture that decodes to a date.
func firstDate(patterns []*regexp.Regexp, raw string) *time.Time {
	v, ok := TryPatterns(patterns, func(s string) bool { return parseAnyDate(s) != nil }, raw)
	if !ok {
		return nil
	}
	return parseAnyDate(v)
}

// cutAtLabel drops everything from the first card label word onwards.
func cutAtLabel(s string) string {
	return cutAtWords(s, fieldLabelWords)
}

func hasWordsBeforeLabel(s string) bool {
	return len(lettersOnly(cutAtLabel(s))) >= 2
}

// nameAccept also skips a bare "Name" that opens a "Name of Holder" label.
func nameAccept(s string) bool {
	return !strings.HasPrefix(strings.ToLower(s), "of ") && hasWordsBeforeLabel(s)
}

// cleanPersonName re-spaces camel-joined names, then keeps letters only.
func cleanPersonName(s string) string {
	return lettersOnly(camelBoundary.ReplaceAllString(s, "$1 $2"))
}

func lettersOnly(s string) string {
	return strings.Join(strings.Fields(nonLetters.ReplaceAllString(s, "")), " ")
}
