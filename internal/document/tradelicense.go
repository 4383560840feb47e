package document

import (
	"regexp"
	"strings"
	"time"

	"docextract/pkg/models"
)

const (
	licenseLabel  = `(?:licen[cs]e[ \t]*number|licen[cs]e[ \t]*no\.?|licen[cs]e[ \t]*#|trade[ \t]*licen[cs]e(?:[ \t]*(?:number|no\.?|#))?)`
	licenseCode   = `([A-Z0-9\-/]*\d[A-Z0-9\-/]*)`
	separatedDate = `(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`
	freeText      = `([A-Za-z0-9][A-Za-z0-9 \t&.,'()/-]*)`
	wordsText     = `([A-Za-z][A-Za-z \t.]*)`
)

var (
	licenseNumberPatterns = mustCompileAll(
		licenseLabel+`[\s:.#]*`+licenseCode,
		`(?:licen[cs]e|lic\.)[\s:]*([A-Z0-9\-/]{6,})`,
		// Last resort, intentionally loose: any short letter prefix followed by digit groups.
		`\b([A-Z]{1,3}[-/]?\d{4,}[-/]?\d{2,})\b`,
	)

	companyNamePatterns = mustCompileAll(
		`(?:company[ \t]*name|trad(?:e|ing)[ \t]*name|business[ \t]*name|name[ \t]*of[ \t]*(?:the[ \t]*)?company)[\s:]+`+freeText,
		`\bname[\s:]+([A-Z][A-Za-z0-9 \t&.,'()-]{3,})`,
	)

	expiryPatterns = mustCompileAll(
		`(?:expiry[ \t]*date|date[ \t]*of[ \t]*expiry|expires|valid[ \t]*until|valid[ \t]*till|expiration(?:[ \t]*date)?)[\s:]+`+separatedDate,
		`(?:expiry|expires)[\s:]+`+separatedDate,
		// Last resort, intentionally loose: any date in the text that lies in the future.
		`\b`+separatedDate+`\b`,
	)

	issueDatePatterns = mustCompileAll(
		`(?:issue[ \t]*date|issued[ \t]*on|date[ \t]*of[ \t]*issue)[\s:]+` + separatedDate,
	)

	licenseTypePatterns = mustCompileAll(
		`(?:licen[cs]e[ \t]*type|type[ \t]*of[ \t]*licen[cs]e)[\s:]+`+wordsText,
		`\btype[\s:]+(commercial|professional|industrial|general|service|tourism)\b`,
	)

	activityPatterns = mustCompileAll(
		`(?:business[ \t]*activit(?:y|ies)|main[ \t]*activit(?:y|ies)|activit(?:y|ies))[\s:]+`+freeText,
		`activity[ \t]*(?:code|description)[\s:]+`+freeText,
	)

	legalFormPatterns = mustCompileAll(
		`(?:legal[ \t]*(?:form|type|status)|form[ \t]*of[ \t]*business)[\s:]+`+wordsText,
		`\bform[\s:]+(L\.?L\.?C\.?|FZ-?LLC|FZE|FZCO|sole[ \t]*proprietorship|partnership|establishment)`,
	)

	addressPatterns = mustCompileAll(
		`(?:registered[ \t]*address|address)[\s:]+([A-Za-z0-9][A-Za-z0-9 \t,./#()-]*)`,
		`(?:business[ \t]*address|location)[\s:]+([A-Za-z0-9][A-Za-z0-9 \t,./#()-]*)`,
	)

	// An unlabelled owner needs at least two words.
	ownerNamePatterns = mustCompileAll(
		`\b(?:owner|proprietor|manager|partner)[\s:]+([A-Za-z]+(?:[ \t]+[A-Za-z]+)+)`,
		`(?:owner[ \t]*name|name[ \t]*of[ \t]*(?:the[ \t]*)?owner)[\s:]+`+wordsText,
	)

	ownerNationalityPatterns = mustCompileAll(
		`nationality[ \t]*of[ \t]*(?:the[ \t]*)?owner[\s:]+`+wordsText,
		`owner[ \t]*nationality[\s:]+`+wordsText,
		`nationality[\s:]+`+wordsText,
	)

	emirateNames = []string{"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Umm Al Quwain", "Ras Al Khaimah", "Fujairah"}
	emiratesRe   = compileEmirates(emirateNames)
)

// Words that open another trade license field.
var licenseLabelWords = map[string]bool{
	"license": true, "licence": true, "number": true, "no": true, "legal": true,
	"form": true, "type": true, "activity": true, "activities": true, "address": true,
	"expiry": true, "expiration": true, "issue": true, "date": true, "owner": true,
	"nationality": true, "manager": true, "partner": true, "emirate": true,
	"passport": true, "name": true, "tel": true, "phone": true, "fax": true, "email": true,
}

func compileEmirates(names []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(names))
	for i, n := range names {
		words := strings.Fields(regexp.QuoteMeta(n))
		res[i] = regexp.MustCompile(`(?i)\b` + strings.Join(words, `[ \t]+`) + `\b`)
	}
	return res
}

// TradeLicenseParser extracts trade license fields. The clock decides which
// dates count as a future expiry.
type TradeLicenseParser struct {
	now func() time.Time
}

// NewTradeLicenseParser returns a parser using now as its reference clock.
func NewTradeLicenseParser(now func() time.Time) *TradeLicenseParser {
	if now == nil {
		now = time.Now
	}
	return &TradeLicenseParser{now: now}
}

// ParseTradeLicense parses raw with the wall clock as reference.
func ParseTradeLicense(raw string) (*models.TradeLicenseFields, error) {
	return NewTradeLicenseParser(nil).Parse(raw)
}

// Parse extracts every field independently. The record is rejected only
// when neither a license number nor a company name was found.
func (p *TradeLicenseParser) Parse(raw string) (*models.TradeLicenseFields, error) {
	const op = "ParseTradeLicense"

	text := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	f := &models.TradeLicenseFields{}

	f.TradeLicenseNumber, _ = TryPatterns(licenseNumberPatterns, licenseNumberAccept, text)
	f.CompanyName, _ = TryPatterns(companyNamePatterns, companyNameAccept, text)
	f.ExpiryDate = p.futureDate(text)
	if v, ok := TryPatterns(issueDatePatterns, isDate, text); ok {
		f.IssueDate = ParseDate(v)
	}
	if v, ok := TryPatterns(licenseTypePatterns, hasLicenseValue, text); ok {
		f.LicenseType = cutAtWords(v, licenseLabelWords)
	}
	f.Activity, _ = TryPatterns(activityPatterns, lengthBetween(5, 200), text)
	if v, ok := TryPatterns(legalFormPatterns, hasLicenseValue, text); ok {
		f.LegalForm = cutAtWords(v, licenseLabelWords)
	}
	f.Address, _ = TryPatterns(addressPatterns, lengthBetween(10, 300), text)
	f.Emirate = findEmirate(text)
	if v, ok := TryPatterns(ownerNamePatterns, ownerNameAccept, text); ok {
		f.OwnerName = cutAtWords(v, licenseLabelWords)
	}
	if v, ok := TryPatterns(ownerNationalityPatterns, hasLicenseValue, text); ok {
		f.OwnerNationality = cutAtWords(v, licenseLabelWords)
	}

	if strings.TrimSpace(f.TradeLicenseNumber) == "" && strings.TrimSpace(f.CompanyName) == "" {
		return nil, WrapExtractionError(op, ErrTradeLicenseIdentifiersNotDetected, "")
	}
	return f, nil
}

// futureDate scans every expiry candidate and keeps the first one strictly
// after the reference clock.
func (p *TradeLicenseParser) futureDate(text string) *time.Time {
	now := p.now()
	v, ok := TryPatternsAll(expiryPatterns, func(s string) bool {
		t := ParseDate(s)
		return t != nil && t.After(now)
	}, text)
	if !ok {
		return nil
	}
	return ParseDate(v)
}

func findEmirate(text string) string {
	for i, re := range emiratesRe {
		if re.MatchString(text) {
			return emirateNames[i]
		}
	}
	return ""
}

func licenseNumberAccept(v string) bool {
	return strings.ContainsAny(v, "0123456789")
}

// companyNameAccept rejects captures holding the literal label words
// "License" or "Number"; other casings are left to the length check.
func companyNameAccept(v string) bool {
	if strings.Contains(v, "License") || strings.Contains(v, "Number") {
		return false
	}
	n := len([]rune(v))
	return n >= 4 && n < 200
}

func ownerNameAccept(v string) bool {
	return lengthBetween(3, 100)(cutAtWords(v, licenseLabelWords))
}

func hasLicenseValue(v string) bool {
	return cutAtWords(v, licenseLabelWords) != ""
}

func isDate(v string) bool {
	return ParseDate(v) != nil
}

// cutAtWords truncates s at the first word found in stop.
func cutAtWords(s string, stop map[string]bool) string {
	words := strings.Fields(s)
	for i, w := range words {
		if stop[strings.ToLower(strings.Trim(w, ":.-#"))] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}
