package document

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// TradeLicenseThreshold is the minimum score for a trade license verdict:
// one strong signal plus one corroborating signal.
const TradeLicenseThreshold = 4

// Classification reasons.
const (
	ReasonTradeLicenseScore = "trade-license-score"
	ReasonEmiratesIDNumber  = "emirates-id-number"
	ReasonEmiratesIDKeyword = "emirates-id-keyword"
	ReasonMRZ               = "mrz"
	ReasonPassportKeyword   = "passport-keyword"
	ReasonDefault           = "default"
)

const (
	titleWeight      = 3
	structuralWeight = 2
	numberWeight     = 2
	businessWeight   = 1
	minBusinessTerms = 2
)

type signal struct {
	name string
	re   *regexp.Regexp
}

func signals(pairs ...string) []signal {
	out := make([]signal, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, signal{name: pairs[i], re: regexp.MustCompile(`(?i)` + pairs[i+1])})
	}
	return out
}

var (
	licenseTitles = signals(
		"title", `\b(?:trade|business|commercial|economic)[ \t]*licen[cs]e\b`,
		"title-ar", `الرخصة التجارية|رخصة تجارية`,
		"department", `department[ \t]+of[ \t]+economic[ \t]+development|department[ \t]+of[ \t]+economy[ \t]+and[ \t]+tourism|dubai[ \t]+economy|economic[ \t]+development[ \t]+department`,
	)

	licenseStructure = signals(
		"license-no", `\blicen[cs]e[ \t]*(?:no\b|number\b|#)`,
		"register-no", `\bregist(?:er|ration)[ \t]*(?:no\b|number\b|#)`,
		"trade-name", `\btrade[ \t]*name\b`,
		"legal-form", `\blegal[ \t]*(?:form|type)\b`,
		"expiry-date", `\b(?:expiry|expiration)[ \t]*date\b`,
		"issue-date", `\bissue[ \t]*date\b`,
	)

	licenseNumberLabel = regexp.MustCompile(`(?i)\b(?:licen[cs]e|regist(?:er|ration))[ \t]*(?:no\.?|number|#)[\s:.#]*([A-Z0-9\-/]+)`)

	businessTerms = signals(
		"llc", `\bl\.?l\.?c\b`,
		"fze", `\bfze\b`,
		"fzco", `\bfzco\b`,
		"activities", `\bactivit(?:y|ies)\b`,
		"lessor", `\blessor\b`,
		"partner", `\bpartners?\b`,
		"manager", `\bmanager\b`,
		"commercial", `\bcommercial\b`,
		"trading", `\btrading\b`,
		"establishment", `\bestablishment\b`,
		"sole-proprietorship", `\bsole[ \t]+proprietorship\b`,
		"company", `\bcompany\b`,
	)

	emiratesIDKeywords = regexp.MustCompile(`(?i)\b(?:emirates[ \t]*id(?:entity)?|united[ \t]+arab[ \t]+emirates[ \t]+id|resident[ \t]+identity[ \t]+card)\b`)
	passportKeyword    = regexp.MustCompile(`(?i)\bpassport\b`)
)

// Classification explains a classifier verdict.
type Classification struct {
	Family  models.DocumentFamily `json:"documentType" yaml:"document_type"`
	Score   int                   `json:"score" yaml:"score"`
	Reason  string                `json:"reason" yaml:"reason"`
	Signals []string              `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Classifier decides which document family a block of OCR text belongs to.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	log zerolog.Logger
}

// NewClassifier returns a classifier logging under the "classifier" component.
func NewClassifier() *Classifier {
	return NewClassifierWithLogger(logger.WithComponent("classifier"))
}

// NewClassifierWithLogger returns a classifier using log.
func NewClassifierWithLogger(log zerolog.Logger) *Classifier {
	return &Classifier{log: log}
}

// Classify returns the document family of raw.
func (c *Classifier) Classify(raw string) (models.DocumentFamily, error) {
	res, err := c.Explain(raw)
	if err != nil {
		return "", err
	}
	return res.Family, nil
}

// Explain runs the priority chain and reports which rule decided. Trade
// licenses are checked first because they often quote an owner's passport
// or Emirates ID.
func (c *Classifier) Explain(raw string) (Classification, error) {
	if strings.TrimSpace(raw) == "" {
		return Classification{}, ErrEmptyText
	}

	text := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	score, matched := tradeLicenseScore(text)

	res := Classification{Score: score, Signals: matched}
	switch {
	case score >= TradeLicenseThreshold:
		res.Family, res.Reason = models.FamilyTradeLicense, ReasonTradeLicenseScore
	case emiratesIDHyphenated.MatchString(text) || emiratesIDCompact.MatchString(text):
		res.Family, res.Reason = models.FamilyEmiratesID, ReasonEmiratesIDNumber
	case emiratesIDKeywords.MatchString(text):
		res.Family, res.Reason = models.FamilyEmiratesID, ReasonEmiratesIDKeyword
	case hasPassportMRZ(text):
		res.Family, res.Reason = models.FamilyPassport, ReasonMRZ
	case passportKeyword.MatchString(text) && !hasTradeLicenseIndicator(text):
		res.Family, res.Reason = models.FamilyPassport, ReasonPassportKeyword
	default:
		res.Family, res.Reason = models.FamilyPassport, ReasonDefault
	}

	c.log.Debug().
		Str("family", res.Family.String()).
		Str("reason", res.Reason).
		Int("score", res.Score).
		Strs("signals", res.Signals).
		Msg("Document classified")

	return res, nil
}

// tradeLicenseScore adds up the weighted trade license signals in text and
// returns the names of the ones that contributed.
func tradeLicenseScore(text string) (int, []string) {
	score := 0
	var matched []string

	for _, s := range licenseTitles {
		if s.re.MatchString(text) {
			score += titleWeight
			matched = append(matched, s.name)
			break
		}
	}

	for _, s := range licenseStructure {
		if s.re.MatchString(text) {
			score += structuralWeight
			matched = append(matched, s.name)
		}
	}

	if m := licenseNumberLabel.FindStringSubmatch(text); m != nil && countDigits(m[1]) >= 3 {
		score += numberWeight
		matched = append(matched, "license-number")
	}

	terms := 0
	for _, s := range businessTerms {
		if s.re.MatchString(text) {
			terms++
		}
	}
	if terms >= minBusinessTerms {
		score += businessWeight
		matched = append(matched, "business-terms")
	}

	return score, matched
}

// hasTradeLicenseIndicator reports a title, department or license-number
// phrase, any of which rules out a bare passport keyword.
func hasTradeLicenseIndicator(text string) bool {
	for _, s := range licenseTitles {
		if s.re.MatchString(text) {
			return true
		}
	}
	return licenseStructure[0].re.MatchString(text)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
