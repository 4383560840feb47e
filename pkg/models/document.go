package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DocumentFamily identifies one of the supported document kinds.
type DocumentFamily string

const (
	FamilyPassport     DocumentFamily = "Passport"
	FamilyEmiratesID   DocumentFamily = "EmiratesID"
	FamilyTradeLicense DocumentFamily = "UAETradeLicense"
)

// Families returns every supported family in declaration order.
func Families() []DocumentFamily {
	return []DocumentFamily{FamilyPassport, FamilyEmiratesID, FamilyTradeLicense}
}

// IsValid reports whether f is one of the supported families.
func (f DocumentFamily) IsValid() bool {
	switch f {
	case FamilyPassport, FamilyEmiratesID, FamilyTradeLicense:
		return true
	}
	return false
}

func (f DocumentFamily) String() string {
	return string(f)
}

// ErrUnknownFamily is returned by ParseFamily for names outside the enumeration.
var ErrUnknownFamily = errors.New("unknown document family")

// ParseFamily resolves a user supplied family name (CLI flag, form field).
func ParseFamily(s string) (DocumentFamily, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passport":
		return FamilyPassport, nil
	case "emiratesid", "emirates-id", "emirates_id", "eid":
		return FamilyEmiratesID, nil
	case "uaetradelicense", "trade-license", "trade_license", "tradelicense", "license":
		return FamilyTradeLicense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// FamilyFields is implemented by the per-family field records only.
type FamilyFields interface {
	Family() DocumentFamily
	sealed()
}

// PassportFields holds the values decoded from a TD3 machine readable zone.
type PassportFields struct {
	PassportNumber string     `json:"passportNumber" yaml:"passport_number"`
	CountryCode    string     `json:"countryCode" yaml:"country_code"`
	Nationality    string     `json:"nationality" yaml:"nationality"`
	Surname        string     `json:"surname" yaml:"surname"`
	GivenNames     string     `json:"givenNames" yaml:"given_names"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty" yaml:"date_of_birth,omitempty"`
	Sex            string     `json:"sex" yaml:"sex"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty" yaml:"expiry_date,omitempty"`
	MRZLine1       string     `json:"mrzLine1" yaml:"mrz_line1"`
	MRZLine2       string     `json:"mrzLine2" yaml:"mrz_line2"`
}

// EmiratesIDFields holds the values extracted from a UAE identity card.
type EmiratesIDFields struct {
	IDNumber    string     `json:"idNumber" yaml:"id_number"`
	FullName    string     `json:"fullName" yaml:"full_name"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" yaml:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality" yaml:"nationality"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty" yaml:"expiry_date,omitempty"`
}

// TradeLicenseFields holds the values extracted from a UAE trade license.
type TradeLicenseFields struct {
	CompanyName        string     `json:"companyName" yaml:"company_name"`
	TradeLicenseNumber string     `json:"tradeLicenseNumber" yaml:"trade_license_number"`
	IssueDate          *time.Time `json:"issueDate,omitempty" yaml:"issue_date,omitempty"`
	ExpiryDate         *time.Time `json:"expiryDate,omitempty" yaml:"expiry_date,omitempty"`
	LicenseType        string     `json:"licenseType" yaml:"license_type"`
	Activity           string     `json:"activity" yaml:"activity"`
	LegalForm          string     `json:"legalForm" yaml:"legal_form"`
	Address            string     `json:"address" yaml:"address"`
	Emirate            string     `json:"emirate" yaml:"emirate"`
	OwnerName          string     `json:"ownerName" yaml:"owner_name"`
	OwnerNationality   string     `json:"ownerNationality" yaml:"owner_nationality"`
}

func (*PassportFields) Family() DocumentFamily     { return FamilyPassport }
func (*EmiratesIDFields) Family() DocumentFamily   { return FamilyEmiratesID }
func (*TradeLicenseFields) Family() DocumentFamily { return FamilyTradeLicense }

func (*PassportFields) sealed()     {}
func (*EmiratesIDFields) sealed()   {}
func (*TradeLicenseFields) sealed() {}

// ParseResult is the outcome of running one family parser over raw text.
// At most one of the field records is set, and only when IsValid is true.
type ParseResult struct {
	Family       DocumentFamily      `json:"documentType" yaml:"document_type"`
	IsValid      bool                `json:"isValid" yaml:"is_valid"`
	Passport     *PassportFields     `json:"passport,omitempty" yaml:"passport,omitempty"`
	EmiratesID   *EmiratesIDFields   `json:"emiratesId,omitempty" yaml:"emirates_id,omitempty"`
	TradeLicense *TradeLicenseFields `json:"uaeTradeLicense,omitempty" yaml:"uae_trade_license,omitempty"`
	RawText      string              `json:"rawText" yaml:"raw_text"`
	Errors       []string            `json:"errors" yaml:"errors"`
}

// NewParseResult returns an empty, not yet valid result for family.
func NewParseResult(family DocumentFamily, raw string) *ParseResult {
	return &ParseResult{
		Family:  family,
		RawText: raw,
		Errors:  []string{},
	}
}

// Fields returns whichever field record is populated, or nil.
func (r *ParseResult) Fields() FamilyFields {
	switch {
	case r.Passport != nil:
		return r.Passport
	case r.EmiratesID != nil:
		return r.EmiratesID
	case r.TradeLicense != nil:
		return r.TradeLicense
	}
	return nil
}

// SetFields stores f in the slot matching its family and marks the result valid.
func (r *ParseResult) SetFields(f FamilyFields) {
	r.Passport, r.EmiratesID, r.TradeLicense = nil, nil, nil
	switch v := f.(type) {
	case *PassportFields:
		r.Passport = v
	case *EmiratesIDFields:
		r.EmiratesID = v
	case *TradeLicenseFields:
		r.TradeLicense = v
	}
	r.IsValid = r.Fields() != nil
}

// Fail clears any fields and records msg.
func (r *ParseResult) Fail(msg string) {
	r.Passport, r.EmiratesID, r.TradeLicense = nil, nil, nil
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
}

// Identifier returns the primary document number of the populated record.
func (r *ParseResult) Identifier() string {
	switch f := r.Fields().(type) {
	case *PassportFields:
		return f.PassportNumber
	case *EmiratesIDFields:
		return f.IDNumber
	case *TradeLicenseFields:
		return f.TradeLicenseNumber
	}
	return ""
}

// DisplayName returns the holder or company name of the populated record.
func (r *ParseResult) DisplayName() string {
	switch f := r.Fields().(type) {
	case *PassportFields:
		return strings.TrimSpace(f.GivenNames + " " + f.Surname)
	case *EmiratesIDFields:
		return f.FullName
	case *TradeLicenseFields:
		return f.CompanyName
	}
	return ""
}

// Expiry returns the expiry date of the populated record, if any.
func (r *ParseResult) Expiry() *time.Time {
	switch f := r.Fields().(type) {
	case *PassportFields:
		return f.ExpiryDate
	case *EmiratesIDFields:
		return f.ExpiryDate
	case *TradeLicenseFields:
		return f.ExpiryDate
	}
	return nil
}
