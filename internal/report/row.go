// Package report flattens processing results into the tabular rows written
// to Google Sheets and xlsx workbooks.
package report

import (
	"strings"
	"time"

	"docextract/internal/processing"
	"docextract/pkg/models"
)

// DateFormat is the UAE day-first layout used in every sheet.
const DateFormat = "02/01/2006"

// TimestampFormat stamps when a row was produced.
const TimestampFormat = "02/01/2006 15:04:05"

// Row status values.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// Headers are the column titles, in Row.Values order.
var Headers = []string{
	"File", "Document Type", "Status", "Identifier", "Name",
	"Date of Birth", "Nationality", "Issue Date", "Expiry Date",
	"Emirate", "Legal Form", "Activity", "Engine", "Errors", "Processed At",
}

// Row is one document flattened to strings.
type Row struct {
	File         string
	DocumentType string
	Status       string
	Identifier   string
	Name         string
	DateOfBirth  string
	Nationality  string
	IssueDate    string
	ExpiryDate   string
	Emirate      string
	LegalForm    string
	Activity     string
	Engine       string
	Errors       string
	ProcessedAt  string
}

// Values returns the cells in Headers order.
func (r Row) Values() []string {
	return []string{
		r.File,         // A
		r.DocumentType, // B
		r.Status,       // C
		r.Identifier,   // D
		r.Name,         // E
		r.DateOfBirth,  // F
		r.Nationality,  // G
		r.IssueDate,    // H
		r.ExpiryDate,   // I
		r.Emirate,      // J
		r.LegalForm,    // K
		r.Activity,     // L
		r.Engine,       // M
		r.Errors,       // N
		r.ProcessedAt,  // O
	}
}

// BuildRows converts batch items to rows, stamping them with processedAt.
func BuildRows(items []processing.BatchItem, processedAt time.Time) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, BuildRow(item, processedAt))
	}
	return rows
}

// BuildRow converts one batch item.
func BuildRow(item processing.BatchItem, processedAt time.Time) Row {
	row := Row{ProcessedAt: processedAt.Format(TimestampFormat)}

	if item.Err != nil || item.Result == nil {
		row.File = baseName(item.Path)
		row.Status = StatusError
		if item.Err != nil {
			row.Errors = item.Err.Error()
		} else {
			row.Errors = item.Error
		}
		return row
	}

	res := item.Result
	row.File = res.FileName
	row.DocumentType = res.Detected.String()
	if res.OCR != nil {
		row.Engine = res.OCR.Engine
	}

	pr := res.Parse
	if pr == nil {
		row.Status = StatusInvalid
		return row
	}

	row.Status = StatusInvalid
	if pr.IsValid {
		row.Status = StatusValid
	}
	row.Identifier = pr.Identifier()
	row.Name = pr.DisplayName()
	row.ExpiryDate = formatDate(pr.Expiry())
	row.Errors = strings.Join(pr.Errors, "; ")

	switch f := pr.Fields().(type) {
	case *models.PassportFields:
		row.DateOfBirth = formatDate(f.DateOfBirth)
		row.Nationality = f.Nationality
	case *models.EmiratesIDFields:
		row.DateOfBirth = formatDate(f.DateOfBirth)
		row.Nationality = f.Nationality
	case *models.TradeLicenseFields:
		row.Nationality = f.OwnerNationality
		row.IssueDate = formatDate(f.IssueDate)
		row.Emirate = f.Emirate
		row.LegalForm = f.LegalForm
		row.Activity = f.Activity
	}

	return row
}

// Summary counts rows by status.
type Summary struct {
	Valid   int `json:"valid" yaml:"valid"`
	Invalid int `json:"invalid" yaml:"invalid"`
	Errors  int `json:"errors" yaml:"errors"`
}

// Summarize counts rows by status.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Status {
		case StatusValid:
			s.Valid++
		case StatusInvalid:
			s.Invalid++
		default:
			s.Errors++
		}
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
