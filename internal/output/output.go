// Package output renders processing results for the command line as JSON,
// YAML or colored text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"docextract/internal/document"
	"docextract/internal/processing"
	"docextract/internal/report"
	"docextract/pkg/models"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Printer writes values in one format.
type Printer struct {
	format Format
	colors map[string]*color.Color
}

// NewPrinter returns a printer for format. noColor strips ANSI codes from
// text output; JSON and YAML never carry them.
func NewPrinter(format Format, noColor bool) *Printer {
	colors := map[string]*color.Color{
		"title": color.New(color.FgWhite, color.Bold),
		"label": color.New(color.FgCyan),
		"ok":    color.New(color.FgGreen),
		"bad":   color.New(color.FgRed),
		"warn":  color.New(color.FgYellow),
	}
	if noColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}
	return &Printer{format: format, colors: colors}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Print renders v. Text rendering understands the result types of this
// module and falls back to JSON for anything else.
func (p *Printer) Print(w io.Writer, v any) error {
	switch p.format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, v)
	}

	switch t := v.(type) {
	case []processing.BatchItem:
		return p.printBatch(w, t)
	case *processing.Result:
		p.printResult(w, t)
		return nil
	case *models.ParseResult:
		p.printParse(w, t)
		return nil
	case document.Classification:
		p.printClassification(w, t)
		return nil
	default:
		return writeJSON(w, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func (p *Printer) printBatch(w io.Writer, items []processing.BatchItem) error {
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if item.Err != nil {
			p.colors["title"].Fprintln(w, filepath.Base(item.Path))
			p.field(w, "Error", p.colors["bad"].Sprint(item.Err.Error()))
			continue
		}
		p.printResult(w, item.Result)
	}

	sum := report.Summarize(report.BuildRows(items, time.Time{}))
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "%s %d  %s %d  %s %d\n",
		p.colors["ok"].Sprint("valid:"), sum.Valid,
		p.colors["warn"].Sprint("invalid:"), sum.Invalid,
		p.colors["bad"].Sprint("errors:"), sum.Errors)
	return nil
}

func (p *Printer) printResult(w io.Writer, res *processing.Result) {
	if res == nil {
		return
	}
	p.colors["title"].Fprintln(w, res.FileName)
	if res.OCR != nil {
		p.field(w, "Engine", res.OCR.Engine)
	}
	if res.Enhanced {
		p.field(w, "Enhanced", "yes")
	}
	p.field(w, "Detected", fmt.Sprintf("%s (%s)", res.Detected, res.Classification.Reason))
	p.printParse(w, res.Parse)
}

func (p *Printer) printClassification(w io.Writer, c document.Classification) {
	p.field(w, "Document Type", c.Family.String())
	p.field(w, "Reason", c.Reason)
	p.field(w, "Score", fmt.Sprint(c.Score))
	if len(c.Signals) > 0 {
		p.field(w, "Signals", strings.Join(c.Signals, ", "))
	}
}

func (p *Printer) printParse(w io.Writer, pr *models.ParseResult) {
	if pr == nil {
		return
	}

	status := p.colors["ok"].Sprint("valid")
	if !pr.IsValid {
		status = p.colors["bad"].Sprint("invalid")
	}
	p.field(w, "Status", status)

	for _, e := range pr.Errors {
		p.field(w, "Error", p.colors["warn"].Sprint(e))
	}

	switch f := pr.Fields().(type) {
	case *models.PassportFields:
		p.field(w, "Passport No", f.PassportNumber)
		p.field(w, "Surname", f.Surname)
		p.field(w, "Given Names", f.GivenNames)
		p.field(w, "Nationality", f.Nationality)
		p.field(w, "Country", f.CountryCode)
		p.field(w, "Sex", f.Sex)
		p.date(w, "Date of Birth", f.DateOfBirth)
		p.date(w, "Expiry Date", f.ExpiryDate)
	case *models.EmiratesIDFields:
		p.field(w, "ID Number", f.IDNumber)
		p.field(w, "Full Name", f.FullName)
		p.field(w, "Nationality", f.Nationality)
		p.date(w, "Date of Birth", f.DateOfBirth)
		p.date(w, "Expiry Date", f.ExpiryDate)
	case *models.TradeLicenseFields:
		p.field(w, "License No", f.TradeLicenseNumber)
		p.field(w, "Company", f.CompanyName)
		p.field(w, "Legal Form", f.LegalForm)
		p.field(w, "License Type", f.LicenseType)
		p.field(w, "Activity", f.Activity)
		p.field(w, "Owner", f.OwnerName)
		p.field(w, "Owner Nationality", f.OwnerNationality)
		p.field(w, "Address", f.Address)
		p.field(w, "Emirate", f.Emirate)
		p.date(w, "Issue Date", f.IssueDate)
		p.date(w, "Expiry Date", f.ExpiryDate)
	}
}

// field prints one aligned "label: value" line, skipping empty values.
func (p *Printer) field(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", p.colors["label"].Sprintf("%-18s", label+":"), value)
}

func (p *Printer) date(w io.Writer, label string, t *time.Time) {
	if t == nil {
		return
	}
	p.field(w, label, t.Format(report.DateFormat))
}
