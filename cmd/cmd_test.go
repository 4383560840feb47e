package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docextract/internal/processing"
	"docextract/pkg/models"
)

// run executes the root command with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand_StdinJSON(t *testing.T) {
	out, err := run(t, "Resident Identity Card\nID 784199012345671", "parse", "--type", "eid", "--format", "json", "--output", "", "-")
	require.NoError(t, err)

	var res models.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.True(t, res.IsValid)
	require.NotNil(t, res.EmiratesID)
	assert.Equal(t, "784-1990-1234567-1", res.EmiratesID.IDNumber)
}

func TestParseCommand_DetectsType(t *testing.T) {
	out, err := run(t, "TRADE LICENSE\nLicense No.: 123822\nDepartment of Economic Development",
		"parse", "--type", "", "--format", "json", "--output", "")
	require.NoError(t, err)

	var res models.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, models.FamilyTradeLicense, res.Family)
	assert.Equal(t, "123822", res.TradeLicense.TradeLicenseNumber)
}

func TestParseCommand_UnknownType(t *testing.T) {
	_, err := run(t, "text", "parse", "--type", "visa", "--format", "json", "--output", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownFamily)
}

func TestClassifyCommand_FileToOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "license.txt")
	require.NoError(t, os.WriteFile(in, []byte("TRADE LICENSE\nLicense No.: 123822\nDepartment of Economic Development"), 0o600))
	outPath := filepath.Join(dir, "out.yaml")

	_, err := run(t, "", "classify", in, "--format", "yaml", "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "document_type: UAETradeLicense")
	assert.Contains(t, string(data), "reason: ")
}

func TestClassifyCommand_MissingFile(t *testing.T) {
	_, err := run(t, "", "classify", filepath.Join(t.TempDir(), "nope.txt"), "--format", "text", "--output", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text file not found")
}

func TestClassifyCommand_BadFormat(t *testing.T) {
	_, err := run(t, "x", "classify", "--format", "xml", "--output", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestPrintable(t *testing.T) {
	ok := processing.BatchItem{Result: &processing.Result{FileName: "a.png"}}
	failed := processing.BatchItem{Path: "b.png", Err: errors.New("boom")}

	assert.Same(t, ok.Result, printable([]processing.BatchItem{ok}))
	assert.IsType(t, []processing.BatchItem{}, printable([]processing.BatchItem{failed}))
	assert.Len(t, printable([]processing.BatchItem{ok, failed}), 2)
}
