package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmiratesID_Sample(t *testing.T) {
	f, err := ParseEmiratesID(sampleEmiratesIDText)
	require.NoError(t, err)

	assert.Equal(t, "784-1990-1234567-1", f.IDNumber)
	assert.Equal(t, "Muhammad Aamar", f.FullName)
	assert.Equal(t, "Pakistan", f.Nationality)
	require.NotNil(t, f.DateOfBirth)
	assert.Equal(t, date(1990, 3, 15), *f.DateOfBirth)
	require.NotNil(t, f.ExpiryDate)
	assert.Equal(t, date(2027, 5, 20), *f.ExpiryDate)
}

func TestParseEmiratesID_CompactNumberIsReformatted(t *testing.T) {
	f, err := ParseEmiratesID("Resident Identity Card\nID 784199012345671")
	require.NoError(t, err)
	assert.Equal(t, "784-1990-1234567-1", f.IDNumber)
}

func TestParseEmiratesID_HyphenatedPreferred(t *testing.T) {
	f, err := ParseEmiratesID("784199012345671\n784-2000-7654321-9")
	require.NoError(t, err)
	assert.Equal(t, "784-2000-7654321-9", f.IDNumber)
}

func TestParseEmiratesID_CamelJoinedName(t *testing.T) {
	text := "784-1990-1234567-1\nNameMuhammadAamar\nDate of Birth 15031990\nExpry Date 1200520270"
	f, err := ParseEmiratesID(text)
	require.NoError(t, err)

	assert.Equal(t, "Muhammad Aamar", f.FullName)
	require.NotNil(t, f.DateOfBirth)
	assert.Equal(t, date(1990, 3, 15), *f.DateOfBirth)
	require.NotNil(t, f.ExpiryDate)
	assert.Equal(t, date(2027, 5, 20), *f.ExpiryDate)
}

func TestParseEmiratesID_FullNameLabel(t *testing.T) {
	text := "784-1990-1234567-1\nFull Name: sara al-mansoori"
	f, err := ParseEmiratesID(text)
	require.NoError(t, err)
	assert.Equal(t, "sara almansoori", f.FullName)
}

func TestParseEmiratesID_LowercaseName(t *testing.T) {
	f, err := ParseEmiratesID("784-1990-1234567-1\nName: muhammad aamar")
	require.NoError(t, err)
	assert.Equal(t, "muhammad aamar", f.FullName)
}

func TestParseEmiratesID_NameOfHolderLabel(t *testing.T) {
	f, err := ParseEmiratesID("784-1990-1234567-1\nName of Holder: Sara Khan")
	require.NoError(t, err)
	assert.Equal(t, "Sara Khan", f.FullName)
}

func TestParseEmiratesID_NameStopsAtNextLabel(t *testing.T) {
	text := "784-1990-1234567-1\nName: Ali Hassan Nationality: India"
	f, err := ParseEmiratesID(text)
	require.NoError(t, err)

	assert.Equal(t, "Ali Hassan", f.FullName)
	assert.Equal(t, "India", f.Nationality)
}

func TestParseEmiratesID_NationalityOnNextLine(t *testing.T) {
	text := "784-1990-1234567-1\nNationality\nUnited Kingdom"
	f, err := ParseEmiratesID(text)
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", f.Nationality)
}

func TestParseEmiratesID_OptionalFieldsMayBeEmpty(t *testing.T) {
	f, err := ParseEmiratesID("784-1990-1234567-1")
	require.NoError(t, err)

	assert.Empty(t, f.FullName)
	assert.Empty(t, f.Nationality)
	assert.Nil(t, f.DateOfBirth)
	assert.Nil(t, f.ExpiryDate)
}

func TestParseEmiratesID_MissingNumber(t *testing.T) {
	_, err := ParseEmiratesID("Resident Identity Card\nName: Muhammad Aamar")
	assert.ErrorIs(t, err, ErrEmiratesIDNotDetected)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeEmiratesID(t *testing.T) {
	assert.Equal(t, "784-1990-1234567-1", NormalizeEmiratesID("784199012345671"))
	assert.Equal(t, "784-1990-1234567-1", NormalizeEmiratesID("784-1990-1234567-1"))
	assert.Equal(t, "12345", NormalizeEmiratesID("12345"))
}
