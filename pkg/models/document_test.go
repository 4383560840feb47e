package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFamily(t *testing.T) {
	for in, want := range map[string]DocumentFamily{
		"Passport":        FamilyPassport,
		" eid ":           FamilyEmiratesID,
		"emirates-id":     FamilyEmiratesID,
		"UAETradeLicense": FamilyTradeLicense,
		"trade_license":   FamilyTradeLicense,
	} {
		got, err := ParseFamily(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFamily("visa")
	assert.ErrorIs(t, err, ErrUnknownFamily)
	assert.EqualError(t, err, `unknown document family: "visa"`)
}
