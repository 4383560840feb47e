package document

import (
	"strings"
	"time"
)

var (
	sampleMRZLine1 = "P<UTOSMITH<<JOHN" + strings.Repeat("<", 28)
	sampleMRZLine2 = "L898902C36UTO7408122F1204159" + strings.Repeat("<", 14) + "06"
)

func samplePassportText() string {
	return strings.Join([]string{
		"UTOPIA",
		"PASSPORT",
		"Surname / Nom",
		"SMITH",
		"Given names",
		"JOHN",
		sampleMRZLine1,
		sampleMRZLine2,
	}, "\n")
}

const sampleEmiratesIDText = `UNITED ARAB EMIRATES
FEDERAL AUTHORITY FOR IDENTITY AND CITIZENSHIP
Resident Identity Card
ID Number 784-1990-1234567-1
Name: Muhammad Aamar
Date of Birth: 15/03/1990
Nationality: Pakistan
Expiry Date: 20/05/2027`

const sampleTradeLicenseText = `GOVERNMENT OF DUBAI
Department of Economic Development
TRADE LICENSE
License No.: 123822
Trade Name: Al Noor General Trading L.L.C
Legal Form: Limited Liability Company
Issue Date: 15/03/2024
Expiry Date: 14/03/2027
Activities: General Trading
Manager: Ahmed Hassan
Nationality: Egypt
Passport No: A1234567
Address: Office 402, Al Fahidi Street, Bur Dubai`

// fixedNow is the reference clock used by trade license tests.
func fixedNow() time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
