package shared

import (
	"math/big"
	"regexp"
	"strings"
)

var (
	// Individual taxpayer number (10 digits) or company EDRPOU code (8 digits).
	taxNumberRegex = regexp.MustCompile(`^(\d{8}|\d{10})$`)
	edrpouRegex    = regexp.MustCompile(`^\d{8}$`)
	ibanUARegex    = regexp.MustCompile(`^UA\d{27}$`)
)

// IsTaxNumber reports whether s is a taxpayer number or an EDRPOU code.
func IsTaxNumber(s string) bool {
	return taxNumberRegex.MatchString(s)
}

// IsEDRPOU reports whether s is an 8-digit company code.
func IsEDRPOU(s string) bool {
	return edrpouRegex.MatchString(s)
}

// NormalizeIBAN removes spaces and upper-cases an IBAN.
func NormalizeIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// IsIBANUA reports whether s is a Ukrainian IBAN with a valid ISO 13616
// check sum.
func IsIBANUA(s string) bool {
	s = NormalizeIBAN(s)
	if !ibanUARegex.MatchString(s) {
		return false
	}

	// Move the country code and check digits to the end, turn letters into
	// numbers (A=10 ... Z=35) and check the remainder mod 97.
	rearranged := s[4:] + s[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(big.NewInt(int64(r - 'A' + 10)).String())
			continue
		}
		digits.WriteRune(r)
	}

	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}
