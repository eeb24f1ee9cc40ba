package entitlement

import "strings"

// CodeLength is the number of digits in a one-time code.
const CodeLength = 4

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidatePhone accepts 10 digits starting with 0, or 9 digits not starting with 0.
// Surrounding whitespace is ignored; the trimmed number is returned.
func ValidatePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if !allDigits(phone) {
		return "", ErrInvalidPhone
	}
	switch {
	case len(phone) == 10 && phone[0] == '0':
		return phone, nil
	case len(phone) == 9 && phone[0] != '0':
		return phone, nil
	}
	return "", ErrInvalidPhone
}

// ValidateCode accepts exactly CodeLength decimal digits.
func ValidateCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if len(code) != CodeLength || !allDigits(code) {
		return "", ErrInvalidCode
	}
	return code, nil
}
