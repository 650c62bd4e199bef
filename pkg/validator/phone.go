package validator

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone indicates the number matches none of the supported national formats.
var ErrInvalidPhone = errors.New("phone number must be a valid Saudi, Egyptian or Qatari mobile number")

var (
	saudiLocal = regexp.MustCompile(`^0\d{9}$`)
	saudiIntl  = regexp.MustCompile(`^\+966\d{9}$`)
	egyptLocal = regexp.MustCompile(`^01\d{9}$`)
	egyptIntl  = regexp.MustCompile(`^\+20\d{10}$`)
	qatarLocal = regexp.MustCompile(`^9\d{7,8}$`)
	qatarIntl  = regexp.MustCompile(`^\+974\d{8,9}$`)
)

// Sanitize removes separators and turns a leading 00 into +.
func Sanitize(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(phone)
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	return phone
}

// NormalizeSaudiPhone replaces a leading 0 with +966 and leaves anything else as entered.
func NormalizeSaudiPhone(phone string) string {
	phone = Sanitize(phone)
	if strings.HasPrefix(phone, "0") {
		return "+966" + phone[1:]
	}
	return phone
}

// NormalizeInternationalPhone accepts KSA (10 digits, leading 0), Egypt (11 digits,
// leading 01) and Qatar (8-9 digits, leading 9) local numbers, or the same numbers
// already in international form, and returns the international form.
func NormalizeInternationalPhone(phone string) (string, error) {
	p := Sanitize(phone)
	if p == "" {
		return "", ErrInvalidPhone
	}

	switch {
	case saudiIntl.MatchString(p), egyptIntl.MatchString(p), qatarIntl.MatchString(p):
		return p, nil
	case egyptLocal.MatchString(p):
		return "+20" + p[1:], nil
	case saudiLocal.MatchString(p):
		return "+966" + p[1:], nil
	case qatarLocal.MatchString(p):
		return "+974" + p, nil
	}
	return "", ErrInvalidPhone
}

// NormalizePhone returns the international form of a KSA, Egyptian or Qatari
// number and falls back to the Saudi rule for anything else.
func NormalizePhone(phone string) string {
	if p, err := NormalizeInternationalPhone(phone); err == nil {
		return p
	}
	return NormalizeSaudiPhone(phone)
}
