package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// enyeMarker shields ñ/Ñ from the NFD mark-stripping pass so display
// names keep the letter while every other diacritic is removed.
const enyeMarker = '\uE000'

// stripMarks builds a fresh transformer per call; chained transformers
// carry state and are not safe to share across goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// StripAccents uppercases s and removes diacritics, preserving Ñ.
// "José García Ñúñez" becomes "JOSE GARCIA ÑUÑEZ". Stored names and
// addresses go through this so lookups are accent-insensitive.
func StripAccents(s string) string {
	marked := strings.Map(func(r rune) rune {
		if r == 'ñ' || r == 'Ñ' {
			return enyeMarker
		}
		return r
	}, s)
	out, _, err := transform.String(stripMarks(), marked)
	if err != nil {
		out = marked
	}
	out = strings.ToUpper(out)
	return strings.ReplaceAll(out, string(enyeMarker), "Ñ")
}

// foldUsernamePart lowercases s, folds diacritics (ñ included, so ñ
// becomes n) and drops everything outside [a-z0-9].
func foldUsernamePart(s string) string {
	folded, _, err := transform.String(stripMarks(), strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BaseUsername derives the canonical username candidate: folded first
// name, the initial of each surname, then the birth year.
// ("José", "García", "Ñúñez", 1990) yields "josegn1990".
func BaseUsername(name, firstSurname, secondSurname string, birthYear int) string {
	base := foldUsernamePart(name)
	for _, surname := range []string{firstSurname, secondSurname} {
		if folded := foldUsernamePart(surname); folded != "" {
			base += folded[:1]
		}
	}
	return fmt.Sprintf("%s%d", base, birthYear)
}

// NewRequestToken returns a URL-safe token from 32 random bytes
func NewRequestToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomPassword returns a random alphanumeric password of n characters
func RandomPassword(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// EndOfYear returns Dec 31 23:59:59 of now's year. Membership validity
// always runs to the end of the enrollment or renewal year.
func EndOfYear(now time.Time) time.Time {
	return time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, now.Location())
}

// FormatMemberNumber zero-pads a sequential member number
func FormatMemberNumber(n int) string {
	return fmt.Sprintf("%04d", n)
}

// FormatBenefitNumber derives a dependent's benefit number from the
// owning member's number and the 1-based position in the household.
func FormatBenefitNumber(memberNumber string, i int) string {
	return fmt.Sprintf("%s-%d", memberNumber, i)
}
