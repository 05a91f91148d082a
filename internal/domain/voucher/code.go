package voucher

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"regexp"
	"strings"

	"edupass/internal/pkg/errs"
)

// Alphabet is the 32-symbol set used for voucher codes: uppercase letters and
// digits with I, O, 1 and 0 removed to avoid visual ambiguity on printed
// vouchers. The display format XXXX-XXXX-XXXX-XXXX is a compatibility
// contract with physical vouchers already in circulation.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// CodeLength is the number of symbols before formatting.
	CodeLength = 16
	codeGroups = 4
	groupSize  = 4

	// SaltLength is the per-voucher salt size in bytes.
	SaltLength = 16

	// DigestLength is the size of a code digest in bytes (SHA-256).
	DigestLength = sha256.Size
)

var (
	ErrCodeGeneration = errs.New("failed to generate voucher code")

	codePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}(?:-[A-HJ-NP-Z2-9]{4}){3}$`)
)

// GenerateCode draws 16 symbols uniformly from Alphabet using crypto/rand and
// returns the hyphen-grouped display form. Rejection sampling keeps the draw
// unbiased for any alphabet size, not just powers of two.
func GenerateCode() (string, error) {
	symbols := make([]byte, 0, CodeLength)
	// 256 - (256 % len) is the largest byte value below which modulo is fair.
	// With the 32-symbol alphabet this is 256, so every byte is accepted; the
	// rejection branch only triggers for alphabets that do not divide 256.
	limit := 256 - (256 % len(Alphabet))

	buf := make([]byte, CodeLength*2)
	for len(symbols) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", errs.Mark(err, ErrCodeGeneration)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			symbols = append(symbols, Alphabet[int(b)%len(Alphabet)])
			if len(symbols) == CodeLength {
				break
			}
		}
	}

	return FormatCode(string(symbols))
}

// FormatCode groups a 16-symbol raw code as XXXX-XXXX-XXXX-XXXX.
func FormatCode(raw string) (string, error) {
	canonical := Canonicalize(raw)
	if len(canonical) != CodeLength {
		return "", errs.Newf("raw code must be %d symbols, got %d", CodeLength, len(canonical))
	}

	var b strings.Builder
	b.Grow(CodeLength + codeGroups - 1)
	for i := 0; i < codeGroups; i++ {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(canonical[i*groupSize : (i+1)*groupSize])
	}
	return b.String(), nil
}

// Canonicalize strips hyphens and uppercases; the canonical form is the only
// input to digest computation.
func Canonicalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(code, "-", ""))
}

// ValidateFormat reports whether code is four hyphen-separated groups of four
// alphabet symbols. Codes containing I, O, 1 or 0 are rejected outright: they
// can never have been legitimately generated.
func ValidateFormat(code string) bool {
	return codePattern.MatchString(code)
}

// Digest is the salt-independent SHA-256 of the canonical code. It is the
// global lookup key and the uniqueness anchor for the voucher population.
func Digest(code string) []byte {
	sum := sha256.Sum256([]byte(Canonicalize(code)))
	return sum[:]
}

// SaltedDigest is SHA-256(salt || canonical code), stored next to the
// per-voucher salt as a secondary integrity check. It never participates in
// lookup so the index stays salt-independent.
func SaltedDigest(code string, salt []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(Canonicalize(code)))
	return h.Sum(nil)
}

// VerifySaltedDigest compares in constant time.
func VerifySaltedDigest(code string, salt, want []byte) bool {
	got := SaltedDigest(code, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NewSalt returns 16 random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errs.Wrap(err, "failed to generate salt")
	}
	return salt, nil
}
