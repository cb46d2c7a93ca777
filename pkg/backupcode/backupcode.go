package backupcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultCount = 10
	CodeLength   = 8

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeRegex matches a well-formed code of either generator.
var CodeRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Result is the outcome of Verify. Index is -1 when no code matched.
type Result struct {
	Valid bool
	Index int
}

// Generate returns count codes of 4 random bytes rendered as 8 uppercase hex characters.
func Generate(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	codes := make([]string, count)
	buf := make([]byte, CodeLength/2)
	for i := range count {
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateCode, err)
		}
		codes[i] = fmt.Sprintf("%X", buf)
	}
	return codes, nil
}

// GenerateAlphanumeric returns count codes of 8 characters drawn from A-Z0-9.
func GenerateAlphanumeric(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	codes := make([]string, count)
	buf := make([]byte, CodeLength)
	for i := range count {
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateCode, err)
		}
		var sb strings.Builder
		sb.Grow(CodeLength)
		for _, b := range buf {
			// 252 is the largest multiple of 36 below 256; it keeps the distribution uniform
			for b >= 252 {
				var one [1]byte
				if _, err := rand.Read(one[:]); err != nil {
					return nil, errors.Join(ErrFailedToGenerateCode, err)
				}
				b = one[0]
			}
			sb.WriteByte(alphabet[int(b)%len(alphabet)])
		}
		codes[i] = sb.String()
	}
	return codes, nil
}

// Normalize trims surrounding whitespace and uppercases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Hash returns the SHA-256 hex digest of code exactly as given.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// HashAll hashes every code, keeping order.
func HashAll(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = Hash(c)
	}
	return hashes
}

// Verify looks up the normalized code among hashes and returns the first matching index.
func Verify(code string, hashes []string) Result {
	digest := []byte(Hash(Normalize(code)))
	for i, h := range hashes {
		if subtle.ConstantTimeCompare(digest, []byte(h)) == 1 {
			return Result{Valid: true, Index: i}
		}
	}
	return Result{Valid: false, Index: -1}
}

// VerifyAvailable is Verify with an explicit ErrNoCodesAvailable for an empty list.
func VerifyAvailable(code string, hashes []string) (Result, error) {
	if len(hashes) == 0 {
		return Result{Valid: false, Index: -1}, ErrNoCodesAvailable
	}
	return Verify(code, hashes), nil
}

// Consume returns a copy of hashes without the element at index.
// The input slice is not modified.
func Consume(hashes []string, index int) ([]string, error) {
	if index < 0 || index >= len(hashes) {
		return nil, ErrIndexOutOfRange
	}
	out := make([]string, 0, len(hashes)-1)
	out = append(out, hashes[:index]...)
	return append(out, hashes[index+1:]...), nil
}
