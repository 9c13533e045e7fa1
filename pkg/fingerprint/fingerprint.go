// Package fingerprint computes the stacktrace digests used to recognise the same
// crash across reports and to look tickets up by custom field.
package fingerprint

import (
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrHashingUnavailable is returned when the requested digest is not linked into the binary.
var ErrHashingUnavailable = errors.New("digest algorithm unavailable")

// Hasher renders digests of UTF-8 text as lowercase hexadecimal.
//
// By default the digest is read as an unsigned big integer and printed in base 16,
// which drops leading zero nibbles: fingerprints already stored in the bugtracker were
// produced that way and custom-field lookups compare strings. ZeroPad prints the
// fixed-width digest instead; switching it on changes every fingerprint whose digest
// starts with a zero nibble.
type Hasher struct {
	hash    crypto.Hash
	zeroPad bool
}

// Default is the MD5, unpadded hasher.
var Default = Hasher{hash: crypto.MD5}

// New returns a Hasher for the given algorithm name ("md5", "sha1", "sha256").
func New(algorithm string, zeroPad bool) (Hasher, error) {
	var h crypto.Hash
	switch strings.ToLower(algorithm) {
	case "", "md5":
		h = crypto.MD5
	case "sha1":
		h = crypto.SHA1
	case "sha256":
		h = crypto.SHA256
	default:
		return Hasher{}, fmt.Errorf("%w: %q", ErrHashingUnavailable, algorithm)
	}
	if !h.Available() {
		return Hasher{}, fmt.Errorf("%w: %s", ErrHashingUnavailable, h)
	}
	return Hasher{hash: h, zeroPad: zeroPad}, nil
}

// Sum returns the fingerprint of text.
func (h Hasher) Sum(text string) string {
	hash := h.algorithm()
	d := hash.New()
	d.Write([]byte(text))
	sum := d.Sum(nil)

	if h.zeroPad {
		return fmt.Sprintf("%x", sum)
	}
	return new(big.Int).SetBytes(sum).Text(16)
}

// SumNullable returns nil for nil input and the fingerprint of *text otherwise.
func (h Hasher) SumNullable(text *string) *string {
	if text == nil {
		return nil
	}
	fp := h.Sum(*text)
	return &fp
}

// Stacktrace returns the fingerprint identifying a bug: the digest of the stacktrace
// stripped of leading and trailing whitespace.
func (h Hasher) Stacktrace(stacktrace string) string {
	return h.Sum(Normalize(stacktrace))
}

// Normalize applies the stacktrace normalization rules before hashing.
func Normalize(stacktrace string) string {
	return strings.TrimSpace(stacktrace)
}

// Algorithm returns the digest name, e.g. "MD5".
func (h Hasher) Algorithm() string {
	return h.algorithm().String()
}

func (h Hasher) algorithm() crypto.Hash {
	if h.hash == 0 {
		return crypto.MD5
	}
	return h.hash
}

// Of computes the default fingerprint of text.
func Of(text string) string {
	return Default.Sum(text)
}
