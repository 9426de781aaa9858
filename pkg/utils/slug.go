package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeSlug = regexp.MustCompile(`[^a-z0-9-]+`)
)

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz"

// SlugSuffixLength is the number of random letters appended by GenerateSlug
const SlugSuffixLength = 8

// Slugify lowercases s, turns whitespace runs into hyphens and drops everything else
// that is not alphanumeric or a hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, "-")
	return unsafeSlug.ReplaceAllString(s, "")
}

// GenerateSlug returns Slugify(name) followed by "_" and a random lowercase suffix.
func GenerateSlug(name string) (string, error) {
	suffix, err := randomLetters(SlugSuffixLength)
	if err != nil {
		return "", err
	}
	return Slugify(name) + "_" + suffix, nil
}

func randomLetters(n int) (string, error) {
	max := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[idx.Int64()]
	}
	return string(b), nil
}
