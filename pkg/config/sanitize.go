package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxRequestSize bounds request text received from remote callers.
	DefaultMaxRequestSize = 64 << 10
	// EnvMaxRequestSize is the environment variable to override the default
	EnvMaxRequestSize = "ARTISAN_MAX_REQUEST_SIZE"
)

var (
	ErrRequestTooLarge = errors.New("request exceeds maximum allowed size")
	ErrInvalidUTF8     = errors.New("request contains invalid UTF-8 sequences")
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := maxRequestSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrRequestTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// LoadString sanitizes and loads a request received as text.
func LoadString(input string) (*Request, error) {
	clean, err := SanitizeInput(input)
	if err != nil {
		return nil, err
	}
	return Load(strings.NewReader(clean))
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxRequestSize() int {
	if val := os.Getenv(EnvMaxRequestSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxRequestSize
}
