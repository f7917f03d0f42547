package couponcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// alphabet is the user-facing code alphabet. Codes are matched
	// case-insensitively at the boundary, so only uppercase is generated.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultLength produces the XXXX-XXXX-XX format.
	DefaultLength = 10

	// DefaultMaxRetries bounds the unique-code collision loop.
	DefaultMaxRetries = 5
)

// ErrGenerationExhausted is returned when every attempt to draw a fresh code
// collided with an existing one.
var ErrGenerationExhausted = errors.New("failed to generate unique coupon code after maximum retries")

// CodeChecker reports whether a candidate code already exists in storage.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// IndexSource draws a uniform random index in [0, n). The default uses
// crypto/rand; tests inject deterministic sources.
type IndexSource func(n int) (int, error)

func cryptoIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Generator produces coupon codes and guarantees storage-level uniqueness.
type Generator struct {
	checker CodeChecker
	index   IndexSource
}

// NewGenerator creates a Generator backed by the given storage checker.
func NewGenerator(checker CodeChecker) *Generator {
	return &Generator{checker: checker, index: cryptoIndex}
}

// NewGeneratorWithSource creates a Generator with a custom index source.
// Primarily used for testing.
func NewGeneratorWithSource(checker CodeChecker, src IndexSource) *Generator {
	return &Generator{checker: checker, index: src}
}

// Generate draws length characters uniformly from the code alphabet.
// A length of exactly 10 is grouped as XXXX-XXXX-XX for readability; any
// other length returns the raw string.
func (g *Generator) Generate(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		idx, err := g.index(len(alphabet))
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		buf[i] = alphabet[idx]
	}

	raw := string(buf)
	if length == DefaultLength {
		return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:10], nil
	}
	return raw, nil
}

// UniqueCode generates codes until one is absent from storage, or fails with
// ErrGenerationExhausted after maxRetries consecutive collisions. The code
// space (~36^8 for the default format) makes collisions negligible; the bound
// keeps the failure mode explicit.
func (g *Generator) UniqueCode(ctx context.Context, maxRetries int) (string, error) {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		code, err := g.Generate(DefaultLength)
		if err != nil {
			return "", err
		}

		exists, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrGenerationExhausted
}
