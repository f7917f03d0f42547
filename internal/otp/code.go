package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeSource produces a 6-digit verification code. Demo and production wiring
// differ only in which implementation is injected; services never branch on
// the environment themselves.
type CodeSource interface {
	NewCode() (string, error)

	// Visible reports whether issued codes may be echoed back in API
	// responses for test visibility. Only the fixed demo source is visible.
	Visible() bool
}

// FixedSource always returns the same code. Used in demo mode so the flow can
// be exercised without real SMS delivery.
type FixedSource struct {
	Code string
}

// NewFixedSource returns the demo source with the conventional code 123456.
func NewFixedSource() FixedSource {
	return FixedSource{Code: "123456"}
}

func (f FixedSource) NewCode() (string, error) { return f.Code, nil }

func (f FixedSource) Visible() bool { return true }

// RandomSource draws a uniform code in [100000, 999999] from crypto/rand.
type RandomSource struct{}

func (RandomSource) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("draw otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (RandomSource) Visible() bool { return false }
