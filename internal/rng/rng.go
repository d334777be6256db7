package rng

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"

	util "github.com/CodeAndHammer/whackamole/internal/util"
)

var ErrInvalidRange = errors.New("minimum value cannot be greater than maximum value")

// Source yields uniform integers in [0, n). *math/rand.Rand satisfies it.
type Source interface {
	Int63n(n int64) int64
}

type cryptoSource struct{}

// Crypto draws from crypto/rand. It is the default source outside tests.
var Crypto Source = cryptoSource{}

func (cryptoSource) Int63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		util.LogWarn("Error generating random number: %v, using fallback", err)
		return 0
	}
	return v.Int64()
}

// RandomInteger returns a uniformly distributed integer in [min, max].
func RandomInteger(src Source, min, max int) (int, error) {
	if min > max {
		return 0, fmt.Errorf("random integer in [%d, %d]: %w", min, max, ErrInvalidRange)
	}
	if src == nil {
		src = Crypto
	}
	span := uint64(max) - uint64(min)
	if span < math.MaxInt64 {
		return min + int(src.Int63n(int64(span)+1)), nil
	}
	return int(uint64(min) + wide(src, span)), nil
}

// wide draws uniformly from [0, span] when span+1 doesn't fit in an int63.
// span is at least 2^63-1 here, so rejection succeeds at least half the time.
func wide(src Source, span uint64) uint64 {
	for {
		v := uint64(src.Int63n(1<<32))<<32 | uint64(src.Int63n(1<<32))
		if v <= span {
			return v
		}
	}
}
