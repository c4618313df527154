// Package sampling implements the randomness sources the scheme layers draw
// secret keys, encryption errors, and CKKS test vectors from: a uniform
// integer sampler, a ternary ("triangle") distribution sampler, a
// fixed-Hamming-weight ternary sampler, and real/complex vector samplers for
// CKKS test data, all driven by a swappable PRNG backend.
package sampling

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/zeebo/blake3"
)

// ErrRandomnessExhausted is returned when a PRNG backend fails to produce
// the requested number of bytes.
var ErrRandomnessExhausted = errors.New("sampling: randomness source exhausted")

// ErrInvalidParameter is returned for malformed sampler arguments, such as a
// requested Hamming weight exceeding the vector length.
var ErrInvalidParameter = errors.New("sampling: invalid parameter")

// PRNG is the minimal randomness contract every sampler in this package is
// built on: a stream of uniformly random bytes.
type PRNG interface {
	Read(p []byte) (int, error)
}

// NewPRNG returns the default CSPRNG backend: a blake2b-XOF-style keyed hash
// chain seeded from crypto/rand, grounded on the teacher's
// dbfv/collective_CRS.go use of blake2b for common-randomness derivation.
func NewPRNG() (PRNG, error) {
	seed := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, fmt.Errorf("%w: seeding blake2b prng: %v", ErrRandomnessExhausted, err)
	}
	return NewKeyedBlake2bPRNG(seed)
}

// blake2bPRNG expands a fixed key into an arbitrarily long byte stream by
// hashing key||counter for successive counters, buffering one block at a
// time.
type blake2bPRNG struct {
	key     []byte
	counter uint64
	buf     []byte
}

// NewKeyedBlake2bPRNG returns a deterministic PRNG keyed by seed, for
// reproducible common-reference-string style randomness.
func NewKeyedBlake2bPRNG(seed []byte) (PRNG, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: seed must be non-empty", ErrInvalidParameter)
	}
	return &blake2bPRNG{key: append([]byte(nil), seed...)}, nil
}

func (p *blake2bPRNG) Read(out []byte) (int, error) {
	n := 0
	for n < len(out) {
		if len(p.buf) == 0 {
			h, err := blake2b.New256(p.key)
			if err != nil {
				return n, fmt.Errorf("%w: %v", ErrRandomnessExhausted, err)
			}
			var counterBytes [8]byte
			for i := range counterBytes {
				counterBytes[i] = byte(p.counter >> (8 * i))
			}
			h.Write(counterBytes[:])
			p.buf = h.Sum(nil)
			p.counter++
		}
		copied := copy(out[n:], p.buf)
		p.buf = p.buf[copied:]
		n += copied
	}
	return n, nil
}

// blake3PRNG is an alternate keyed-XOF backend, interchangeable with
// blake2bPRNG wherever a PRNG is accepted.
type blake3PRNG struct {
	xof io.Reader
}

// NewKeyedPRNG returns a blake3-backed keyed extendable-output stream, a
// drop-in alternative to NewKeyedBlake2bPRNG for callers that want blake3's
// tree-hash parallelism.
func NewKeyedPRNG(seed []byte) (PRNG, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: seed must be non-empty", ErrInvalidParameter)
	}
	var key [32]byte
	h := blake3.NewDeriveKey("go-fhe utils/sampling keyed prng")
	h.Write(seed)
	h.Sum(key[:0])

	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomnessExhausted, err)
	}
	return &blake3PRNG{xof: hasher.Digest()}, nil
}

func (p *blake3PRNG) Read(out []byte) (int, error) {
	n, err := io.ReadFull(p.xof, out)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrRandomnessExhausted, err)
	}
	return n, nil
}

// Source draws the random values the key-generation and encryption
// routines need: uniform ring coefficients, ternary secret/error
// coefficients, and the real/complex test vectors CKKS examples use.
type Source struct {
	prng PRNG
}

// NewSource wraps a PRNG backend in a Source.
func NewSource(prng PRNG) *Source {
	return &Source{prng: prng}
}

// UniformInt returns a uniformly random integer in [0, bound).
func (s *Source) UniformInt(bound *big.Int) (*big.Int, error) {
	if bound.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bound must be positive", ErrInvalidParameter)
	}
	return randIntWithSource(s.prng, bound)
}

func randIntWithSource(prng PRNG, bound *big.Int) (*big.Int, error) {
	return rand.Int(struct{ io.Reader }{prng}, bound)
}

// UniformPoly returns degree uniformly random coefficients modulo q.
func (s *Source) UniformPoly(degree int, q *big.Int) ([]*big.Int, error) {
	coeffs := make([]*big.Int, degree)
	for i := range coeffs {
		v, err := s.UniformInt(q)
		if err != nil {
			return nil, err
		}
		coeffs[i] = v
	}
	return coeffs, nil
}

// Triangle samples degree coefficients from the discrete "triangle"
// distribution over {-1, 0, 1} with P(0)=1/2, P(1)=P(-1)=1/4, the standard
// RLWE error distribution, reduced into [0, q).
func (s *Source) Triangle(degree int, q *big.Int) ([]*big.Int, error) {
	coeffs := make([]*big.Int, degree)
	four := big.NewInt(4)
	for i := range coeffs {
		r, err := s.UniformInt(four)
		if err != nil {
			return nil, err
		}
		var v int64
		switch r.Int64() {
		case 0:
			v = -1
		case 1, 2:
			v = 0
		case 3:
			v = 1
		}
		coeffs[i] = normalize(v, q)
	}
	return coeffs, nil
}

// HammingWeight samples a ternary vector of the given degree with exactly
// weight nonzero entries (each +1 or -1 with equal probability), used for
// CKKS secret keys so that key-switching noise growth stays bounded.
func (s *Source) HammingWeight(degree, weight int, q *big.Int) ([]*big.Int, error) {
	if weight < 0 || weight > degree {
		return nil, fmt.Errorf("%w: hamming weight %d exceeds degree %d", ErrInvalidParameter, weight, degree)
	}

	coeffs := make([]*big.Int, degree)
	zero := normalize(0, q)
	for i := range coeffs {
		coeffs[i] = zero
	}

	placed := 0
	remaining := big.NewInt(int64(degree))
	for placed < weight {
		idx, err := s.UniformInt(remaining)
		if err != nil {
			return nil, err
		}
		pos := int(idx.Int64())
		// Linear scan to the pos-th still-zero slot keeps this simple and
		// correct; degree is small enough (ring dimension) for this not to
		// matter in practice.
		count := 0
		for i := range coeffs {
			if coeffs[i].Cmp(zero) == 0 {
				if count == pos {
					bit, err := s.UniformInt(big.NewInt(2))
					if err != nil {
						return nil, err
					}
					if bit.Sign() == 0 {
						coeffs[i] = normalize(-1, q)
					} else {
						coeffs[i] = normalize(1, q)
					}
					break
				}
				count++
			}
		}
		placed++
		remaining.Sub(remaining, big.NewInt(1))
	}
	return coeffs, nil
}

func normalize(v int64, q *big.Int) *big.Int {
	r := big.NewInt(v)
	r.Mod(r, q)
	return r
}

// RandReal returns n independent samples uniform on [-bound, bound].
func (s *Source) RandReal(n int, bound float64) ([]float64, error) {
	const scale = 1 << 53
	scaledBound := big.NewInt(int64(2 * scale))
	result := make([]float64, n)
	for i := range result {
		r, err := s.UniformInt(scaledBound)
		if err != nil {
			return nil, err
		}
		frac := float64(r.Int64())/scale - 1
		result[i] = frac * bound
	}
	return result, nil
}

// RandComplex returns n independent samples whose real and imaginary parts
// are each uniform on [-bound, bound], a test-vector generator for CKKS
// round-trip tests.
func (s *Source) RandComplex(n int, bound float64) ([]complex128, error) {
	reals, err := s.RandReal(n, bound)
	if err != nil {
		return nil, err
	}
	imags, err := s.RandReal(n, bound)
	if err != nil {
		return nil, err
	}
	result := make([]complex128, n)
	for i := range result {
		result[i] = complex(reals[i], imags[i])
	}
	return result, nil
}
