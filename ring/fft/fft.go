// Package fft implements the complex-valued FFT used to multiply polynomials
// over the reals, and the CKKS canonical embedding: a variant FFT evaluated
// only at the rotation-group-indexed subset of the 2N-th roots of unity
// (powers of 5 modulo 2N), which is what lets CKKS pack N/2 complex slots
// into a degree-N real polynomial.
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sarojaerabelli/go-fhe/bitrev"
)

// ErrInvalidParameter is returned for malformed input lengths.
var ErrInvalidParameter = errors.New("fft: invalid parameter")

// Context precomputes the root-of-unity and rotation-group tables for a
// ring of the given degree.
type Context struct {
	Degree int // N, the ring degree
	M      int // 2N, the embedding modulus
	Slots  int // N/2, the number of CKKS slots

	rootsOfUnity    []complex128 // length M
	rootsOfUnityInv []complex128 // length M
	rotGroup        []int        // length Slots, powers of 5 mod M
	reversedBits    []int        // length Degree, for FFTForward/FFTInverse
}

// New builds a Context for a ring of the given degree (must be a power of
// two, and at least 2 so that Slots = degree/2 is meaningful).
func New(degree int) (*Context, error) {
	if degree <= 1 || degree&(degree-1) != 0 {
		return nil, fmt.Errorf("%w: degree %d is not a power of two greater than 1", ErrInvalidParameter, degree)
	}

	c := &Context{
		Degree: degree,
		M:      2 * degree,
		Slots:  degree / 2,
	}
	c.precompute()
	return c, nil
}

func (c *Context) precompute() {
	c.rootsOfUnity = make([]complex128, c.M)
	c.rootsOfUnityInv = make([]complex128, c.M)
	for i := 0; i < c.M; i++ {
		angle := 2 * math.Pi * float64(i) / float64(c.M)
		c.rootsOfUnity[i] = cmplx.Exp(complex(0, angle))
		c.rootsOfUnityInv[i] = cmplx.Conj(c.rootsOfUnity[i])
	}

	c.rotGroup = make([]int, c.Slots)
	c.rotGroup[0] = 1
	for i := 1; i < c.Slots; i++ {
		c.rotGroup[i] = (c.rotGroup[i-1] * 5) % c.M
	}

	width := bitLen(c.Degree - 1)
	c.reversedBits = make([]int, c.Degree)
	for i := 0; i < c.Degree; i++ {
		c.reversedBits[i] = int(bitrev.Reverse(uint64(i), width)) % c.Degree
	}
}

func bitLen(v int) int {
	b := 0
	for v > 0 {
		b++
		v >>= 1
	}
	return b
}

// FFTForward runs the standard radix-2 Cooley-Tukey DFT of coeffs (length N)
// over the N-th roots of unity, reusing the Context's 2N-th root table at
// even indices (root_M^(2i) = root_N^i).
func (c *Context) FFTForward(coeffs []complex128) ([]complex128, error) {
	return c.fft(coeffs, c.rootsOfUnity)
}

// FFTInverse runs the inverse DFT, scaling the result by 1/N.
func (c *Context) FFTInverse(coeffs []complex128) ([]complex128, error) {
	result, err := c.fft(coeffs, c.rootsOfUnityInv)
	if err != nil {
		return nil, err
	}
	n := complex(float64(c.Degree), 0)
	for i := range result {
		result[i] /= n
	}
	return result, nil
}

func (c *Context) fft(coeffs []complex128, rou []complex128) ([]complex128, error) {
	n := len(coeffs)
	if n != c.Degree {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidParameter, c.Degree, n)
	}

	result := make([]complex128, n)
	for i, idx := range c.reversedBits {
		result[i] = coeffs[idx]
	}

	logN := bitLen(n - 1)
	for logm := 1; logm <= logN; logm++ {
		half := 1 << (logm - 1)
		step := 1 << logm
		for j := 0; j < n; j += step {
			for i := 0; i < half; i++ {
				evenIdx := j + i
				oddIdx := j + i + half
				// rou has length M = 2N and is indexed by exponent of the
				// 2N-th root, so the 2^logm-th root at exponent i sits at
				// the same logm-dependent stride the NTT butterfly uses.
				rouIdx := (i << (1 + logN - logm)) % c.M
				t := rou[rouIdx] * result[oddIdx]
				result[evenIdx], result[oddIdx] = result[evenIdx]+t, result[evenIdx]-t
			}
		}
	}
	return result, nil
}

// FTTForward runs the negacyclic transform used to multiply in R = Z[x]/(x^N+1)
// with floating-point coefficients: it pre-twists coeffs by powers of the
// primitive 2N-th root of unity before running the ordinary length-N DFT,
// mirroring ntt.Context's FTTForward exactly but over complex128.
func (c *Context) FTTForward(coeffs []complex128) ([]complex128, error) {
	if len(coeffs) != c.Degree {
		return nil, fmt.Errorf("%w: ftt_fwd expects %d coefficients, got %d", ErrInvalidParameter, c.Degree, len(coeffs))
	}
	twisted := make([]complex128, c.Degree)
	for i, v := range coeffs {
		twisted[i] = v * c.rootsOfUnity[i]
	}
	return c.fft(twisted, c.rootsOfUnity)
}

// FTTInverse runs the inverse negacyclic transform: the ordinary inverse DFT
// followed by a post-twist by the inverse 2N-th root of unity.
func (c *Context) FTTInverse(coeffs []complex128) ([]complex128, error) {
	if len(coeffs) != c.Degree {
		return nil, fmt.Errorf("%w: ftt_inv expects %d coefficients, got %d", ErrInvalidParameter, c.Degree, len(coeffs))
	}
	scaledDown, err := c.fft(coeffs, c.rootsOfUnityInv)
	if err != nil {
		return nil, err
	}
	n := complex(float64(c.Degree), 0)
	result := make([]complex128, c.Degree)
	for i := range result {
		result[i] = (scaledDown[i] / n) * c.rootsOfUnityInv[i]
	}
	return result, nil
}

// EmbeddingInverse maps slots complex values (length N/2) to the N real
// polynomial coefficients whose canonical embedding reproduces them: this is
// sigma^-1, the CKKS encoding transform. Every rot_group[i] is an odd power
// of the primitive root, so fixing its evaluation (and, since the target
// coefficients are real, its conjugate at the complementary odd power) and
// running them through FTTInverse's existing bit-reversed butterfly network
// recovers the coefficients in one O(N log N) pass.
func (c *Context) EmbeddingInverse(values []complex128) ([]complex128, error) {
	if len(values) != c.Slots {
		return nil, fmt.Errorf("%w: embedding_inv expects %d slots, got %d", ErrInvalidParameter, c.Slots, len(values))
	}

	evals := make([]complex128, c.Degree)
	for i, m := range c.rotGroup {
		k := (m - 1) / 2
		evals[k] = values[i]
		evals[c.Degree-1-k] = cmplx.Conj(values[i])
	}
	return c.FTTInverse(evals)
}

// Embedding evaluates the degree-N polynomial with coefficients coeffs at
// the rotation-group-indexed subset of the 2N-th roots of unity, producing
// the N/2 complex slot values: this is sigma, the CKKS decoding transform.
// FTTForward already evaluates coeffs at every odd power omega^(2k+1) in
// natural k order via its bit-reversed butterfly network, and every
// rot_group entry is one such odd power, so Embedding only needs to gather
// the Slots entries the rotation group selects instead of recomputing each
// one as a fresh O(N) sum.
func (c *Context) Embedding(coeffs []complex128) ([]complex128, error) {
	if len(coeffs) != c.Degree {
		return nil, fmt.Errorf("%w: embedding expects %d coefficients, got %d", ErrInvalidParameter, c.Degree, len(coeffs))
	}

	evals, err := c.FTTForward(coeffs)
	if err != nil {
		return nil, err
	}
	values := make([]complex128, c.Slots)
	for i, m := range c.rotGroup {
		values[i] = evals[(m-1)/2]
	}
	return values, nil
}

// CheckEmbeddingInput reports ErrInvalidParameter if values is not a valid
// slot vector for this Context (i.e. its length isn't N/2).
func (c *Context) CheckEmbeddingInput(values []complex128) error {
	if len(values) != c.Slots {
		return fmt.Errorf("%w: expected %d slots, got %d", ErrInvalidParameter, c.Slots, len(values))
	}
	return nil
}
