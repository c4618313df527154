// Package ntt implements the iterated Number-Theoretic Transform (NTT) and
// its negacyclic Fermat-Theoretic Transform (FTT) wrapper, used to multiply
// polynomials in Z_q[x]/(x^N+1) in O(N log N).
package ntt

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/klauspost/cpuid/v2"

	"github.com/sarojaerabelli/go-fhe/bitrev"
	"github.com/sarojaerabelli/go-fhe/numtheory"
)

// ErrInvalidParameter is returned when the polynomial degree is not a
// power of two, or an input vector has the wrong length.
var ErrInvalidParameter = errors.New("ntt: invalid parameter")

// Context holds the precomputed powers of a 2N-th root of unity, and the
// bit-reversal table, needed to run the forward/inverse NTT and FTT over
// Z_q[x]/(x^N+1).
type Context struct {
	Degree    int
	Modulus   *big.Int
	RootOfUnity *big.Int

	rootsOfUnity    []*big.Int
	rootsOfUnityInv []*big.Int
	reversedBits    []int

	// wideButterfly records whether the host supports AVX2. It is only
	// reported through SupportsWideButterfly; NTT has a single pure-Go loop
	// body and does not read it.
	wideButterfly bool
}

// New builds a Context for the given polynomial degree and coefficient
// modulus. If rootOfUnity is nil, a 2*degree-th primitive root of unity
// modulo modulus is computed.
func New(degree int, modulus *big.Int, rootOfUnity *big.Int) (*Context, error) {
	if degree <= 0 || degree&(degree-1) != 0 {
		return nil, fmt.Errorf("%w: degree %d is not a power of two", ErrInvalidParameter, degree)
	}

	c := &Context{
		Degree:        degree,
		Modulus:       new(big.Int).Set(modulus),
		wideButterfly: cpuid.CPU.Supports(cpuid.AVX2),
	}

	if rootOfUnity == nil {
		order := big.NewInt(int64(2 * degree))
		rou, err := numtheory.RootOfUnity(order, modulus)
		if err != nil {
			return nil, err
		}
		rootOfUnity = rou
	}
	c.RootOfUnity = new(big.Int).Set(rootOfUnity)

	c.precompute()
	return c, nil
}

func (c *Context) precompute() {
	n := c.Degree
	c.rootsOfUnity = make([]*big.Int, n)
	c.rootsOfUnity[0] = big.NewInt(1)
	for i := 1; i < n; i++ {
		c.rootsOfUnity[i] = new(big.Int).Mul(c.rootsOfUnity[i-1], c.RootOfUnity)
		c.rootsOfUnity[i].Mod(c.rootsOfUnity[i], c.Modulus)
	}

	rouInv := numtheory.ModInv(c.RootOfUnity, c.Modulus)
	c.rootsOfUnityInv = make([]*big.Int, n)
	c.rootsOfUnityInv[0] = big.NewInt(1)
	for i := 1; i < n; i++ {
		c.rootsOfUnityInv[i] = new(big.Int).Mul(c.rootsOfUnityInv[i-1], rouInv)
		c.rootsOfUnityInv[i].Mod(c.rootsOfUnityInv[i], c.Modulus)
	}

	width := bitLen(n - 1)
	c.reversedBits = make([]int, n)
	for i := 0; i < n; i++ {
		c.reversedBits[i] = int(bitrev.Reverse(uint64(i), width)) % n
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

// NTT runs the iterative decimation-in-time NTT of coeffs against the
// supplied powers-of-root-of-unity table rou (rootsOfUnity for the forward
// transform, rootsOfUnityInv for the inverse), returning a freshly
// allocated result.
func (c *Context) NTT(coeffs []*big.Int, rou []*big.Int) ([]*big.Int, error) {
	n := len(coeffs)
	if n != c.Degree {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidParameter, c.Degree, n)
	}
	if len(rou) != n {
		return nil, fmt.Errorf("%w: root-of-unity table length %d does not match degree %d", ErrInvalidParameter, len(rou), n)
	}

	result := make([]*big.Int, n)
	for i, idx := range c.reversedBits {
		result[i] = new(big.Int).Set(coeffs[idx])
	}

	logN := bitLen(n - 1)
	tmp := new(big.Int)
	for logm := 1; logm <= logN; logm++ {
		half := 1 << (logm - 1)
		step := 1 << logm
		for j := 0; j < n; j += step {
			for i := 0; i < half; i++ {
				evenIdx := j + i
				oddIdx := j + i + half
				rouIdx := i << (1 + logN - logm)

				tmp.Mul(rou[rouIdx], result[oddIdx])
				tmp.Mod(tmp, c.Modulus)

				plus := new(big.Int).Add(result[evenIdx], tmp)
				plus.Mod(plus, c.Modulus)
				minus := new(big.Int).Sub(result[evenIdx], tmp)
				minus.Mod(minus, c.Modulus)

				result[evenIdx] = plus
				result[oddIdx] = minus
			}
		}
	}
	return result, nil
}

// FTTForward computes the negacyclic NTT used to multiply in R_q =
// Z_q[x]/(x^N+1): it pre-twists coeffs by powers of the root of unity
// before running the ordinary NTT.
func (c *Context) FTTForward(coeffs []*big.Int) ([]*big.Int, error) {
	if len(coeffs) != c.Degree {
		return nil, fmt.Errorf("%w: ftt_fwd expects %d coefficients, got %d", ErrInvalidParameter, c.Degree, len(coeffs))
	}
	twisted := make([]*big.Int, c.Degree)
	for i, v := range coeffs {
		t := new(big.Int).Mul(v, c.rootsOfUnity[i])
		t.Mod(t, c.Modulus)
		twisted[i] = t
	}
	return c.NTT(twisted, c.rootsOfUnity)
}

// FTTInverse runs the inverse FTT: the ordinary inverse NTT followed by a
// post-twist by N^-1 * w^-i.
func (c *Context) FTTInverse(coeffs []*big.Int) ([]*big.Int, error) {
	if len(coeffs) != c.Degree {
		return nil, fmt.Errorf("%w: ftt_inv expects %d coefficients, got %d", ErrInvalidParameter, c.Degree, len(coeffs))
	}
	scaledDown, err := c.NTT(coeffs, c.rootsOfUnityInv)
	if err != nil {
		return nil, err
	}
	degreeInv := numtheory.ModInv(big.NewInt(int64(c.Degree)), c.Modulus)

	result := make([]*big.Int, c.Degree)
	tmp := new(big.Int)
	for i := range result {
		tmp.Mul(scaledDown[i], c.rootsOfUnityInv[i])
		tmp.Mod(tmp, c.Modulus)
		tmp.Mul(tmp, degreeInv)
		result[i] = new(big.Int).Mod(tmp, c.Modulus)
	}
	return result, nil
}

// SupportsWideButterfly reports whether the host CPU advertises AVX2, as
// recorded at construction; the arithmetic above is pure Go regardless.
func (c *Context) SupportsWideButterfly() bool {
	return c.wideButterfly
}
