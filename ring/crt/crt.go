// Package crt implements the Residue-Number-System (RNS) / Chinese
// Remainder Theorem machinery that lets the ring layer represent a
// big-modulus polynomial as a vector of small-prime residues: a Context
// picks a chain of NTT-friendly primes, and CRT/Reconstruct convert between
// the single big-modulus representation and the per-prime residues.
package crt

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/numtheory"
	"github.com/sarojaerabelli/go-fhe/ring/ntt"
)

// ErrCRTWrongLength is returned when a residue vector's length does not
// match the number of primes in the Context.
var ErrCRTWrongLength = errors.New("crt: residue vector length does not match prime count")

// ErrInvalidParameter is returned for malformed construction parameters.
var ErrInvalidParameter = errors.New("crt: invalid parameter")

// Context holds a chain of NTT-friendly primes all congruent to 1 mod 2N
// (so each one carries a 2N-th root of unity for the ring degree N), the
// combined modulus Q = prod(primes), and the per-prime CRT reconstruction
// coefficients.
type Context struct {
	Degree     int
	PrimeSize  int
	Primes     []*big.Int
	Modulus    *big.Int // Q = prod(Primes)
	NTTContexts []*ntt.Context

	crtVals    []*big.Int // Q/q_i
	crtInvVals []*big.Int // (Q/q_i)^-1 mod q_i
}

// New builds a Context with numPrimes primes of approximately primeSize
// bits, each congruent to 1 mod 2*degree, searched upward from
// (1<<primeSize)+1 in steps of 2*degree exactly as the reference CRT
// generator does.
func New(degree, primeSize, numPrimes int) (*Context, error) {
	if degree <= 0 || degree&(degree-1) != 0 {
		return nil, fmt.Errorf("%w: degree %d is not a power of two", ErrInvalidParameter, degree)
	}
	if numPrimes <= 0 {
		return nil, fmt.Errorf("%w: numPrimes must be positive", ErrInvalidParameter)
	}

	primes, err := generatePrimes(degree, primeSize, numPrimes)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Degree:    degree,
		PrimeSize: primeSize,
		Primes:    primes,
	}

	c.Modulus = big.NewInt(1)
	for _, p := range primes {
		c.Modulus.Mul(c.Modulus, p)
	}

	c.NTTContexts = make([]*ntt.Context, len(primes))
	for i, p := range primes {
		ctx, err := ntt.New(degree, p, nil)
		if err != nil {
			return nil, fmt.Errorf("crt: building ntt context for prime %s: %w", p, err)
		}
		c.NTTContexts[i] = ctx
	}

	c.precomputeCRT()
	return c, nil
}

// NewFromPrimes builds a Context directly from an explicit prime chain,
// skipping prime search. Used to build the nested per-level contexts a
// CKKS modulus chain needs, where every level's context must reuse the same
// prefix of primes rather than searching anew.
func NewFromPrimes(degree int, primes []*big.Int) (*Context, error) {
	if degree <= 0 || degree&(degree-1) != 0 {
		return nil, fmt.Errorf("%w: degree %d is not a power of two", ErrInvalidParameter, degree)
	}
	if len(primes) == 0 {
		return nil, fmt.Errorf("%w: at least one prime is required", ErrInvalidParameter)
	}

	c := &Context{Degree: degree, Primes: make([]*big.Int, len(primes))}
	for i, p := range primes {
		c.Primes[i] = new(big.Int).Set(p)
	}

	c.Modulus = big.NewInt(1)
	for _, p := range c.Primes {
		c.Modulus.Mul(c.Modulus, p)
	}

	c.NTTContexts = make([]*ntt.Context, len(c.Primes))
	for i, p := range c.Primes {
		ctx, err := ntt.New(degree, p, nil)
		if err != nil {
			return nil, fmt.Errorf("crt: building ntt context for prime %s: %w", p, err)
		}
		c.NTTContexts[i] = ctx
	}

	c.precomputeCRT()
	return c, nil
}

// GeneratePrimeChain searches upward from (1<<primeSize)+1 in steps of
// 2*degree for numPrimes primes congruent to 1 mod 2*degree, without
// building a Context: exposed so callers (like ckks.Parameters) that need
// several nested Contexts sharing a common prime prefix can generate the
// chain once and build each nested Context via NewFromPrimes.
func GeneratePrimeChain(degree, primeSize, numPrimes int) ([]*big.Int, error) {
	if degree <= 0 || degree&(degree-1) != 0 {
		return nil, fmt.Errorf("%w: degree %d is not a power of two", ErrInvalidParameter, degree)
	}
	return generatePrimes(degree, primeSize, numPrimes)
}

// generatePrimes searches upward from (1<<primeSize)+1 in steps of 2*degree
// for numPrimes primes congruent to 1 mod 2*degree, matching the reference
// CRTContext's generate_primes behavior.
func generatePrimes(degree, primeSize, numPrimes int) ([]*big.Int, error) {
	step := big.NewInt(int64(2 * degree))
	candidate := new(big.Int).Lsh(big.NewInt(1), uint(primeSize))
	candidate.Add(candidate, big.NewInt(1))

	var primes []*big.Int
	for len(primes) < numPrimes {
		if numtheory.IsPrime(candidate, 40) {
			primes = append(primes, new(big.Int).Set(candidate))
		}
		candidate.Add(candidate, step)
	}
	return primes, nil
}

func (c *Context) precomputeCRT() {
	n := len(c.Primes)
	c.crtVals = make([]*big.Int, n)
	c.crtInvVals = make([]*big.Int, n)
	for i, p := range c.Primes {
		qi := new(big.Int).Div(c.Modulus, p)
		c.crtVals[i] = qi
		qiModP := new(big.Int).Mod(qi, p)
		c.crtInvVals[i] = numtheory.ModInv(qiModP, p)
	}
}

// CRT reduces a single big-modulus value modulo each prime in the chain,
// returning the residue vector.
func (c *Context) CRT(value *big.Int) []*big.Int {
	residues := make([]*big.Int, len(c.Primes))
	for i, p := range c.Primes {
		residues[i] = new(big.Int).Mod(value, p)
	}
	return residues
}

// Reconstruct combines a residue vector back into the single value modulo Q,
// via value = sum_i residue_i * (Q/q_i) * ((Q/q_i)^-1 mod q_i) mod Q.
func (c *Context) Reconstruct(residues []*big.Int) (*big.Int, error) {
	if len(residues) != len(c.Primes) {
		return nil, fmt.Errorf("%w: expected %d residues, got %d", ErrCRTWrongLength, len(c.Primes), len(residues))
	}

	result := big.NewInt(0)
	term := new(big.Int)
	for i, r := range residues {
		term.Mul(r, c.crtInvVals[i])
		term.Mod(term, c.Primes[i])
		term.Mul(term, c.crtVals[i])
		result.Add(result, term)
	}
	result.Mod(result, c.Modulus)
	return result, nil
}

// NumPrimes returns the number of primes in the chain.
func (c *Context) NumPrimes() int {
	return len(c.Primes)
}
