// Package numtheory implements the modular-arithmetic primitives the ring
// and scheme layers build on: modular exponentiation and inversion,
// primitive-root search, root-of-unity discovery and primality testing.
package numtheory

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrNoRootOfUnity is returned when the requested order does not divide
// p-1, or when no primitive root exists modulo p.
var ErrNoRootOfUnity = errors.New("numtheory: no root of unity of the requested order")

// ErrInvalidParameter is returned for malformed modular-arithmetic inputs,
// such as a non-prime modulus passed to a routine that requires one.
var ErrInvalidParameter = errors.New("numtheory: invalid parameter")

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// ModExp computes val^exp mod modulus via big.Int's square-and-multiply.
func ModExp(val, exp, modulus *big.Int) *big.Int {
	return new(big.Int).Exp(val, exp, modulus)
}

// ModInv computes the inverse of val modulo the prime p via Fermat's
// little theorem: val^(p-2) mod p.
func ModInv(val, p *big.Int) *big.Int {
	exp := new(big.Int).Sub(p, two)
	return ModExp(val, exp, p)
}

// FindGenerator returns a primitive root modulo the prime p by factoring
// p-1 and testing candidates against each prime factor.
func FindGenerator(p *big.Int) (*big.Int, error) {
	if !IsPrime(p, 200) {
		return nil, fmt.Errorf("%w: modulus %s is not prime", ErrInvalidParameter, p)
	}

	pMinus1 := new(big.Int).Sub(p, one)
	factors := primeFactors(pMinus1)

	for candidate := big.NewInt(2); candidate.Cmp(p) < 0; candidate.Add(candidate, one) {
		if isGenerator(candidate, p, pMinus1, factors) {
			return new(big.Int).Set(candidate), nil
		}
	}
	return nil, fmt.Errorf("%w: no primitive root modulo %s", ErrNoRootOfUnity, p)
}

func isGenerator(candidate, p, pMinus1 *big.Int, factors []*big.Int) bool {
	for _, factor := range factors {
		exp := new(big.Int).Div(pMinus1, factor)
		if ModExp(candidate, exp, p).Cmp(one) == 0 {
			return false
		}
	}
	return true
}

// primeFactors returns the distinct prime factors of n. n here is always
// p-1 for an NTT-friendly prime produced by crt.Context, which keeps it
// small enough (a couple hundred bits at most) for trial division against
// small primes followed by Pollard's rho on the remaining cofactors.
func primeFactors(n *big.Int) []*big.Int {
	seen := map[string]bool{}
	var factors []*big.Int
	remaining := new(big.Int).Set(n)

	for _, small := range smallPrimes {
		d := big.NewInt(small)
		if remaining.Cmp(d) < 0 {
			break
		}
		mod := new(big.Int)
		for {
			_, m := new(big.Int).DivMod(remaining, d, mod)
			if m.Sign() != 0 {
				break
			}
			if !seen[d.String()] {
				seen[d.String()] = true
				factors = append(factors, new(big.Int).Set(d))
			}
			remaining.Div(remaining, d)
		}
	}

	for _, f := range factorRec(remaining) {
		if !seen[f.String()] {
			seen[f.String()] = true
			factors = append(factors, f)
		}
	}
	return factors
}

// factorRec recursively splits a composite cofactor using Pollard's rho,
// bottoming out once IsPrime accepts the remainder.
func factorRec(n *big.Int) []*big.Int {
	if n.Cmp(one) <= 0 {
		return nil
	}
	if IsPrime(n, 40) {
		return []*big.Int{new(big.Int).Set(n)}
	}
	d := pollardRho(n)
	return append(factorRec(d), factorRec(new(big.Int).Div(n, d))...)
}

// pollardRho finds a non-trivial factor of the composite n.
func pollardRho(n *big.Int) *big.Int {
	if n.Bit(0) == 0 {
		return big.NewInt(2)
	}
	for c := int64(1); ; c++ {
		x := big.NewInt(2)
		y := big.NewInt(2)
		d := big.NewInt(1)
		cc := big.NewInt(c)
		f := func(v *big.Int) *big.Int {
			r := new(big.Int).Mul(v, v)
			r.Add(r, cc)
			r.Mod(r, n)
			return r
		}
		for d.Cmp(one) == 0 {
			x = f(x)
			y = f(f(y))
			diff := new(big.Int).Sub(x, y)
			diff.Abs(diff)
			if diff.Sign() == 0 {
				d.Set(n)
				break
			}
			d.GCD(nil, nil, diff, n)
		}
		if d.Cmp(n) != 0 && d.Cmp(one) != 0 {
			return d
		}
	}
}

var smallPrimes = func() []int64 {
	const limit = 1 << 16
	sieve := make([]bool, limit)
	var primes []int64
	for i := int64(2); i < limit; i++ {
		if sieve[i] {
			continue
		}
		primes = append(primes, i)
		for j := i * i; j < limit; j += i {
			sieve[j] = true
		}
	}
	return primes
}()

// RootOfUnity returns a root of unity of the given order modulo the prime
// modulus, i.e. a value g such that g^order = 1 (mod modulus) and order is
// its exact order. Fails with ErrNoRootOfUnity if order does not divide
// modulus-1 or no primitive root exists.
func RootOfUnity(order, modulus *big.Int) (*big.Int, error) {
	pMinus1 := new(big.Int).Sub(modulus, one)
	r := new(big.Int).Mod(pMinus1, order)
	if r.Sign() != 0 {
		return nil, fmt.Errorf("%w: order %s does not divide modulus-1 %s", ErrNoRootOfUnity, order, pMinus1)
	}

	generator, err := FindGenerator(modulus)
	if err != nil {
		return nil, err
	}

	exp := new(big.Int).Div(pMinus1, order)
	for {
		result := ModExp(generator, exp, modulus)
		if result.Cmp(one) != 0 {
			return result, nil
		}
		// Resample: advance the generator search and retry, matching the
		// source's recursive re-roll when the candidate collapses to 1.
		generator.Add(generator, one)
		if generator.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("%w: exhausted candidates modulo %s", ErrNoRootOfUnity, modulus)
		}
	}
}

// IsPrime runs math/big's ProbablyPrime with the given number of
// Miller-Rabin rounds plus a Baillie-PSW test. The witnesses are chosen
// pseudorandomly by math/big (deterministically for a given n); they are
// not drawn from crypto/rand.
func IsPrime(n *big.Int, trials int) bool {
	if n.Cmp(two) < 0 {
		return false
	}
	if n.Cmp(two) == 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}
	return n.ProbablyPrime(millerRabinRounds(trials))
}

// millerRabinRounds maps a requested witness count onto big.Int's internal
// round count, using at least one round; ProbablyPrime(n) runs n
// Miller-Rabin rounds with pseudorandom bases plus a Baillie-PSW test.
func millerRabinRounds(trials int) int {
	if trials <= 0 {
		return 1
	}
	return trials
}

// RandomOddBits returns a uniformly random odd integer with exactly bits
// bits set in its binary length (top bit set, bottom bit set), suitable as
// a starting candidate for NTT-friendly prime search.
func RandomOddBits(bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, fmt.Errorf("%w: bits must be >= 2", ErrInvalidParameter)
	}
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(one, uint(bits)))
	if err != nil {
		return nil, err
	}
	n.SetBit(n, bits-1, 1)
	n.SetBit(n, 0, 1)
	return n, nil
}
