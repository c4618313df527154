package ckks

import (
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/ring/crt"
)

// raiseLevel reconstructs elem's big-modulus value, centers it, and
// re-expands it as a DCRTPolynomial over target (a context with strictly
// more primes). This is CKKS's modulus-raising primitive: reconstruction is
// exact because centering first guarantees the true integer coefficients
// are far smaller than the smaller modulus, so reducing them into any
// larger modulus recovers the same value.
func raiseLevel(elem *ring.DCRTPolynomial, target *crt.Context) (*ring.DCRTPolynomial, error) {
	poly, err := elem.Reconstruct()
	if err != nil {
		return nil, err
	}
	centered := poly.ModSmall(elem.Modulus())
	return ring.NewDCRTPolynomial(target, centered.Coeffs())
}

// lowerLevel drops elem down onto target (a context whose primes are a
// strict prefix of elem's), via DCRTPolynomial.ModSwitch.
func lowerLevel(elem *ring.DCRTPolynomial, target *crt.Context) (*ring.DCRTPolynomial, error) {
	return elem.ModSwitch(target)
}

// divideAndLower reconstructs elem (defined over a context with more primes
// than target), rounds every coefficient by dividing by divisor, and
// re-expands the quotient over target. This is the "divide by the special
// modulus P, then drop back to the working level" step every
// relinearize/rotate/conjugate key-switch ends with.
func divideAndLower(elem *ring.DCRTPolynomial, target *crt.Context, divisor *big.Int) (*ring.DCRTPolynomial, error) {
	poly, err := elem.Reconstruct()
	if err != nil {
		return nil, err
	}
	centered := poly.ModSmall(elem.Modulus())
	coeffs := centered.Coeffs()
	divided := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		divided[i] = roundDiv(c, divisor)
	}
	return ring.NewDCRTPolynomial(target, divided)
}

// negOneInt returns -1 as a fresh *big.Int, used as the ScalarMultiply
// argument wherever a ring element needs negating.
func negOneInt() *big.Int {
	return big.NewInt(-1)
}

// roundDiv computes round(numerator/divisor), rounding half away from zero.
func roundDiv(numerator, divisor *big.Int) *big.Int {
	doubled := new(big.Int).Lsh(numerator, 1)
	doubledDivisor := new(big.Int).Lsh(divisor, 1)
	if numerator.Sign() >= 0 {
		doubled.Add(doubled, divisor)
	} else {
		doubled.Sub(doubled, divisor)
	}
	return new(big.Int).Quo(doubled, doubledDivisor)
}
