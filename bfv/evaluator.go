package bfv

import (
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// Evaluator implements homomorphic addition and multiplication on BFV
// ciphertexts.
type Evaluator struct {
	params *Parameters
}

// NewEvaluator builds an Evaluator for params.
func NewEvaluator(params *Parameters) *Evaluator {
	return &Evaluator{params: params}
}

// Add returns a + b componentwise; both ciphertexts must have the same
// degree.
func (ev *Evaluator) Add(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Degree() != b.Degree() {
		return nil, fmt.Errorf("%w: degree %d vs %d", ring.ErrInvalidParameter, a.Degree(), b.Degree())
	}
	out := make([]ring.Element, len(a.Value))
	for i := range out {
		sum, err := a.Value[i].Add(b.Value[i])
		if err != nil {
			return nil, err
		}
		out[i] = sum
	}
	return rlwe.NewCiphertext(out, a.Scale, a.Level), nil
}

// Subtract returns a - b componentwise.
func (ev *Evaluator) Subtract(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Degree() != b.Degree() {
		return nil, fmt.Errorf("%w: degree %d vs %d", ring.ErrInvalidParameter, a.Degree(), b.Degree())
	}
	out := make([]ring.Element, len(a.Value))
	for i := range out {
		diff, err := a.Value[i].Subtract(b.Value[i])
		if err != nil {
			return nil, err
		}
		out[i] = diff
	}
	return rlwe.NewCiphertext(out, a.Scale, a.Level), nil
}

// Multiply computes the degree-2 tensor product of two degree-1
// ciphertexts: (c0*d0, c0*d1+c1*d0, c1*d1), each cross term multiplied over
// the floating-point FFT path (which rounds half-to-even) as an exact,
// unreduced integer product and then rescaled by t/q (rounding half away
// from zero) and reduced mod q.
// The result must be passed through Relinearize before it can be decrypted
// by Decryptor.Decrypt.
func (ev *Evaluator) Multiply(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Degree() != 1 || b.Degree() != 1 {
		return nil, fmt.Errorf("%w: multiply requires two degree-1 ciphertexts", ErrUnsupportedDegree)
	}

	c0, ok := a.Value[0].(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, a.Value[0])
	}
	c1, ok := a.Value[1].(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, a.Value[1])
	}
	d0, ok := b.Value[0].(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, b.Value[0])
	}
	d1, ok := b.Value[1].(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, b.Value[1])
	}

	// MultiplyFFT reduces its result mod the operands' modulus, but the t/q
	// rescale needs the exact integer products, so multiply copies that
	// carry no modulus.
	unreduced := func(p *ring.Polynomial) *ring.Polynomial {
		u, _ := ring.NewPolynomial(p.Degree(), nil, p.Coeffs())
		return u.WithFFTContext(ev.params.FFTContext)
	}
	c0, c1, d0, d1 = unreduced(c0), unreduced(c1), unreduced(d0), unreduced(d1)

	term0, err := c0.MultiplyFFT(d0)
	if err != nil {
		return nil, err
	}
	c0d1, err := c0.MultiplyFFT(d1)
	if err != nil {
		return nil, err
	}
	c1d0, err := c1.MultiplyFFT(d0)
	if err != nil {
		return nil, err
	}
	term1Elem, err := c0d1.Add(c1d0)
	if err != nil {
		return nil, err
	}
	term1 := term1Elem.(*ring.Polynomial)
	term2, err := c1.MultiplyFFT(d1)
	if err != nil {
		return nil, err
	}

	rescaled := make([]ring.Element, 3)
	for i, term := range []*ring.Polynomial{term0, term1, term2} {
		rescaled[i] = ev.rescaleByTOverQ(term)
	}

	return rlwe.NewCiphertext(rescaled, 1, a.Level), nil
}

// rescaleByTOverQ scales every coefficient by t/q, rounding to the nearest
// integer (half away from zero) before reducing mod q, which is how BFV's
// tensor product collapses back onto the ciphertext modulus.
func (ev *Evaluator) rescaleByTOverQ(p *ring.Polynomial) *ring.Polynomial {
	q := ev.params.CiphertextModulus
	t := ev.params.PlaintextModulus
	coeffs := p.Coeffs()
	for i, c := range coeffs {
		scaled := new(big.Int).Mul(c, t)
		doubled := new(big.Int).Lsh(scaled, 1)
		if scaled.Sign() >= 0 {
			doubled.Add(doubled, q)
		} else {
			doubled.Sub(doubled, q)
		}
		rounded := new(big.Int).Quo(doubled, new(big.Int).Lsh(q, 1))
		coeffs[i] = rounded.Mod(rounded, q)
	}
	result, _ := ring.NewPolynomial(ev.params.Degree, q, coeffs)
	return result.WithNTTContext(ev.params.NTTContext).WithFFTContext(ev.params.FFTContext)
}

// Relinearize reduces a degree-2 ciphertext (c0, c1, c2) back to degree 1 by
// switching c2*s^2 into a linear term via relinKey's digit decomposition:
// for each base-B digit of c2, the key's (b_i, a_i) pair contributes
// digit_i*b_i to c0 and digit_i*a_i to c1.
func (ev *Evaluator) Relinearize(ct *rlwe.Ciphertext, relinKey *rlwe.SwitchingKeyVersion1) (*rlwe.Ciphertext, error) {
	if ct.Degree() != 2 {
		return nil, fmt.Errorf("%w: relinearize requires a degree-2 ciphertext, got degree %d", ErrUnsupportedDegree, ct.Degree())
	}
	c2, ok := ct.Value[2].(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, ct.Value[2])
	}

	base := big.NewInt(relinKey.Base)
	digits := c2.BaseDecompose(base, relinKey.DigitCount)

	c0 := ct.Value[0]
	c1 := ct.Value[1]
	for i, digit := range digits {
		contribB, err := relinKey.B[i].Multiply(digit)
		if err != nil {
			return nil, err
		}
		c0, err = c0.Add(contribB)
		if err != nil {
			return nil, err
		}
		contribA, err := relinKey.A[i].Multiply(digit)
		if err != nil {
			return nil, err
		}
		c1, err = c1.Add(contribA)
		if err != nil {
			return nil, err
		}
	}

	return rlwe.NewCiphertext([]ring.Element{c0, c1}, ct.Scale, ct.Level), nil
}
