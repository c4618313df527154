package ckks

import (
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// Evaluator implements homomorphic operations on CKKS ciphertexts: add,
// subtract, plaintext add/multiply, ciphertext multiply, relinearize,
// rescale, modulus-lowering, rotation, conjugation, and dense-matrix
// multiplication via baby-step/giant-step diagonals.
type Evaluator struct {
	params *Parameters
}

// NewEvaluator builds an Evaluator for params.
func NewEvaluator(params *Parameters) *Evaluator {
	return &Evaluator{params: params}
}

func asDCRT(e ring.Element) (*ring.DCRTPolynomial, error) {
	d, ok := e.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ErrInvalidParameter, e)
	}
	return d, nil
}

// Add returns a + b. Both ciphertexts must share a level and scale; use
// LowerModulus to align levels first if they don't.
func (ev *Evaluator) Add(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Level != b.Level {
		return nil, fmt.Errorf("%w: level %d vs %d", ErrLevelMismatch, a.Level, b.Level)
	}
	if a.Scale != b.Scale {
		return nil, fmt.Errorf("%w: scale %g vs %g", ErrScalingFactorMismatch, a.Scale, b.Scale)
	}
	n := a.Degree()
	if b.Degree() != n {
		return nil, fmt.Errorf("%w: degree %d vs %d", ErrInvalidParameter, n, b.Degree())
	}
	out := make([]ring.Element, n+1)
	for i := range out {
		sum, err := a.Value[i].Add(b.Value[i])
		if err != nil {
			return nil, err
		}
		out[i] = sum
	}
	return rlwe.NewCiphertext(out, a.Scale, a.Level), nil
}

// Subtract returns a - b, with the same level/scale requirements as Add.
func (ev *Evaluator) Subtract(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Level != b.Level {
		return nil, fmt.Errorf("%w: level %d vs %d", ErrLevelMismatch, a.Level, b.Level)
	}
	if a.Scale != b.Scale {
		return nil, fmt.Errorf("%w: scale %g vs %g", ErrScalingFactorMismatch, a.Scale, b.Scale)
	}
	n := a.Degree()
	out := make([]ring.Element, n+1)
	for i := range out {
		diff, err := a.Value[i].Subtract(b.Value[i])
		if err != nil {
			return nil, err
		}
		out[i] = diff
	}
	return rlwe.NewCiphertext(out, a.Scale, a.Level), nil
}

// AddPlain adds an unencrypted plaintext into a ciphertext's constant term.
func (ev *Evaluator) AddPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.Level != pt.Level {
		return nil, fmt.Errorf("%w: ciphertext level %d vs plaintext level %d", ErrLevelMismatch, ct.Level, pt.Level)
	}
	if ct.Scale != pt.Scale {
		return nil, fmt.Errorf("%w: ciphertext scale %g vs plaintext scale %g", ErrScalingFactorMismatch, ct.Scale, pt.Scale)
	}
	c0, err := ct.Value[0].Add(pt.Value)
	if err != nil {
		return nil, err
	}
	out := append([]ring.Element{c0}, ct.Value[1:]...)
	return rlwe.NewCiphertext(out, ct.Scale, ct.Level), nil
}

// MultiplyPlain multiplies every ciphertext component by an unencrypted
// plaintext, accumulating scales.
func (ev *Evaluator) MultiplyPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.Level != pt.Level {
		return nil, fmt.Errorf("%w: ciphertext level %d vs plaintext level %d", ErrLevelMismatch, ct.Level, pt.Level)
	}
	out := make([]ring.Element, len(ct.Value))
	for i, v := range ct.Value {
		prod, err := v.Multiply(pt.Value)
		if err != nil {
			return nil, err
		}
		out[i] = prod
	}
	return rlwe.NewCiphertext(out, ct.Scale*pt.Scale, ct.Level), nil
}

// Multiply computes the degree-2 tensor product of two degree-1
// ciphertexts at the same level: (c0*d0, c0*d1+c1*d0, c1*d1). Scales
// multiply; Relinearize must be called before the result is decrypted or
// rescaled.
func (ev *Evaluator) Multiply(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Degree() != 1 || b.Degree() != 1 {
		return nil, fmt.Errorf("%w: multiply requires two degree-1 ciphertexts", ErrUnsupportedDegree)
	}
	if a.Level != b.Level {
		return nil, fmt.Errorf("%w: level %d vs %d", ErrLevelMismatch, a.Level, b.Level)
	}

	c0, c1 := a.Value[0], a.Value[1]
	d0, d1 := b.Value[0], b.Value[1]

	term0, err := c0.Multiply(d0)
	if err != nil {
		return nil, err
	}
	c0d1, err := c0.Multiply(d1)
	if err != nil {
		return nil, err
	}
	c1d0, err := c1.Multiply(d0)
	if err != nil {
		return nil, err
	}
	term1, err := c0d1.Add(c1d0)
	if err != nil {
		return nil, err
	}
	term2, err := c1.Multiply(d1)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{term0, term1, term2}, a.Scale*b.Scale, a.Level), nil
}

// switchKey key-switches term (defined over the working level's context)
// via key, returning the (b, a) pair to fold back into a ciphertext at the
// same working level. key's B/A components live over KeySwitchContext
// (Q_top*P), so term is raised there too before multiplying: only once the
// product is computed in that extended container does dividing by key.P
// cancel the cross term and leave a small-noise result, rather than
// reducing mod Q_top before the division has anything valid to act on.
func (ev *Evaluator) switchKey(term *ring.DCRTPolynomial, key *rlwe.SwitchingKeyVersion2, workingLevel int) (*ring.DCRTPolynomial, *ring.DCRTPolynomial, error) {
	raised, err := raiseLevel(term, ev.params.KeySwitchContext)
	if err != nil {
		return nil, nil, err
	}
	keyB, err := asDCRT(key.B)
	if err != nil {
		return nil, nil, err
	}
	keyA, err := asDCRT(key.A)
	if err != nil {
		return nil, nil, err
	}

	prodB, err := raised.Multiply(keyB)
	if err != nil {
		return nil, nil, err
	}
	prodA, err := raised.Multiply(keyA)
	if err != nil {
		return nil, nil, err
	}

	target := ev.params.LevelContexts[workingLevel]
	prodBDCRT, err := asDCRT(prodB)
	if err != nil {
		return nil, nil, err
	}
	prodADCRT, err := asDCRT(prodA)
	if err != nil {
		return nil, nil, err
	}
	b, err := divideAndLower(prodBDCRT, target, key.P)
	if err != nil {
		return nil, nil, err
	}
	a, err := divideAndLower(prodADCRT, target, key.P)
	if err != nil {
		return nil, nil, err
	}
	return b, a, nil
}

// Relinearize reduces a degree-2 ciphertext (c0, c1, c2) to degree 1 by
// key-switching c2's s^2 term back onto a linear combination of 1 and s.
func (ev *Evaluator) Relinearize(ct *rlwe.Ciphertext, relinKey *rlwe.SwitchingKeyVersion2) (*rlwe.Ciphertext, error) {
	if ct.Degree() != 2 {
		return nil, fmt.Errorf("%w: relinearize requires a degree-2 ciphertext, got degree %d", ErrUnsupportedDegree, ct.Degree())
	}
	c2, err := asDCRT(ct.Value[2])
	if err != nil {
		return nil, err
	}

	b, a, err := ev.switchKey(c2, relinKey, ct.Level)
	if err != nil {
		return nil, err
	}

	c0, err := ct.Value[0].Add(b)
	if err != nil {
		return nil, err
	}
	c1, err := ct.Value[1].Add(a)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{c0, c1}, ct.Scale, ct.Level), nil
}

// automorphismAndSwitch rotates every component of ct by the Galois
// automorphism x -> x^exponent and key-switches the result back onto the
// original secret key via key, which is the shared core of Rotate and
// Conjugate.
func (ev *Evaluator) automorphismAndSwitch(ct *rlwe.Ciphertext, exponent int, key *rlwe.SwitchingKeyVersion2) (*rlwe.Ciphertext, error) {
	if ct.Degree() != 1 {
		return nil, fmt.Errorf("%w: rotate/conjugate require a degree-1 ciphertext, got degree %d", ErrUnsupportedDegree, ct.Degree())
	}
	c0, err := asDCRT(ct.Value[0])
	if err != nil {
		return nil, err
	}
	c1, err := asDCRT(ct.Value[1])
	if err != nil {
		return nil, err
	}

	c0r := c0.Automorphism(exponent)
	c1r := c1.Automorphism(exponent)

	b, a, err := ev.switchKey(c1r, key, ct.Level)
	if err != nil {
		return nil, err
	}

	newC0, err := c0r.Add(b)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{newC0, a}, ct.Scale, ct.Level), nil
}

// Rotate cyclically shifts ct's slots by steps positions, via the Galois
// automorphism x -> x^(5^steps mod 2N) and the rotation key generated for
// that step count.
func (ev *Evaluator) Rotate(ct *rlwe.Ciphertext, steps int, rotKey *rlwe.RotationKey) (*rlwe.Ciphertext, error) {
	exp := rotationExponent(ev.params.Degree, steps)
	return ev.automorphismAndSwitch(ct, exp, rotKey.Key)
}

// Conjugate replaces every slot with its complex conjugate, via the Galois
// automorphism x -> x^-1.
func (ev *Evaluator) Conjugate(ct *rlwe.Ciphertext, conjKey *rlwe.ConjugationKey) (*rlwe.Ciphertext, error) {
	return ev.automorphismAndSwitch(ct, 2*ev.params.Degree-1, conjKey.Key)
}

// Rescale divides every ciphertext component by the current level's top
// prime and drops to the next level down, dividing Scale by the same
// prime. This is CKKS's noise-management step after a Multiply.
func (ev *Evaluator) Rescale(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct.Level == 0 {
		return nil, fmt.Errorf("%w: cannot rescale below level 0", ErrInvalidParameter)
	}
	divisor := ev.params.Primes[ct.Level]
	target := ev.params.LevelContexts[ct.Level-1]

	out := make([]ring.Element, len(ct.Value))
	for i, v := range ct.Value {
		elem, err := asDCRT(v)
		if err != nil {
			return nil, err
		}
		lowered, err := divideAndLower(elem, target, divisor)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}

	divisorFloat, _ := new(big.Float).SetInt(divisor).Float64()
	return rlwe.NewCiphertext(out, ct.Scale/divisorFloat, ct.Level-1), nil
}

// LowerModulus drops ct down to targetLevel without dividing out any
// scaling, the alignment step Add/Subtract need when combining ciphertexts
// produced at different levels.
func (ev *Evaluator) LowerModulus(ct *rlwe.Ciphertext, targetLevel int) (*rlwe.Ciphertext, error) {
	if targetLevel > ct.Level {
		return nil, fmt.Errorf("%w: target level %d is above current level %d", ErrInvalidParameter, targetLevel, ct.Level)
	}
	if targetLevel == ct.Level {
		return ct, nil
	}
	target := ev.params.LevelContexts[targetLevel]
	out := make([]ring.Element, len(ct.Value))
	for i, v := range ct.Value {
		elem, err := asDCRT(v)
		if err != nil {
			return nil, err
		}
		lowered, err := lowerLevel(elem, target)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return rlwe.NewCiphertext(out, ct.Scale, targetLevel), nil
}
