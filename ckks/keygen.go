package ckks

import (
	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

// KeyGenerator samples CKKS secret/public/relinearization/rotation/
// conjugation keys: secret and public keys at the top (freshest) level of
// the modulus chain, switching keys over KeySwitchContext (Q_top*P).
type KeyGenerator struct {
	params *Parameters
	base   *rlwe.KeyGenerator
	source *sampling.Source
}

// NewKeyGenerator builds a KeyGenerator for params.
func NewKeyGenerator(params *Parameters, source *sampling.Source) *KeyGenerator {
	return &KeyGenerator{params: params, base: rlwe.NewKeyGenerator(source), source: source}
}

// GenerateSecretKey samples a fixed-Hamming-weight ternary secret key over
// the top-level modulus.
func (g *KeyGenerator) GenerateSecretKey() (*rlwe.SecretKey, error) {
	top := g.params.TopContext()
	coeffs, err := g.source.HammingWeight(g.params.Degree, g.params.HammingWeight, top.Modulus)
	if err != nil {
		return nil, err
	}
	s, err := ring.NewDCRTPolynomial(top, coeffs)
	if err != nil {
		return nil, err
	}
	return rlwe.NewSecretKey(s), nil
}

func (g *KeyGenerator) sampleUniform() (*ring.DCRTPolynomial, error) {
	top := g.params.TopContext()
	coeffs, err := g.source.UniformPoly(g.params.Degree, top.Modulus)
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(top, coeffs)
}

func (g *KeyGenerator) sampleError() (*ring.DCRTPolynomial, error) {
	top := g.params.TopContext()
	coeffs, err := g.source.Triangle(g.params.Degree, top.Modulus)
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(top, coeffs)
}

// sampleUniformExtended and sampleErrorExtended sample over KeySwitchContext
// (modulus Q_top*P) rather than TopContext, since a version-2 switching
// key's randomness must live in the same extended container the source term
// and new secret are raised into (see generateSwitchingKey): sampling only
// over Q_top leaves nothing for the later divide-by-P step at evaluation
// time to cancel against.
func (g *KeyGenerator) sampleUniformExtended() (*ring.DCRTPolynomial, error) {
	ksCtx := g.params.KeySwitchContext
	coeffs, err := g.source.UniformPoly(g.params.Degree, ksCtx.Modulus)
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(ksCtx, coeffs)
}

func (g *KeyGenerator) sampleErrorExtended() (*ring.DCRTPolynomial, error) {
	ksCtx := g.params.KeySwitchContext
	coeffs, err := g.source.Triangle(g.params.Degree, ksCtx.Modulus)
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(ksCtx, coeffs)
}

// GeneratePublicKey derives the public encryption key from secret.
func (g *KeyGenerator) GeneratePublicKey(secret *rlwe.SecretKey) (*rlwe.PublicKey, error) {
	a, err := g.sampleUniform()
	if err != nil {
		return nil, err
	}
	e, err := g.sampleError()
	if err != nil {
		return nil, err
	}
	return g.base.GeneratePublicKey(secret, a, e)
}

// GenerateRelinKey builds the version-2 special-modulus relinearization key
// for s^2.
func (g *KeyGenerator) GenerateRelinKey(secret *rlwe.SecretKey) (*rlwe.SwitchingKeyVersion2, error) {
	s2, err := secret.Value.Multiply(secret.Value)
	if err != nil {
		return nil, err
	}
	return g.generateSwitchingKey(s2, secret)
}

// GenerateRotationKey builds the version-2 switching key that rotates
// ciphertext slots by the automorphism x -> x^(5^steps mod 2N).
func (g *KeyGenerator) GenerateRotationKey(secret *rlwe.SecretKey, steps int) (*rlwe.RotationKey, error) {
	s := secret.Value.(*ring.DCRTPolynomial)
	rotated := s.Automorphism(rotationExponent(g.params.Degree, steps))
	key, err := g.generateSwitchingKey(rotated, secret)
	if err != nil {
		return nil, err
	}
	return &rlwe.RotationKey{Rotation: steps, Key: key}, nil
}

// GenerateConjugationKey builds the version-2 switching key for the
// conjugation automorphism x -> x^-1.
func (g *KeyGenerator) GenerateConjugationKey(secret *rlwe.SecretKey) (*rlwe.ConjugationKey, error) {
	s := secret.Value.(*ring.DCRTPolynomial)
	conjugated := s.Conjugate()
	key, err := g.generateSwitchingKey(conjugated, secret)
	if err != nil {
		return nil, err
	}
	return &rlwe.ConjugationKey{Key: key}, nil
}

// generateSwitchingKey builds a version-2 (special-modulus) switching key
// encrypting sourceTerm under newSecret. Following the reference's
// mod_squared = big_modulus**2 construction, the key's randomness and both
// inputs live over KeySwitchContext (modulus Q_top*P), not TopContext
// (Q_top): b = -(a*newSecret) + e + P*sourceTerm only hides P*sourceTerm
// behind noise if a*newSecret is itself computed in a container big enough
// to hold it without wrapping, which Q_top alone is not.
func (g *KeyGenerator) generateSwitchingKey(sourceTerm ring.Element, newSecret *rlwe.SecretKey) (*rlwe.SwitchingKeyVersion2, error) {
	ksCtx := g.params.KeySwitchContext

	sourceDCRT, err := asDCRT(sourceTerm)
	if err != nil {
		return nil, err
	}
	raisedSource, err := raiseLevel(sourceDCRT, ksCtx)
	if err != nil {
		return nil, err
	}

	secretDCRT, err := asDCRT(newSecret.Value)
	if err != nil {
		return nil, err
	}
	raisedSecret, err := raiseLevel(secretDCRT, ksCtx)
	if err != nil {
		return nil, err
	}

	a, err := g.sampleUniformExtended()
	if err != nil {
		return nil, err
	}
	e, err := g.sampleErrorExtended()
	if err != nil {
		return nil, err
	}
	return g.base.GenerateSwitchingKeyVersion2(raisedSource, rlwe.NewSecretKey(raisedSecret), a, e, g.params.SpecialModulus)
}

// rotationExponent returns the Galois exponent 5^steps mod 2N used to
// rotate CKKS slots by steps positions.
func rotationExponent(degree, steps int) int {
	m := 2 * degree
	exp := 1
	if steps < 0 {
		steps = -steps
		inv5 := modInverse(5, m)
		base := 1
		for i := 0; i < steps; i++ {
			base = (base * inv5) % m
		}
		return base
	}
	for i := 0; i < steps; i++ {
		exp = (exp * 5) % m
	}
	return exp
}

func modInverse(a, m int) int {
	g0, x0, x1 := m, 0, 1
	a0 := a
	for a0 != 0 {
		q := g0 / a0
		g0, a0 = a0, g0-q*a0
		x0, x1 = x1, x0-q*x1
	}
	if x0 < 0 {
		x0 += m
	}
	return x0
}
