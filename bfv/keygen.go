package bfv

import (
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

// KeyGenerator samples BFV secret/public/relinearization keys.
type KeyGenerator struct {
	params *Parameters
	base   *rlwe.KeyGenerator
	source *sampling.Source
}

// NewKeyGenerator builds a KeyGenerator for params drawing randomness from
// source.
func NewKeyGenerator(params *Parameters, source *sampling.Source) *KeyGenerator {
	return &KeyGenerator{params: params, base: rlwe.NewKeyGenerator(source), source: source}
}

func (g *KeyGenerator) newPoly(coeffs []*big.Int) (*ring.Polynomial, error) {
	p, err := ring.NewPolynomial(g.params.Degree, g.params.CiphertextModulus, coeffs)
	if err != nil {
		return nil, err
	}
	return p.WithNTTContext(g.params.NTTContext), nil
}

// GenerateSecretKey samples a ternary fixed-Hamming-weight secret key.
func (g *KeyGenerator) GenerateSecretKey() (*rlwe.SecretKey, error) {
	coeffs, err := g.source.HammingWeight(g.params.Degree, g.params.HammingWeight, g.params.CiphertextModulus)
	if err != nil {
		return nil, err
	}
	s, err := g.newPoly(coeffs)
	if err != nil {
		return nil, err
	}
	return rlwe.NewSecretKey(s), nil
}

// GeneratePublicKey derives the public encryption key (b, a) from secret.
func (g *KeyGenerator) GeneratePublicKey(secret *rlwe.SecretKey) (*rlwe.PublicKey, error) {
	aCoeffs, err := g.source.UniformPoly(g.params.Degree, g.params.CiphertextModulus)
	if err != nil {
		return nil, err
	}
	a, err := g.newPoly(aCoeffs)
	if err != nil {
		return nil, err
	}
	eCoeffs, err := g.source.Triangle(g.params.Degree, g.params.CiphertextModulus)
	if err != nil {
		return nil, err
	}
	e, err := g.newPoly(eCoeffs)
	if err != nil {
		return nil, err
	}
	return g.base.GeneratePublicKey(secret, a, e)
}

// GenerateRelinKey builds the version-1 digit-decomposition relinearization
// key for s^2, the key BFV's Evaluator.Relinearize consumes after a
// ciphertext multiply produces a degree-2 ciphertext.
func (g *KeyGenerator) GenerateRelinKey(secret *rlwe.SecretKey) (*rlwe.SwitchingKeyVersion1, error) {
	s2, err := secret.Value.Multiply(secret.Value)
	if err != nil {
		return nil, err
	}
	s2Poly, ok := s2.(*ring.Polynomial)
	if !ok {
		return nil, ring.ErrInvalidParameter
	}

	base := big.NewInt(g.params.RelinBase)
	digitCount := digitCountFor(g.params.CiphertextModulus, base)

	// Each key component i must encrypt B^i * s^2, a scalar multiple of the
	// whole s^2 term, not the i-th base-B digit of s^2: Relinearize only
	// decomposes c2 into digits, and Sum_i digit_i(c2) * digit_i(s^2) is not
	// c2*s^2 (e.g. base 10, c2=23=[3,2], s^2=45=[5,4]: 3*5+2*4=23, not 1035).
	sourceDigits := make([]ring.Element, digitCount)
	uniformA := make([]ring.Element, digitCount)
	errors := make([]ring.Element, digitCount)
	baseToThe := big.NewInt(1)
	for i := 0; i < digitCount; i++ {
		sourceDigits[i] = s2Poly.ScalarMultiply(baseToThe)
		baseToThe = new(big.Int).Mul(baseToThe, base)

		aCoeffs, err := g.source.UniformPoly(g.params.Degree, g.params.CiphertextModulus)
		if err != nil {
			return nil, err
		}
		a, err := g.newPoly(aCoeffs)
		if err != nil {
			return nil, err
		}
		uniformA[i] = a

		eCoeffs, err := g.source.Triangle(g.params.Degree, g.params.CiphertextModulus)
		if err != nil {
			return nil, err
		}
		e, err := g.newPoly(eCoeffs)
		if err != nil {
			return nil, err
		}
		errors[i] = e
	}

	return g.base.GenerateSwitchingKeyVersion1(g.params.RelinBase, sourceDigits, secret, uniformA, errors)
}

func digitCountFor(modulus, base *big.Int) int {
	count := 0
	remaining := new(big.Int).Set(modulus)
	for remaining.Sign() > 0 {
		remaining.Div(remaining, base)
		count++
	}
	if count == 0 {
		count = 1
	}
	return count
}
