package rlwe

import (
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

// KeyGenerator implements the RLWE key-generation primitives shared by BFV
// and CKKS: deriving a public key from a secret key and building both
// flavors of switching key from caller-supplied randomness. It does not
// sample secret keys; the scheme-level KeyGenerators in bfv and ckks wrap
// this and do their own scheme-specific sampling and modulus bookkeeping.
type KeyGenerator struct {
	Source *sampling.Source
}

// NewKeyGenerator wraps a randomness Source.
func NewKeyGenerator(source *sampling.Source) *KeyGenerator {
	return &KeyGenerator{Source: source}
}

// GeneratePublicKey derives (b, a) = (-a*s + e, a) for a freshly sampled
// uniform a and error e, from the secret key s.
func (g *KeyGenerator) GeneratePublicKey(secret *SecretKey, uniformA, error ring.Element) (*PublicKey, error) {
	as, err := uniformA.Multiply(secret.Value)
	if err != nil {
		return nil, err
	}
	negAS := as.ScalarMultiply(big.NewInt(-1))
	b, err := negAS.Add(error)
	if err != nil {
		return nil, err
	}
	return NewPublicKey(b, uniformA), nil
}

// GenerateSwitchingKeyVersion1 builds a BFV-style digit-decomposition
// switching key under newSecret: for each i it sets
// b_i = -uniformA[i]*newSecret + errors[i] + sourceDigits[i] and
// a_i = uniformA[i]. The caller supplies the randomness and the source
// terms (BFV passes B^i*s^2 when building a relinearization key), since
// only the scheme layer knows which element is being switched.
func (g *KeyGenerator) GenerateSwitchingKeyVersion1(base int64, sourceDigits []ring.Element, newSecret *SecretKey, uniformA, errors []ring.Element) (*SwitchingKeyVersion1, error) {
	n := len(sourceDigits)
	b := make([]ring.Element, n)
	a := make([]ring.Element, n)
	for i := 0; i < n; i++ {
		as, err := uniformA[i].Multiply(newSecret.Value)
		if err != nil {
			return nil, err
		}
		negAS := as.ScalarMultiply(big.NewInt(-1))
		withError, err := negAS.Add(errors[i])
		if err != nil {
			return nil, err
		}
		bi, err := withError.Add(sourceDigits[i])
		if err != nil {
			return nil, err
		}
		b[i] = bi
		a[i] = uniformA[i]
	}
	return NewSwitchingKeyVersion1(base, b, a)
}

// GenerateSwitchingKeyVersion2 builds a CKKS-style special-modulus switching
// key: b = -a*newSecret + e + P*sourceTerm.
func (g *KeyGenerator) GenerateSwitchingKeyVersion2(sourceTerm ring.Element, newSecret *SecretKey, uniformA, errorTerm ring.Element, p *big.Int) (*SwitchingKeyVersion2, error) {
	as, err := uniformA.Multiply(newSecret.Value)
	if err != nil {
		return nil, err
	}
	negAS := as.ScalarMultiply(big.NewInt(-1))
	withError, err := negAS.Add(errorTerm)
	if err != nil {
		return nil, err
	}
	scaledSource := sourceTerm.ScalarMultiply(p)
	b, err := withError.Add(scaledSource)
	if err != nil {
		return nil, err
	}
	return NewSwitchingKeyVersion2(b, uniformA, p), nil
}
