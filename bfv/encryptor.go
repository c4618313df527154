package bfv

import (
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

// Encryptor encrypts BFV plaintexts under a public key.
type Encryptor struct {
	params *Parameters
	public *rlwe.PublicKey
	source *sampling.Source
}

// NewEncryptor builds an Encryptor for the given public key.
func NewEncryptor(params *Parameters, public *rlwe.PublicKey, source *sampling.Source) *Encryptor {
	return &Encryptor{params: params, public: public, source: source}
}

func (e *Encryptor) samplePoly(triangle bool) (*ring.Polynomial, error) {
	var coeffs []*big.Int
	var err error
	if triangle {
		coeffs, err = e.source.Triangle(e.params.Degree, e.params.CiphertextModulus)
	} else {
		coeffs, err = e.source.UniformPoly(e.params.Degree, e.params.CiphertextModulus)
	}
	if err != nil {
		return nil, err
	}
	p, err := ring.NewPolynomial(e.params.Degree, e.params.CiphertextModulus, coeffs)
	if err != nil {
		return nil, err
	}
	return p.WithNTTContext(e.params.NTTContext), nil
}

// Encrypt encrypts the plaintext polynomial m (interpreted mod t) into a
// fresh degree-1 ciphertext (c0, c1) = (p0*u + e1 + Δm, p1*u + e2), where
// (p0, p1) is the public key and u, e1, e2 are freshly sampled. Matching
// the reference implementation's recorded behavior, the encryption error
// terms e1, e2 are zeroed unless params.IncludeEncryptionNoise is set.
func (e *Encryptor) Encrypt(m *ring.Polynomial) (*rlwe.Ciphertext, error) {
	lifted, err := e.liftToCiphertextModulus(m)
	if err != nil {
		return nil, err
	}
	scaled := lifted.ScalarMultiply(e.params.Delta)

	u, err := e.samplePoly(true)
	if err != nil {
		return nil, err
	}
	e1, err := e.zeroOrTriangle()
	if err != nil {
		return nil, err
	}
	e2, err := e.zeroOrTriangle()
	if err != nil {
		return nil, err
	}

	p0u, err := e.public.B.Multiply(u)
	if err != nil {
		return nil, err
	}
	c0WithoutM, err := p0u.Add(e1)
	if err != nil {
		return nil, err
	}
	c0, err := c0WithoutM.Add(scaled)
	if err != nil {
		return nil, err
	}

	p1u, err := e.public.A.Multiply(u)
	if err != nil {
		return nil, err
	}
	c1, err := p1u.Add(e2)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{c0, c1}, 1, 0), nil
}

// liftToCiphertextModulus reinterprets m's coefficients (reduced mod t, as
// BatchEncoder/IntegerEncoder produce them) as centered representatives and
// rebuilds the polynomial under the ciphertext modulus q, the step BFV
// encryption needs before scaling by Δ = floor(q/t).
func (e *Encryptor) liftToCiphertextModulus(m *ring.Polynomial) (*ring.Polynomial, error) {
	centered := m.ModSmall(e.params.PlaintextModulus)
	lifted, err := ring.NewPolynomial(e.params.Degree, e.params.CiphertextModulus, centered.Coeffs())
	if err != nil {
		return nil, err
	}
	return lifted.WithNTTContext(e.params.NTTContext), nil
}

func (e *Encryptor) zeroOrTriangle() (*ring.Polynomial, error) {
	if !e.params.IncludeEncryptionNoise {
		return ring.NewZeroPolynomial(e.params.Degree, e.params.CiphertextModulus).WithNTTContext(e.params.NTTContext), nil
	}
	return e.samplePoly(true)
}
