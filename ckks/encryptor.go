package ckks

import (
	"fmt"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/ring/crt"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

var negOneCKKS = negOneInt()

// Encryptor encrypts CKKS plaintexts, either under a public key or directly
// under a secret key (the reference implementation exposes both
// encrypt/encrypt_with_secret_key).
type Encryptor struct {
	params *Parameters
	public *rlwe.PublicKey
	secret *rlwe.SecretKey
	source *sampling.Source
}

// NewEncryptor builds an Encryptor that encrypts under public.
func NewEncryptor(params *Parameters, public *rlwe.PublicKey, source *sampling.Source) *Encryptor {
	return &Encryptor{params: params, public: public, source: source}
}

// NewSecretKeyEncryptor builds an Encryptor that encrypts directly under
// secret (used in tests and wherever only the secret-key party is
// encrypting), matching the reference's encrypt_with_secret_key.
func NewSecretKeyEncryptor(params *Parameters, secret *rlwe.SecretKey, source *sampling.Source) *Encryptor {
	return &Encryptor{params: params, secret: secret, source: source}
}

// Encrypt encrypts pt, producing a fresh degree-1 ciphertext at pt.Level.
func (e *Encryptor) Encrypt(pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	m, ok := pt.Value.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ErrInvalidParameter, pt.Value)
	}
	ctx := e.params.LevelContexts[pt.Level]

	if e.secret != nil {
		return e.encryptWithSecretKey(m, ctx, pt)
	}
	return e.encryptWithPublicKey(m, ctx, pt)
}

func (e *Encryptor) encryptWithPublicKey(m *ring.DCRTPolynomial, ctx *crt.Context, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	u, err := e.sample(ctx, true)
	if err != nil {
		return nil, err
	}
	e1, err := e.sample(ctx, true)
	if err != nil {
		return nil, err
	}
	e2, err := e.sample(ctx, true)
	if err != nil {
		return nil, err
	}

	pub, ok := e.public.B.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected public key type %T", ErrInvalidParameter, e.public.B)
	}
	pubA, ok := e.public.A.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected public key type %T", ErrInvalidParameter, e.public.A)
	}
	if pub.Modulus().Cmp(m.Modulus()) != 0 {
		var err error
		pub, err = lowerLevel(pub, ctx)
		if err != nil {
			return nil, err
		}
		pubA, err = lowerLevel(pubA, ctx)
		if err != nil {
			return nil, err
		}
	}

	bu, err := pub.Multiply(u)
	if err != nil {
		return nil, err
	}
	c0WithoutM, err := bu.Add(e1)
	if err != nil {
		return nil, err
	}
	c0, err := c0WithoutM.Add(m)
	if err != nil {
		return nil, err
	}

	au, err := pubA.Multiply(u)
	if err != nil {
		return nil, err
	}
	c1, err := au.Add(e2)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{c0, c1}, pt.Scale, pt.Level), nil
}

func (e *Encryptor) encryptWithSecretKey(m *ring.DCRTPolynomial, ctx *crt.Context, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	a, err := e.sample(ctx, true)
	if err != nil {
		return nil, err
	}
	err1, err := e.sample(ctx, true)
	if err != nil {
		return nil, err
	}

	s, ok := e.secret.Value.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected secret key type %T", ErrInvalidParameter, e.secret.Value)
	}
	if s.Modulus().Cmp(m.Modulus()) != 0 {
		s, err = lowerLevel(s, ctx)
		if err != nil {
			return nil, err
		}
	}

	as, err := a.Multiply(s)
	if err != nil {
		return nil, err
	}
	negAS := as.ScalarMultiply(negOneCKKS)
	c0WithoutM, err := negAS.Add(err1)
	if err != nil {
		return nil, err
	}
	c0, err := c0WithoutM.Add(m)
	if err != nil {
		return nil, err
	}

	return rlwe.NewCiphertext([]ring.Element{c0, a}, pt.Scale, pt.Level), nil
}

func (e *Encryptor) sample(ctx *crt.Context, triangle bool) (*ring.DCRTPolynomial, error) {
	if triangle {
		c, err := e.source.Triangle(e.params.Degree, ctx.Modulus)
		if err != nil {
			return nil, err
		}
		return ring.NewDCRTPolynomial(ctx, c)
	}
	c, err := e.source.UniformPoly(e.params.Degree, ctx.Modulus)
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(ctx, c)
}
