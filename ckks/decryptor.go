package ckks

import (
	"fmt"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// ErrUnsupportedDegree is returned when Decrypt is given a ciphertext whose
// degree is higher than 1 (i.e. hasn't been relinearized after a multiply).
var ErrUnsupportedDegree = fmt.Errorf("%w: ciphertext must be relinearized to degree 1 before decrypting", ErrInvalidParameter)

// Decryptor decrypts CKKS ciphertexts under a secret key.
type Decryptor struct {
	params *Parameters
	secret *rlwe.SecretKey
}

// NewDecryptor builds a Decryptor for secret.
func NewDecryptor(params *Parameters, secret *rlwe.SecretKey) *Decryptor {
	return &Decryptor{params: params, secret: secret}
}

// Decrypt recovers the plaintext polynomial m ~ c0 + c1*s (still scaled by
// the ciphertext's Scale) from a degree-1 ciphertext.
func (d *Decryptor) Decrypt(ct *rlwe.Ciphertext) (*rlwe.Plaintext, error) {
	if ct.Degree() != 1 {
		return nil, fmt.Errorf("%w: got degree %d", ErrUnsupportedDegree, ct.Degree())
	}

	ctx := d.params.LevelContexts[ct.Level]
	s, ok := d.secret.Value.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected secret key type %T", ErrInvalidParameter, d.secret.Value)
	}
	if s.Modulus().Cmp(ctx.Modulus) != 0 {
		var err error
		s, err = lowerLevel(s, ctx)
		if err != nil {
			return nil, err
		}
	}

	c1s, err := ct.Value[1].Multiply(s)
	if err != nil {
		return nil, err
	}
	m, err := ct.Value[0].Add(c1s)
	if err != nil {
		return nil, err
	}

	return rlwe.NewPlaintext(m, ct.Scale, ct.Level), nil
}
