package bfv

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// ErrUnsupportedDegree is returned when Decrypt is given a ciphertext whose
// degree is higher than 1 (i.e. hasn't been relinearized after a multiply).
var ErrUnsupportedDegree = errors.New("bfv: ciphertext must be relinearized to degree 1 before decrypting")

// Decryptor decrypts BFV ciphertexts under a secret key.
type Decryptor struct {
	params *Parameters
	secret *rlwe.SecretKey
}

// NewDecryptor builds a Decryptor for the given secret key.
func NewDecryptor(params *Parameters, secret *rlwe.SecretKey) *Decryptor {
	return &Decryptor{params: params, secret: secret}
}

// Decrypt recovers the plaintext polynomial m = round(t/q * (c0 + c1*s))
// mod t from a degree-1 ciphertext.
func (d *Decryptor) Decrypt(ct *rlwe.Ciphertext) (*ring.Polynomial, error) {
	if ct.Degree() != 1 {
		return nil, fmt.Errorf("%w: got degree %d", ErrUnsupportedDegree, ct.Degree())
	}

	c1s, err := ct.Value[1].Multiply(d.secret.Value)
	if err != nil {
		return nil, err
	}
	noisy, err := ct.Value[0].Add(c1s)
	if err != nil {
		return nil, err
	}
	noisyPoly, ok := noisy.(*ring.Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ring.ErrInvalidParameter, noisy)
	}

	centered := noisyPoly.ModSmall(d.params.CiphertextModulus)

	coeffs := centered.Coeffs()
	t := d.params.PlaintextModulus
	q := d.params.CiphertextModulus
	for i, c := range coeffs {
		scaled := new(big.Int).Mul(c, t)
		// round(scaled / q) via floor((2*scaled + q) / (2*q)), which rounds
		// half away from zero for the centered-residue inputs decryption
		// produces.
		doubled := new(big.Int).Lsh(scaled, 1)
		if scaled.Sign() >= 0 {
			doubled.Add(doubled, q)
		} else {
			doubled.Sub(doubled, q)
		}
		rounded := new(big.Int).Quo(doubled, new(big.Int).Lsh(q, 1))
		coeffs[i] = rounded.Mod(rounded, t)
	}

	return ring.NewPolynomial(d.params.Degree, t, coeffs)
}
