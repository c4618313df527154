package bfv

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/numtheory"
	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/ring/ntt"
)

// ErrPlaintextModulusNotBatchable is returned when BatchEncoder is
// constructed against a plaintext modulus that does not support CRT
// batching (must be prime and congruent to 1 mod 2N).
var ErrPlaintextModulusNotBatchable = errors.New("bfv: plaintext modulus does not support batching")

// BatchEncoder packs Degree independent integer slots, each reduced mod t,
// into a single plaintext polynomial via the CRT/NTT batching technique:
// the slot vector is treated as the evaluation of the plaintext polynomial
// at the 2N-th roots of unity modulo t, so slotwise addition and
// multiplication of the packed vectors correspond exactly to polynomial
// addition and multiplication modulo t.
type BatchEncoder struct {
	params *Parameters
	ntt    *ntt.Context
}

// NewBatchEncoder builds a BatchEncoder, failing with
// ErrPlaintextModulusNotBatchable if t is not prime and congruent to 1 mod
// 2*Degree.
func NewBatchEncoder(params *Parameters) (*BatchEncoder, error) {
	if !numtheory.IsPrime(params.PlaintextModulus, 40) {
		return nil, fmt.Errorf("%w: t=%s is not prime", ErrPlaintextModulusNotBatchable, params.PlaintextModulus)
	}
	order := big.NewInt(int64(2 * params.Degree))
	r := new(big.Int).Mod(new(big.Int).Sub(params.PlaintextModulus, big.NewInt(1)), order)
	if r.Sign() != 0 {
		return nil, fmt.Errorf("%w: t=%s is not congruent to 1 mod %d", ErrPlaintextModulusNotBatchable, params.PlaintextModulus, 2*params.Degree)
	}

	ctx, err := ntt.New(params.Degree, params.PlaintextModulus, nil)
	if err != nil {
		return nil, fmt.Errorf("bfv: building batch-encoder ntt context: %w", err)
	}
	return &BatchEncoder{params: params, ntt: ctx}, nil
}

// Encode packs values (length Degree, each reduced mod t) into a plaintext
// polynomial via the inverse FTT.
func (e *BatchEncoder) Encode(values []*big.Int) (*ring.Polynomial, error) {
	if len(values) != e.params.Degree {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ring.ErrInvalidParameter, e.params.Degree, len(values))
	}
	coeffs, err := e.ntt.FTTInverse(values)
	if err != nil {
		return nil, err
	}
	p, err := ring.NewPolynomial(e.params.Degree, e.params.PlaintextModulus, coeffs)
	if err != nil {
		return nil, err
	}
	return p.WithNTTContext(e.ntt), nil
}

// Decode recovers the packed slot vector from a plaintext polynomial via the
// forward FTT.
func (e *BatchEncoder) Decode(p *ring.Polynomial) ([]*big.Int, error) {
	return e.ntt.FTTForward(p.Coeffs())
}

// IntegerEncoder encodes a single signed integer as a degree-N polynomial
// via base-B place-value representation: coefficient i holds the i-th
// base-B digit of the (possibly negative) integer, matching the reference
// implementation's IntegerEncoder.
type IntegerEncoder struct {
	params *Parameters
	base   int64
}

// NewIntegerEncoder builds an IntegerEncoder using the given place-value
// base (2 for binary place value).
func NewIntegerEncoder(params *Parameters, base int64) *IntegerEncoder {
	return &IntegerEncoder{params: params, base: base}
}

// Encode writes value's base-B digits into a degree-N polynomial's
// coefficients, least-significant digit first.
func (e *IntegerEncoder) Encode(value int64) (*ring.Polynomial, error) {
	coeffs := make([]*big.Int, e.params.Degree)
	neg := value < 0
	remaining := value
	if neg {
		remaining = -remaining
	}
	for i := 0; i < e.params.Degree; i++ {
		digit := remaining % e.base
		remaining /= e.base
		if neg {
			digit = -digit
		}
		coeffs[i] = big.NewInt(digit)
	}
	return ring.NewPolynomial(e.params.Degree, e.params.PlaintextModulus, coeffs)
}

// Decode evaluates the base-B place-value polynomial p at x=base to recover
// the signed integer it encodes.
func (e *IntegerEncoder) Decode(p *ring.Polynomial) int64 {
	coeffs := p.Coeffs()
	t := e.params.PlaintextModulus
	half := new(big.Int).Rsh(t, 1)

	var result int64
	base := e.base
	pow := int64(1)
	for _, c := range coeffs {
		v := new(big.Int).Set(c)
		if v.Cmp(half) > 0 {
			v.Sub(v, t)
		}
		result += v.Int64() * pow
		pow *= base
	}
	return result
}
