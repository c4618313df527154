package ckks

import (
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// Encoder converts between slots complex128 vectors and the ring elements
// CKKS ciphertexts carry, via the canonical embedding: encode scales the
// slot vector by the scaling factor Δ, applies embedding_inv, and rounds to
// the nearest integer coefficient; decode reverses both steps.
type Encoder struct {
	params *Parameters
}

// NewEncoder builds an Encoder for params.
func NewEncoder(params *Parameters) *Encoder {
	return &Encoder{params: params}
}

// Encode packs values (length params.Slots) into a Plaintext at the given
// level, scaled by params.ScalingFactor.
func (e *Encoder) Encode(values []complex128, level int) (*rlwe.Plaintext, error) {
	if err := e.params.FFTContext.CheckEmbeddingInput(values); err != nil {
		return nil, err
	}
	if level < 0 || level > e.params.MaxLevel() {
		return nil, fmt.Errorf("%w: level %d out of range", ErrInvalidParameter, level)
	}

	raw, err := e.params.FFTContext.EmbeddingInverse(values)
	if err != nil {
		return nil, err
	}

	ctx := e.params.LevelContexts[level]
	coeffs := make([]*big.Int, e.params.Degree)
	for i, c := range raw {
		coeffs[i] = roundComplexCoeff(c, e.params.ScalingFactor)
	}

	elem, err := ring.NewDCRTPolynomial(ctx, coeffs)
	if err != nil {
		return nil, err
	}
	return rlwe.NewPlaintext(elem, e.params.ScalingFactor, level), nil
}

// Decode recovers the slot vector a Plaintext encodes.
func (e *Encoder) Decode(pt *rlwe.Plaintext) ([]complex128, error) {
	elem, ok := pt.Value.(*ring.DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected element type %T", ErrInvalidParameter, pt.Value)
	}
	poly, err := elem.Reconstruct()
	if err != nil {
		return nil, err
	}
	centered := poly.ModSmall(elem.Modulus())

	coeffs := make([]complex128, e.params.Degree)
	for i, c := range centered.Coeffs() {
		f, _ := new(big.Float).SetInt(c).Float64()
		coeffs[i] = complex(f/pt.Scale, 0)
	}
	return e.params.FFTContext.Embedding(coeffs)
}

func roundComplexCoeff(c complex128, scale float64) *big.Int {
	scaled := c * complex(scale, 0)
	return bigRound(real(scaled))
}

func bigRound(f float64) *big.Int {
	bf := new(big.Float).SetFloat64(f)
	half := new(big.Float).SetFloat64(0.5)
	if f >= 0 {
		bf.Add(bf, half)
	} else {
		bf.Sub(bf, half)
	}
	i, _ := bf.Int(nil)
	return i
}
