// Package bootstrapping implements CKKS ciphertext refresh: raising the
// modulus of a near-exhausted ciphertext, extracting and removing the
// multiple-of-q ambiguity that raising introduces via a homomorphic
// evaluation of exp(2*pi*i*x), and returning a ciphertext back near the top
// of the modulus chain with its encrypted value unchanged (up to the
// scheme's approximation error). Grounded on the reference
// ckks_bootstrapping_context.py/ckks_evaluator.py's bootstrap/coeff_to_slot/
// slot_to_coeff/exp/exp_taylor methods.
package bootstrapping

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ALTree/bigfloat"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ckks"
)

// ErrInvalidParameter is returned for malformed bootstrapping construction
// parameters.
var ErrInvalidParameter = fmt.Errorf("bootstrapping: invalid parameter")

// Context precomputes the linear-transform matrices and Taylor schedule
// bootstrapping needs for one CKKS parameter set.
type Context struct {
	Params           *ckks.Parameters
	TaylorIterations int

	// CoeffToSlotMatrix/SlotToCoeffMatrix implement the encoding/decoding
	// linear maps (sigma/sigma^-1 restricted to the real subring used
	// during bootstrapping), each a Slots-by-Slots matrix of primitive
	// roots of unity.
	CoeffToSlotMatrix [][]complex128
	SlotToCoeffMatrix [][]complex128

	// taylorCoefficients[k] holds 1/k! computed to bigfloat precision and
	// rounded to float64, used by Exp's Taylor expansion of e^z.
	taylorCoefficients []float64
}

// New builds a Context for params, with the given number of Taylor
// iterations controlling Exp's approximation degree (a multiple of 2,
// since terms are scheduled in pairs as the reference implementation
// does).
func New(params *ckks.Parameters, taylorIterations int) (*Context, error) {
	if taylorIterations <= 0 || taylorIterations%2 != 0 {
		return nil, fmt.Errorf("%w: taylor_iterations must be a positive even number", ErrInvalidParameter)
	}

	ctx := &Context{Params: params, TaylorIterations: taylorIterations}
	ctx.buildEncodingMatrices()
	ctx.buildTaylorCoefficients()
	return ctx, nil
}

// buildEncodingMatrices constructs the Slots-by-Slots DFT-style matrices
// used to move between the coefficient and slot domains during
// bootstrapping: entry (i, j) is the primitive root of unity raised to the
// power rotGroup[i]*j, matching the reference's repeated-multiplication
// construction of encoding_mat0/encoding_mat1.
func (c *Context) buildEncodingMatrices() {
	slots := c.Params.Slots
	m := 2 * c.Params.Degree

	primitiveRoots := make([]complex128, slots)
	for i := 0; i < slots; i++ {
		angle := 2 * math.Pi * float64(rotGroupPower(i, m)) / float64(m)
		primitiveRoots[i] = cmplx.Exp(complex(0, angle))
	}

	mat0 := make([][]complex128, slots)
	mat1 := make([][]complex128, slots)
	for i := 0; i < slots; i++ {
		mat0[i] = make([]complex128, slots)
		mat1[i] = make([]complex128, slots)
		acc := complex(1, 0)
		for j := 0; j < slots; j++ {
			mat0[i][j] = acc
			mat1[i][j] = cmplx.Conj(acc)
			acc *= primitiveRoots[i]
		}
	}

	c.CoeffToSlotMatrix = mat0
	c.SlotToCoeffMatrix = mat1
}

// rotGroupPower returns 5^i mod m, the exponent of the i-th rotation-group
// element.
func rotGroupPower(i, m int) int {
	exp := 1
	for k := 0; k < i; k++ {
		exp = (exp * 5) % m
	}
	return exp
}

// buildTaylorCoefficients computes 1/k! for k in [0, TaylorIterations] to
// bigfloat precision (200 bits, comfortably more than complex128's 53-bit
// mantissa) before rounding down, so the Taylor schedule's highest-degree
// terms don't accumulate float64 rounding error from repeated
// multiplication by small reciprocals.
func (c *Context) buildTaylorCoefficients() {
	const precisionBits = 200
	coeffs := make([]float64, c.TaylorIterations+1)
	factorial := new(big.Float).SetPrec(precisionBits).SetInt64(1)
	for k := 0; k <= c.TaylorIterations; k++ {
		if k > 0 {
			factorial.Mul(factorial, new(big.Float).SetPrec(precisionBits).SetInt64(int64(k)))
		}
		inv := new(big.Float).SetPrec(precisionBits).Quo(bigfloat.Exp(new(big.Float).SetPrec(precisionBits).SetInt64(0)), factorial)
		f, _ := inv.Float64()
		coeffs[k] = f
	}
	c.taylorCoefficients = coeffs
}
