package bootstrapping

import (
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ckks"
	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// encodeConstant builds a plaintext encoding the same complex128 value into
// every slot, at an explicit scale rather than params.ScalingFactor, so it
// can be added to or multiplied against a ciphertext whose scale has
// drifted from the nominal scaling factor after several rescales.
func encodeConstant(params *ckks.Parameters, level int, scale float64, value complex128) (*rlwe.Plaintext, error) {
	values := make([]complex128, params.Slots)
	for i := range values {
		values[i] = value
	}
	raw, err := params.FFTContext.EmbeddingInverse(values)
	if err != nil {
		return nil, err
	}
	ctx := params.LevelContexts[level]
	coeffs := make([]*big.Int, params.Degree)
	for i, c := range raw {
		coeffs[i] = bigRoundComplex(c, scale)
	}
	elem, err := ring.NewDCRTPolynomial(ctx, coeffs)
	if err != nil {
		return nil, err
	}
	return rlwe.NewPlaintext(elem, scale, level), nil
}

func bigRoundComplex(c complex128, scale float64) *big.Int {
	scaled := real(c) * scale
	bf := new(big.Float).SetFloat64(scaled)
	half := new(big.Float).SetFloat64(0.5)
	if scaled >= 0 {
		bf.Add(bf, half)
	} else {
		bf.Sub(bf, half)
	}
	i, _ := bf.Int(nil)
	return i
}

// Exp homomorphically evaluates e^z on ct's encrypted slot values, via a
// degree-TaylorIterations Taylor expansion scheduled in pairs: each pair
// (2j, 2j+1) is folded into a single partial sum c_2j + c_2j+1*z before
// being multiplied onto z^2j, so every pair costs one plaintext multiply
// (plus a rescale) for the inner sum and (for j>0) one ciphertext multiply
// to fold in z^2j, rather than
// 2j+1 separate scalar multiplies. Mirrors the reference's exp_taylor
// pairing of the Taylor series' even/odd-indexed terms.
func (c *Context) Exp(ev *ckks.Evaluator, ct *rlwe.Ciphertext, relinKey *rlwe.SwitchingKeyVersion2) (*rlwe.Ciphertext, error) {
	params := c.Params

	// z^(2j) for j = 0, 1, 2, ...: z^2 by squaring z, then each higher power
	// by multiplying the previous one by z^2, every multiply-relinearize-
	// rescale step spending one level.
	powers := make([]*rlwe.Ciphertext, c.TaylorIterations/2+1)
	powers[0] = nil // z^0 is the multiplicative identity; handled without a ciphertext.
	if len(powers) > 1 {
		squared, err := multiplyAndRescale(ev, ct, ct, relinKey)
		if err != nil {
			return nil, err
		}
		powers[1] = squared
	}
	for j := 2; j < len(powers); j++ {
		next, err := multiplyAndRescale(ev, powers[j-1], powers[1], relinKey)
		if err != nil {
			return nil, err
		}
		powers[j] = next
	}

	var sum *rlwe.Ciphertext
	for j := 0; 2*j <= c.TaylorIterations; j++ {
		c0 := c.taylorCoefficient(2 * j)
		var c1 float64
		if 2*j+1 <= c.TaylorIterations {
			c1 = c.taylorCoefficient(2*j + 1)
		}

		// innerSum = c0 + c1*z, evaluated at ct's own level/scale.
		scaled, err := ev.MultiplyPlain(ct, mustConstant(params, ct.Level, ct.Scale, complex(c1, 0)))
		if err != nil {
			return nil, err
		}
		scaled, err = ev.Rescale(scaled)
		if err != nil {
			return nil, err
		}
		constPt, err := encodeConstant(params, scaled.Level, scaled.Scale, complex(c0, 0))
		if err != nil {
			return nil, err
		}
		innerSum, err := ev.AddPlain(scaled, constPt)
		if err != nil {
			return nil, err
		}

		var term *rlwe.Ciphertext
		if j == 0 {
			term = innerSum
		} else {
			pow := powers[j]
			aligned, bligned, err := alignLevels(ev, pow, innerSum)
			if err != nil {
				return nil, err
			}
			term, err = multiplyAndRescale(ev, aligned, bligned, relinKey)
			if err != nil {
				return nil, err
			}
		}

		if sum == nil {
			sum = term
			continue
		}
		aligned, bligned, err := alignLevels(ev, sum, term)
		if err != nil {
			return nil, err
		}
		sum, err = ev.Add(aligned, bligned)
		if err != nil {
			return nil, err
		}
	}

	return sum, nil
}

func (c *Context) taylorCoefficient(k int) float64 {
	if k < 0 || k >= len(c.taylorCoefficients) {
		return 0
	}
	return c.taylorCoefficients[k]
}

func multiplyAndRescale(ev *ckks.Evaluator, a, b *rlwe.Ciphertext, relinKey *rlwe.SwitchingKeyVersion2) (*rlwe.Ciphertext, error) {
	product, err := ev.Multiply(a, b)
	if err != nil {
		return nil, err
	}
	relin, err := ev.Relinearize(product, relinKey)
	if err != nil {
		return nil, err
	}
	return ev.Rescale(relin)
}

// alignLevels drops whichever of a/b sits at the higher level down to the
// lower of the two, since Add/Multiply require matching levels.
func alignLevels(ev *ckks.Evaluator, a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, *rlwe.Ciphertext, error) {
	if a.Level == b.Level {
		return a, b, nil
	}
	if a.Level > b.Level {
		lowered, err := ev.LowerModulus(a, b.Level)
		if err != nil {
			return nil, nil, err
		}
		return lowered, b, nil
	}
	lowered, err := ev.LowerModulus(b, a.Level)
	if err != nil {
		return nil, nil, err
	}
	return a, lowered, nil
}

func mustConstant(params *ckks.Parameters, level int, scale float64, value complex128) *rlwe.Plaintext {
	pt, err := encodeConstant(params, level, scale, value)
	if err != nil {
		// encodeConstant only fails on a malformed embedding input, which a
		// fixed complex scalar broadcast across every slot never produces.
		panic(err)
	}
	return pt
}
