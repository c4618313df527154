package ckks

import (
	"fmt"
	"math"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring/matrix"
)

// bsgsFactors picks the baby-step count n1 and giant-step count n2 for a
// baby-step/giant-step diagonal decomposition of a dim-by-dim matrix,
// matching the reference MultiplyMatrix's n1/n2 selection: n1 is
// floor(sqrt(dim)), or floor(sqrt(2*dim)) when dim is not a perfect square,
// and n2 = ceil(dim/n1), so that n1*n2 >= dim.
func bsgsFactors(dim int) (n1, n2 int) {
	n1 = int(math.Sqrt(float64(dim)))
	if n1*n1 != dim {
		n1 = int(math.Sqrt(float64(2 * dim)))
	}
	n2 = (dim + n1 - 1) / n1
	return n1, n2
}

// MultiplyMatrix homomorphically applies the dense slots-by-slots linear
// transform mat to ct's encrypted slot vector, via the baby-step/giant-step
// diagonal method: mat is decomposed into its n1*n2 generalized diagonals,
// each diagonal is pre-rotated by minus its giant-step offset and
// multiplied in as a plaintext against the matching baby-step rotation of
// ct, and the n2 giant-step partial sums are combined with a
// further n2-1 rotations. rotKeys must contain a RotationKey for every baby
// step in [0, n1) and every giant-step multiple of n1 in [0, dim).
func (ev *Evaluator) MultiplyMatrix(ct *rlwe.Ciphertext, mat [][]complex128, rotKeys map[int]*rlwe.RotationKey, encoder *Encoder) (*rlwe.Ciphertext, error) {
	dim := len(mat)
	if dim == 0 {
		return nil, fmt.Errorf("%w: matrix must be non-empty", ErrInvalidParameter)
	}
	n1, n2 := bsgsFactors(dim)

	babySteps := make([]*rlwe.Ciphertext, n1)
	babySteps[0] = ct
	for k := 1; k < n1; k++ {
		key, ok := rotKeys[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing baby-step rotation key for %d", ErrInvalidParameter, k)
		}
		rotated, err := ev.Rotate(ct, k, key)
		if err != nil {
			return nil, err
		}
		babySteps[k] = rotated
	}

	var giantSum *rlwe.Ciphertext
	for g := 0; g < n2; g++ {
		var partial *rlwe.Ciphertext
		for k := 0; k < n1; k++ {
			diagIdx := g*n1 + k
			if diagIdx >= dim {
				continue
			}
			diag, err := matrix.Diagonal(mat, diagIdx)
			if err != nil {
				return nil, err
			}
			// Pre-rotate the diagonal by the giant step so the giant-step
			// rotation applied to the partial sum below brings it back
			// into alignment.
			rotatedDiag := matrix.Rotate(diag, -g*n1)
			pt, err := encoder.Encode(padToSlots(rotatedDiag, encoder.params.Slots), ct.Level)
			if err != nil {
				return nil, err
			}
			term, err := ev.MultiplyPlain(babySteps[k], pt)
			if err != nil {
				return nil, err
			}
			if partial == nil {
				partial = term
			} else {
				partial, err = ev.Add(partial, term)
				if err != nil {
					return nil, err
				}
			}
		}
		if partial == nil {
			continue
		}
		if g > 0 {
			key, ok := rotKeys[g*n1]
			if !ok {
				return nil, fmt.Errorf("%w: missing giant-step rotation key for %d", ErrInvalidParameter, g*n1)
			}
			rotated, err := ev.Rotate(partial, g*n1, key)
			if err != nil {
				return nil, err
			}
			partial = rotated
		}
		if giantSum == nil {
			giantSum = partial
		} else {
			var err error
			giantSum, err = ev.Add(giantSum, partial)
			if err != nil {
				return nil, err
			}
		}
	}

	return giantSum, nil
}

func padToSlots(v []complex128, slots int) []complex128 {
	if len(v) == slots {
		return v
	}
	out := make([]complex128, slots)
	copy(out, v)
	return out
}
