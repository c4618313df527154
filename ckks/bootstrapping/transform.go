package bootstrapping

import (
	"github.com/sarojaerabelli/go-fhe/ckks"
	"github.com/sarojaerabelli/go-fhe/core/rlwe"
)

// CoeffToSlot applies the Context's CoeffToSlotMatrix to ct, moving the
// encrypted value from the coefficient embedding bootstrapping needs to
// start from into the slot domain where Exp can evaluate pointwise.
// rotKeys must cover every baby/giant rotation step MultiplyMatrix needs for
// a Slots-by-Slots transform.
func (c *Context) CoeffToSlot(ev *ckks.Evaluator, ct *rlwe.Ciphertext, rotKeys map[int]*rlwe.RotationKey, encoder *ckks.Encoder) (*rlwe.Ciphertext, error) {
	return ev.MultiplyMatrix(ct, c.CoeffToSlotMatrix, rotKeys, encoder)
}

// SlotToCoeff applies the inverse transform, folding a slot-domain
// ciphertext back down to the coefficient embedding.
func (c *Context) SlotToCoeff(ev *ckks.Evaluator, ct *rlwe.Ciphertext, rotKeys map[int]*rlwe.RotationKey, encoder *ckks.Encoder) (*rlwe.Ciphertext, error) {
	return ev.MultiplyMatrix(ct, c.SlotToCoeffMatrix, rotKeys, encoder)
}
