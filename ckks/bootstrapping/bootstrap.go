package bootstrapping

import (
	"fmt"

	"github.com/sarojaerabelli/go-fhe/ckks"
	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

// rawRaiseModulus re-expands elem's existing non-negative integer
// coefficients (taken mod its current, small modulus) directly into target
// without centering first. Unlike levels.raiseLevel, which reconstructs the
// exact signed value before re-expanding, this is a literal reinterpretation
// of the same residues under a much larger modulus: it deliberately
// introduces the q*I ambiguity bootstrapping exists to remove, since the
// small modulus's high bits were never part of the representation to begin
// with.
func rawRaiseModulus(elem *ring.DCRTPolynomial, target *ckks.Parameters, targetLevel int) (*ring.DCRTPolynomial, error) {
	poly, err := elem.Reconstruct()
	if err != nil {
		return nil, err
	}
	return ring.NewDCRTPolynomial(target.LevelContexts[targetLevel], poly.Coeffs())
}

// ModRaise lifts ct, whose level has been run down near zero by prior
// computation, back up to raisedLevel without centering its coefficients,
// the first step of the bootstrap pipeline. The result decrypts to
// m + q*I for some small unknown integer I per slot; CoeffToSlot/Exp/
// SlotToCoeff below remove it.
func ModRaise(params *ckks.Parameters, ct *rlwe.Ciphertext, raisedLevel int) (*rlwe.Ciphertext, error) {
	if raisedLevel <= ct.Level {
		return nil, fmt.Errorf("%w: raised level %d must exceed current level %d", ErrInvalidParameter, raisedLevel, ct.Level)
	}
	out := make([]ring.Element, len(ct.Value))
	for i, v := range ct.Value {
		elem, ok := v.(*ring.DCRTPolynomial)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected element type %T", ErrInvalidParameter, v)
		}
		raised, err := rawRaiseModulus(elem, params, raisedLevel)
		if err != nil {
			return nil, err
		}
		out[i] = raised
	}
	return rlwe.NewCiphertext(out, ct.Scale, raisedLevel), nil
}

// Keys bundles the rotation/relinearization keys Bootstrap's CoeffToSlot,
// Exp and SlotToCoeff stages need.
type Keys struct {
	RelinKey *rlwe.SwitchingKeyVersion2
	RotKeys  map[int]*rlwe.RotationKey
}

// Bootstrap refreshes ct: it raises ct's modulus to raisedLevel, moves the
// raised value into the slot domain, removes the q*I ambiguity the raise
// introduced via a homomorphic evaluation of exp(2*pi*i*x), and folds the
// result back into the coefficient domain. The caller chooses raisedLevel
// explicitly (rather than Bootstrap mutating evaluator/parameter state to
// track a "current modulus"), so a single Evaluator/Parameters pair can
// bootstrap ciphertexts at different starting levels without cross-talk.
func Bootstrap(ev *ckks.Evaluator, encoder *ckks.Encoder, c *Context, ct *rlwe.Ciphertext, raisedLevel int, keys Keys) (*rlwe.Ciphertext, error) {
	raised, err := ModRaise(c.Params, ct, raisedLevel)
	if err != nil {
		return nil, err
	}

	slotDomain, err := c.CoeffToSlot(ev, raised, keys.RotKeys, encoder)
	if err != nil {
		return nil, err
	}

	refined, err := c.Exp(ev, slotDomain, keys.RelinKey)
	if err != nil {
		return nil, err
	}

	coeffDomain, err := c.SlotToCoeff(ev, refined, keys.RotKeys, encoder)
	if err != nil {
		return nil, err
	}

	return coeffDomain, nil
}
