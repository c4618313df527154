package ring

import (
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring/crt"
)

// DCRTPolynomial represents an element of R_Q, Q = prod(primes), directly
// as an RNS residue matrix: row i holds the N coefficients reduced modulo
// primes[i]. Every operation works prime-by-prime, and Multiply always
// takes the per-prime NTT path, which is what makes this representation
// fast for the large composite moduli CKKS's modulus chain needs (only
// Reconstruct works on Q-sized values). Grounded on the reference
// DCRTPolynomial class, which keeps the same per-prime layout.
type DCRTPolynomial struct {
	degree  int
	ctx     *crt.Context
	residues [][]*big.Int // [primeIdx][coeffIdx]
}

// NewDCRTPolynomial builds a DCRTPolynomial from a single big-modulus
// coefficient vector, reducing it modulo each prime in ctx.
func NewDCRTPolynomial(ctx *crt.Context, coeffs []*big.Int) (*DCRTPolynomial, error) {
	if len(coeffs) != ctx.Degree {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidParameter, ctx.Degree, len(coeffs))
	}
	residues := make([][]*big.Int, ctx.NumPrimes())
	for i, prime := range ctx.Primes {
		row := make([]*big.Int, ctx.Degree)
		for j, c := range coeffs {
			row[j] = new(big.Int).Mod(c, prime)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: ctx.Degree, ctx: ctx, residues: residues}, nil
}

// NewDCRTPolynomialFromResidues builds a DCRTPolynomial directly from a
// precomputed residue matrix (one row per prime in ctx).
func NewDCRTPolynomialFromResidues(ctx *crt.Context, residues [][]*big.Int) (*DCRTPolynomial, error) {
	if len(residues) != ctx.NumPrimes() {
		return nil, fmt.Errorf("%w: expected %d residue rows, got %d", crt.ErrCRTWrongLength, ctx.NumPrimes(), len(residues))
	}
	copied := make([][]*big.Int, len(residues))
	for i, row := range residues {
		if len(row) != ctx.Degree {
			return nil, fmt.Errorf("%w: residue row %d has %d coefficients, want %d", ErrInvalidParameter, i, len(row), ctx.Degree)
		}
		copied[i] = make([]*big.Int, len(row))
		for j, c := range row {
			copied[i][j] = new(big.Int).Set(c)
		}
	}
	return &DCRTPolynomial{degree: ctx.Degree, ctx: ctx, residues: copied}, nil
}

// NewZeroDCRTPolynomial returns the zero element of R_Q for the given
// context.
func NewZeroDCRTPolynomial(ctx *crt.Context) *DCRTPolynomial {
	p, _ := NewDCRTPolynomial(ctx, make([]*big.Int, ctx.Degree))
	for i := range p.residues {
		for j := range p.residues[i] {
			p.residues[i][j] = big.NewInt(0)
		}
	}
	return p
}

// Degree returns N.
func (d *DCRTPolynomial) Degree() int { return d.degree }

// Modulus returns Q = prod(primes).
func (d *DCRTPolynomial) Modulus() *big.Int { return d.ctx.Modulus }

// Context returns the RNS context this element is defined over.
func (d *DCRTPolynomial) Context() *crt.Context { return d.ctx }

// Residues returns a defensive copy of the residue matrix.
func (d *DCRTPolynomial) Residues() [][]*big.Int {
	out := make([][]*big.Int, len(d.residues))
	for i, row := range d.residues {
		out[i] = make([]*big.Int, len(row))
		for j, c := range row {
			out[i][j] = new(big.Int).Set(c)
		}
	}
	return out
}

// Reconstruct collapses the RNS representation back into a single
// big-modulus Polynomial via CRT.
func (d *DCRTPolynomial) Reconstruct() (*Polynomial, error) {
	coeffs := make([]*big.Int, d.degree)
	for j := 0; j < d.degree; j++ {
		residueCol := make([]*big.Int, len(d.residues))
		for i := range d.residues {
			residueCol[i] = d.residues[i][j]
		}
		v, err := d.ctx.Reconstruct(residueCol)
		if err != nil {
			return nil, err
		}
		coeffs[j] = v
	}
	return NewPolynomial(d.degree, d.ctx.Modulus, coeffs)
}

func asDCRT(e Element) (*DCRTPolynomial, error) {
	d, ok := e.(*DCRTPolynomial)
	if !ok {
		return nil, fmt.Errorf("%w: expected *DCRTPolynomial, got %T", ErrInvalidParameter, e)
	}
	return d, nil
}

func (d *DCRTPolynomial) sameShape(other *DCRTPolynomial) error {
	if d.degree != other.degree {
		return fmt.Errorf("%w: degree %d vs %d", ErrInvalidParameter, d.degree, other.degree)
	}
	if d.ctx.Modulus.Cmp(other.ctx.Modulus) != 0 {
		return fmt.Errorf("%w: %s vs %s", ErrModulusMismatch, d.ctx.Modulus, other.ctx.Modulus)
	}
	return nil
}

// Add returns d + other, computed independently modulo each prime.
func (d *DCRTPolynomial) Add(other Element) (Element, error) {
	o, err := asDCRT(other)
	if err != nil {
		return nil, err
	}
	if err := d.sameShape(o); err != nil {
		return nil, err
	}
	residues := make([][]*big.Int, len(d.residues))
	for i, prime := range d.ctx.Primes {
		row := make([]*big.Int, d.degree)
		for j := range row {
			v := new(big.Int).Add(d.residues[i][j], o.residues[i][j])
			row[j] = v.Mod(v, prime)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: d.degree, ctx: d.ctx, residues: residues}, nil
}

// Subtract returns d - other, computed independently modulo each prime.
func (d *DCRTPolynomial) Subtract(other Element) (Element, error) {
	o, err := asDCRT(other)
	if err != nil {
		return nil, err
	}
	if err := d.sameShape(o); err != nil {
		return nil, err
	}
	residues := make([][]*big.Int, len(d.residues))
	for i, prime := range d.ctx.Primes {
		row := make([]*big.Int, d.degree)
		for j := range row {
			v := new(big.Int).Sub(d.residues[i][j], o.residues[i][j])
			row[j] = v.Mod(v, prime)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: d.degree, ctx: d.ctx, residues: residues}, nil
}

// Multiply runs an independent NTT-based negacyclic convolution modulo each
// prime, which is the entire point of the RNS representation: no operation
// ever needs big.Int arithmetic modulo the full composite Q.
func (d *DCRTPolynomial) Multiply(other Element) (Element, error) {
	o, err := asDCRT(other)
	if err != nil {
		return nil, err
	}
	if err := d.sameShape(o); err != nil {
		return nil, err
	}

	residues := make([][]*big.Int, len(d.residues))
	for i, primeCtx := range d.ctx.NTTContexts {
		pHat, err := primeCtx.FTTForward(d.residues[i])
		if err != nil {
			return nil, err
		}
		oHat, err := primeCtx.FTTForward(o.residues[i])
		if err != nil {
			return nil, err
		}
		prime := d.ctx.Primes[i]
		prodHat := make([]*big.Int, d.degree)
		for j := range prodHat {
			v := new(big.Int).Mul(pHat[j], oHat[j])
			v.Mod(v, prime)
			prodHat[j] = v
		}
		prod, err := primeCtx.FTTInverse(prodHat)
		if err != nil {
			return nil, err
		}
		residues[i] = prod
	}
	return &DCRTPolynomial{degree: d.degree, ctx: d.ctx, residues: residues}, nil
}

// ScalarMultiply scales every residue row by scalar reduced into that
// prime's field.
func (d *DCRTPolynomial) ScalarMultiply(scalar *big.Int) Element {
	residues := make([][]*big.Int, len(d.residues))
	for i, prime := range d.ctx.Primes {
		s := new(big.Int).Mod(scalar, prime)
		row := make([]*big.Int, d.degree)
		for j, c := range d.residues[i] {
			v := new(big.Int).Mul(c, s)
			row[j] = v.Mod(v, prime)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: d.degree, ctx: d.ctx, residues: residues}
}

// Automorphism applies the Galois automorphism x -> x^e independently to
// each prime's residue row. Rotate and Conjugate build on this; key-switching
// code also calls it directly once it already holds the exact exponent a
// rotation or conjugation key was generated against.
func (d *DCRTPolynomial) Automorphism(e int) *DCRTPolynomial {
	n := d.degree
	residues := make([][]*big.Int, len(d.residues))
	for i, prime := range d.ctx.Primes {
		row := make([]*big.Int, n)
		for j := range row {
			row[j] = big.NewInt(0)
		}
		for j, c := range d.residues[i] {
			exp := mod(j*e, 2*n)
			idx := exp % n
			if (exp/n)%2 == 1 {
				row[idx].Sub(row[idx], c)
			} else {
				row[idx].Add(row[idx], c)
			}
			row[idx].Mod(row[idx], prime)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: n, ctx: d.ctx, residues: residues}
}

// Rotate implements the Galois automorphism X -> X^(5^r), permuting CKKS
// plaintext slots by r one-unit rotations.
func (d *DCRTPolynomial) Rotate(r int) *DCRTPolynomial {
	return d.Automorphism(rotationExponent(d.degree, r))
}

// Conjugate returns d under x -> x^-1.
func (d *DCRTPolynomial) Conjugate() *DCRTPolynomial {
	return d.Automorphism(-1)
}

// ModSwitch keeps the first smaller.NumPrimes() residue rows, returning the
// projection onto the shorter prefix chain the caller supplies as smaller
// (one or several trailing primes are dropped, without dividing). CKKS's
// LowerModulus uses it; Rescale divides via a reconstruction instead.
func (d *DCRTPolynomial) ModSwitch(smaller *crt.Context) (*DCRTPolynomial, error) {
	if smaller.NumPrimes() >= len(d.residues) {
		return nil, fmt.Errorf("%w: target context has %d primes, source has %d", ErrInvalidParameter, smaller.NumPrimes(), len(d.residues))
	}
	residues := make([][]*big.Int, smaller.NumPrimes())
	for i := range residues {
		row := make([]*big.Int, d.degree)
		for j, c := range d.residues[i] {
			row[j] = new(big.Int).Set(c)
		}
		residues[i] = row
	}
	return &DCRTPolynomial{degree: d.degree, ctx: smaller, residues: residues}, nil
}
