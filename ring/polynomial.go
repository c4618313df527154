// Package ring implements R = Z[x]/(x^N+1) and R_q = Z_q[x]/(x^N+1) in two
// representations: Polynomial, which stores coefficients as plain
// big.Int/complex128 values and multiplies either naively, via a single
// NTT/FTT, or via a floating-point FFT; and DCRTPolynomial, which stores
// each coefficient as a vector of residues modulo a chain of NTT-friendly
// primes (an RNS/CRT representation) and always multiplies per-prime via
// NTT. Both satisfy Element, the capability interface the scheme layers
// (bfv, ckks) program against.
package ring

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring/crt"
	"github.com/sarojaerabelli/go-fhe/ring/fft"
	"github.com/sarojaerabelli/go-fhe/ring/ntt"
)

// ErrInvalidParameter is returned for malformed ring-element construction,
// such as a coefficient count that isn't the ring degree.
var ErrInvalidParameter = errors.New("ring: invalid parameter")

// ErrModulusMismatch is returned when two operands carry different moduli.
var ErrModulusMismatch = errors.New("ring: modulus mismatch")

// Element is the capability shared by Polynomial and DCRTPolynomial: the
// scheme layers (bfv, ckks) program against this interface so that a
// parameter set can choose either representation without the evaluator code
// changing.
type Element interface {
	Add(Element) (Element, error)
	Subtract(Element) (Element, error)
	Multiply(Element) (Element, error)
	ScalarMultiply(*big.Int) Element
	Degree() int
	Modulus() *big.Int
}

// Polynomial represents an element of R_q (or R, when modulus is nil) as N
// big.Int coefficients in [0, q). It is grounded on the reference
// implementation's single-big-modulus Polynomial class: Add/Subtract are
// always coefficientwise; Multiply dispatches to the naive, NTT/FTT, or CRT
// path depending on what auxiliary context is attached.
type Polynomial struct {
	degree     int
	modulus    *big.Int // nil means the formal ring R, not R_q
	coeffs     []*big.Int

	nttContext *ntt.Context // set to multiply via a single FTT
	fftContext *fft.Context // set to multiply via floating-point FFT
	crtContext *crt.Context // set to multiply via per-prime CRT/NTT
}

// NewPolynomial builds a Polynomial of the given degree and modulus from
// coefficients, which must have length degree. modulus may be nil to
// represent an element of the formal (unreduced) ring R.
func NewPolynomial(degree int, modulus *big.Int, coeffs []*big.Int) (*Polynomial, error) {
	if len(coeffs) != degree {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidParameter, degree, len(coeffs))
	}
	p := &Polynomial{degree: degree, modulus: cloneModulus(modulus), coeffs: make([]*big.Int, degree)}
	for i, c := range coeffs {
		p.coeffs[i] = p.reduce(new(big.Int).Set(c))
	}
	return p, nil
}

// NewZeroPolynomial returns the zero element of R_q for the given degree
// and modulus.
func NewZeroPolynomial(degree int, modulus *big.Int) *Polynomial {
	coeffs := make([]*big.Int, degree)
	for i := range coeffs {
		coeffs[i] = big.NewInt(0)
	}
	p, _ := NewPolynomial(degree, modulus, coeffs)
	return p
}

func cloneModulus(m *big.Int) *big.Int {
	if m == nil {
		return nil
	}
	return new(big.Int).Set(m)
}

func (p *Polynomial) reduce(v *big.Int) *big.Int {
	if p.modulus == nil {
		return v
	}
	v.Mod(v, p.modulus)
	return v
}

// WithNTTContext attaches a single-modulus NTT/FTT context, enabling
// MultiplyNTT and making it the Multiply fast path.
func (p *Polynomial) WithNTTContext(ctx *ntt.Context) *Polynomial {
	p.nttContext = ctx
	return p
}

// WithFFTContext attaches a floating-point FFT context, enabling
// MultiplyFFT.
func (p *Polynomial) WithFFTContext(ctx *fft.Context) *Polynomial {
	p.fftContext = ctx
	return p
}

// WithCRTContext attaches an RNS/CRT context, enabling MultiplyCRT and
// making it the Multiply fast path when no NTT context is set.
func (p *Polynomial) WithCRTContext(ctx *crt.Context) *Polynomial {
	p.crtContext = ctx
	return p
}

// Degree returns N.
func (p *Polynomial) Degree() int { return p.degree }

// Modulus returns q, or nil if this element is unreduced.
func (p *Polynomial) Modulus() *big.Int { return p.modulus }

// Coeffs returns a defensive copy of the coefficient vector.
func (p *Polynomial) Coeffs() []*big.Int {
	out := make([]*big.Int, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

func (p *Polynomial) sameShape(other *Polynomial) error {
	if p.degree != other.degree {
		return fmt.Errorf("%w: degree %d vs %d", ErrInvalidParameter, p.degree, other.degree)
	}
	if (p.modulus == nil) != (other.modulus == nil) {
		return fmt.Errorf("%w: one operand is unreduced", ErrModulusMismatch)
	}
	if p.modulus != nil && p.modulus.Cmp(other.modulus) != 0 {
		return fmt.Errorf("%w: %s vs %s", ErrModulusMismatch, p.modulus, other.modulus)
	}
	return nil
}

func asPolynomial(e Element) (*Polynomial, error) {
	p, ok := e.(*Polynomial)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Polynomial, got %T", ErrInvalidParameter, e)
	}
	return p, nil
}

// Add returns p + other coefficientwise mod q.
func (p *Polynomial) Add(other Element) (Element, error) {
	o, err := asPolynomial(other)
	if err != nil {
		return nil, err
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}
	coeffs := make([]*big.Int, p.degree)
	for i := range coeffs {
		coeffs[i] = new(big.Int).Add(p.coeffs[i], o.coeffs[i])
	}
	result, _ := NewPolynomial(p.degree, p.modulus, coeffs)
	result.inheritContexts(p)
	return result, nil
}

// Subtract returns p - other coefficientwise mod q.
func (p *Polynomial) Subtract(other Element) (Element, error) {
	o, err := asPolynomial(other)
	if err != nil {
		return nil, err
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}
	coeffs := make([]*big.Int, p.degree)
	for i := range coeffs {
		coeffs[i] = new(big.Int).Sub(p.coeffs[i], o.coeffs[i])
	}
	result, _ := NewPolynomial(p.degree, p.modulus, coeffs)
	result.inheritContexts(p)
	return result, nil
}

func (p *Polynomial) inheritContexts(from *Polynomial) {
	p.nttContext = from.nttContext
	p.fftContext = from.fftContext
	p.crtContext = from.crtContext
}

// Multiply dispatches to the fastest attached representation: CRT (if a crt
// context is attached), then a single NTT/FTT, falling back to the schoolbook
// negacyclic convolution.
func (p *Polynomial) Multiply(other Element) (Element, error) {
	o, err := asPolynomial(other)
	if err != nil {
		return nil, err
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}
	switch {
	case p.crtContext != nil:
		return p.MultiplyCRT(o)
	case p.nttContext != nil:
		return p.MultiplyNTT(o)
	default:
		return p.MultiplyNaive(o)
	}
}

// MultiplyNaive computes the negacyclic convolution (p*o mod x^N+1) by
// schoolbook polynomial multiplication: O(N^2) but requires no auxiliary
// context, matching the reference Polynomial.multiply's default path.
func (p *Polynomial) MultiplyNaive(o *Polynomial) (*Polynomial, error) {
	if err := p.sameShape(o); err != nil {
		return nil, err
	}
	n := p.degree
	acc := make([]*big.Int, n)
	for i := range acc {
		acc[i] = big.NewInt(0)
	}
	term := new(big.Int)
	for i, a := range p.coeffs {
		if a.Sign() == 0 {
			continue
		}
		for j, b := range o.coeffs {
			term.Mul(a, b)
			idx := i + j
			if idx >= n {
				idx -= n
				term.Neg(term)
			}
			acc[idx].Add(acc[idx], term)
			term = new(big.Int)
		}
	}
	result, err := NewPolynomial(n, p.modulus, acc)
	if err != nil {
		return nil, err
	}
	result.inheritContexts(p)
	return result, nil
}

// MultiplyNTT multiplies via a single NTTContext's forward/inverse FTT,
// requiring both operands' modulus to carry a 2N-th root of unity.
func (p *Polynomial) MultiplyNTT(o *Polynomial) (*Polynomial, error) {
	if p.nttContext == nil {
		return nil, fmt.Errorf("%w: no ntt context attached", ErrInvalidParameter)
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}

	pHat, err := p.nttContext.FTTForward(p.coeffs)
	if err != nil {
		return nil, err
	}
	oHat, err := p.nttContext.FTTForward(o.coeffs)
	if err != nil {
		return nil, err
	}

	prodHat := make([]*big.Int, p.degree)
	for i := range prodHat {
		v := new(big.Int).Mul(pHat[i], oHat[i])
		v.Mod(v, p.modulus)
		prodHat[i] = v
	}

	prod, err := p.nttContext.FTTInverse(prodHat)
	if err != nil {
		return nil, err
	}
	result, err := NewPolynomial(p.degree, p.modulus, prod)
	if err != nil {
		return nil, err
	}
	result.inheritContexts(p)
	return result, nil
}

// MultiplyCRT multiplies by running MultiplyNTT independently over every
// prime in the attached CRT chain and reconstructing, which is how
// DCRTPolynomial multiplies internally; exposed on Polynomial too so callers
// holding a single big-modulus element can still opt into RNS speed.
func (p *Polynomial) MultiplyCRT(o *Polynomial) (*Polynomial, error) {
	if p.crtContext == nil {
		return nil, fmt.Errorf("%w: no crt context attached", ErrInvalidParameter)
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}

	n := p.degree
	result := make([]*big.Int, n)

	// Gather every prime's residue product for each ring coefficient, then
	// reconstruct each coefficient once all primes have contributed.
	residuesPerCoeff := make([][]*big.Int, n)
	for i := range residuesPerCoeff {
		residuesPerCoeff[i] = make([]*big.Int, len(p.crtContext.Primes))
	}
	for primeIdx, primeCtx := range p.crtContext.NTTContexts {
		prime := p.crtContext.Primes[primeIdx]
		pCoeffs := make([]*big.Int, n)
		oCoeffs := make([]*big.Int, n)
		for i := 0; i < n; i++ {
			pCoeffs[i] = new(big.Int).Mod(p.coeffs[i], prime)
			oCoeffs[i] = new(big.Int).Mod(o.coeffs[i], prime)
		}
		pHat, err := primeCtx.FTTForward(pCoeffs)
		if err != nil {
			return nil, err
		}
		oHat, err := primeCtx.FTTForward(oCoeffs)
		if err != nil {
			return nil, err
		}
		prodHat := make([]*big.Int, n)
		for i := range prodHat {
			v := new(big.Int).Mul(pHat[i], oHat[i])
			v.Mod(v, prime)
			prodHat[i] = v
		}
		prodCoeffs, err := primeCtx.FTTInverse(prodHat)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			residuesPerCoeff[i][primeIdx] = prodCoeffs[i]
		}
	}
	for i := 0; i < n; i++ {
		v, err := p.crtContext.Reconstruct(residuesPerCoeff[i])
		if err != nil {
			return nil, err
		}
		result[i] = v
	}

	out, err := NewPolynomial(n, p.modulus, result)
	if err != nil {
		return nil, err
	}
	out.inheritContexts(p)
	return out, nil
}

// MultiplyFFT multiplies via a floating-point FFT over the complex-embedded
// coefficients, rounding the result back to integers with round-half-to-even
// (matching the reference implementation's rounding so that fixed test
// vectors reproduce bit-for-bit).
func (p *Polynomial) MultiplyFFT(o *Polynomial) (*Polynomial, error) {
	if p.fftContext == nil {
		return nil, fmt.Errorf("%w: no fft context attached", ErrInvalidParameter)
	}
	if err := p.sameShape(o); err != nil {
		return nil, err
	}
	n := p.degree

	pComplex := make([]complex128, n)
	oComplex := make([]complex128, n)
	for i := 0; i < n; i++ {
		pComplex[i] = complex(toFloat(p.coeffs[i]), 0)
		oComplex[i] = complex(toFloat(o.coeffs[i]), 0)
	}

	pHat, err := p.fftContext.FTTForward(pComplex)
	if err != nil {
		return nil, err
	}
	oHat, err := p.fftContext.FTTForward(oComplex)
	if err != nil {
		return nil, err
	}
	prodHat := make([]complex128, n)
	for i := range prodHat {
		prodHat[i] = pHat[i] * oHat[i]
	}
	prod, err := p.fftContext.FTTInverse(prodHat)
	if err != nil {
		return nil, err
	}

	coeffs := make([]*big.Int, n)
	for i, c := range prod {
		coeff, err := roundComplexToInt(c)
		if err != nil {
			return nil, err
		}
		coeffs[i] = coeff
	}
	result, err := NewPolynomial(n, p.modulus, coeffs)
	if err != nil {
		return nil, err
	}
	result.inheritContexts(p)
	return result, nil
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// roundComplexToInt rounds a complex FFT output back to an integer
// coefficient, asserting the imaginary part is numerically negligible
// rather than silently discarding it.
func roundComplexToInt(c complex128) (*big.Int, error) {
	const imagTolerance = 1e-6
	if math.Abs(imag(c)) >= imagTolerance {
		return nil, fmt.Errorf("%w: fft result has non-negligible imaginary part %g", ErrInvalidParameter, imag(c))
	}
	return big.NewInt(int64(math.RoundToEven(real(c)))), nil
}

// ScalarMultiply returns p scaled by scalar mod q.
func (p *Polynomial) ScalarMultiply(scalar *big.Int) Element {
	coeffs := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		coeffs[i] = new(big.Int).Mul(c, scalar)
	}
	result, _ := NewPolynomial(p.degree, p.modulus, coeffs)
	result.inheritContexts(p)
	return result
}

// ScalarIntegerDivide returns p with every coefficient integer-divided by
// divisor.
func (p *Polynomial) ScalarIntegerDivide(divisor *big.Int) *Polynomial {
	coeffs := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		coeffs[i] = new(big.Int).Div(c, divisor)
	}
	result, _ := NewPolynomial(p.degree, p.modulus, coeffs)
	result.inheritContexts(p)
	return result
}

// Automorphism returns the Galois automorphism image of p under x -> x^e,
// reduced modulo x^N+1 (so exponents wrap with a sign flip). This is the raw
// primitive Rotate and Conjugate both build on, and that key-switching code
// also calls directly once it has already computed the exact exponent a
// rotation or conjugation key was generated against.
func (p *Polynomial) Automorphism(e int) *Polynomial {
	n := p.degree
	coeffs := make([]*big.Int, n)
	for i := range coeffs {
		coeffs[i] = big.NewInt(0)
	}
	for i, c := range p.coeffs {
		exp := mod(i*e, 2*n)
		idx := exp % n
		if (exp/n)%2 == 1 {
			coeffs[idx].Sub(coeffs[idx], c)
		} else {
			coeffs[idx].Add(coeffs[idx], c)
		}
	}
	result, _ := NewPolynomial(n, p.modulus, coeffs)
	result.inheritContexts(p)
	return result
}

// Rotate implements the Galois automorphism X -> X^(5^r), which permutes
// CKKS/BFV plaintext slots by r one-unit rotations.
func (p *Polynomial) Rotate(r int) *Polynomial {
	return p.Automorphism(rotationExponent(p.degree, r))
}

// Conjugate returns p under x -> x^-1, equivalently reversing and negating
// coefficients 1..N-1.
func (p *Polynomial) Conjugate() *Polynomial {
	return p.Automorphism(-1)
}

// rotationExponent computes 5^r mod 2n, resampling negative r via the
// modular inverse of 5 so a negative rotation count is well defined.
func rotationExponent(n, r int) int {
	m := 2 * n
	if r < 0 {
		inv := modInverse(5, m)
		e := 1
		for i := 0; i < -r; i++ {
			e = (e * inv) % m
		}
		return e
	}
	e := 1
	for i := 0; i < r; i++ {
		e = (e * 5) % m
	}
	return e
}

// modInverse returns the inverse of a modulo m via the extended Euclidean
// algorithm, for the small int-sized moduli (2N) rotation exponents use.
func modInverse(a, m int) int {
	g, x, _ := extendedGCD(a, m)
	if g != 1 {
		return 1
	}
	return mod(x, m)
}

func extendedGCD(a, b int) (gcd, x, y int) {
	if b == 0 {
		return a, 1, 0
	}
	g, x1, y1 := extendedGCD(b, a%b)
	return g, y1, x1 - (a/b)*y1
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Round returns a copy of p. Polynomial stores big.Int coefficients, which
// are already integers, so nothing is rounded and no imaginary-part check
// happens here; the rounding of complex FFT outputs, with its check that
// the imaginary part is negligible, is done by roundComplexToInt inside
// MultiplyFFT.
func (p *Polynomial) Round() *Polynomial {
	coeffs := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		coeffs[i] = new(big.Int).Set(c)
	}
	result, _ := NewPolynomial(p.degree, p.modulus, coeffs)
	result.inheritContexts(p)
	return result
}

// Floor integer-divides every coefficient by divisor, flooring rather than
// truncating toward zero for negative values (big.Int.Div already floors).
func (p *Polynomial) Floor(divisor *big.Int) *Polynomial {
	return p.ScalarIntegerDivide(divisor)
}

// Mod reduces every coefficient into [0, m).
func (p *Polynomial) Mod(m *big.Int) *Polynomial {
	coeffs := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		coeffs[i] = new(big.Int).Mod(c, m)
	}
	result, err := NewPolynomial(p.degree, p.modulus, coeffs)
	if err != nil {
		return p
	}
	result.inheritContexts(p)
	return result
}

// ModSmall reduces every coefficient into the centered range
// (-m/2, m/2], which is how plaintext/noise coefficients are interpreted as
// signed integers after decryption. The result is an element of the
// unreduced ring R (nil modulus), so the signed values are kept as they are.
func (p *Polynomial) ModSmall(m *big.Int) *Polynomial {
	half := new(big.Int).Rsh(m, 1)
	coeffs := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		v := new(big.Int).Mod(c, m)
		if v.Cmp(half) > 0 {
			v.Sub(v, m)
		}
		coeffs[i] = v
	}
	result, err := NewPolynomial(p.degree, nil, coeffs)
	if err != nil {
		return p
	}
	result.inheritContexts(p)
	return result
}

// BaseDecompose splits every coefficient into digitCount digits in the
// given base, returning digitCount polynomials where result[k]'s
// coefficients are the k-th digit of each original coefficient. This is the
// relinearization-key decomposition BFV's version-1 key-switching uses.
func (p *Polynomial) BaseDecompose(base *big.Int, digitCount int) []*Polynomial {
	digits := make([]*Polynomial, digitCount)
	remaining := make([]*big.Int, p.degree)
	for i, c := range p.coeffs {
		remaining[i] = new(big.Int).Set(c)
	}
	for d := 0; d < digitCount; d++ {
		coeffs := make([]*big.Int, p.degree)
		for i := range coeffs {
			digit := new(big.Int)
			remaining[i].DivMod(remaining[i], base, digit)
			coeffs[i] = digit
		}
		poly, _ := NewPolynomial(p.degree, p.modulus, coeffs)
		digits[d] = poly
	}
	return digits
}

// Evaluate evaluates p(x) at the given point modulo p's modulus (or over
// the integers, if unreduced), via Horner's method.
func (p *Polynomial) Evaluate(point *big.Int) *big.Int {
	result := big.NewInt(0)
	for i := p.degree - 1; i >= 0; i-- {
		result.Mul(result, point)
		result.Add(result, p.coeffs[i])
		if p.modulus != nil {
			result.Mod(result, p.modulus)
		}
	}
	return result
}
