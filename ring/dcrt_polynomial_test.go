package ring_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ring"
	"github.com/sarojaerabelli/go-fhe/ring/crt"
)

func testCRTContext(t *testing.T) *crt.Context {
	t.Helper()
	ctx, err := crt.New(8, 20, 2)
	require.NoError(t, err)
	return ctx
}

func TestDCRTReconstructRoundTrip(t *testing.T) {
	ctx := testCRTContext(t)
	coeffs := bigs(0, 1, 2, 3, 4, 5, 6, 7)

	d, err := ring.NewDCRTPolynomial(ctx, coeffs)
	require.NoError(t, err)

	reconstructed, err := d.Reconstruct()
	require.NoError(t, err)

	for i, c := range reconstructed.Coeffs() {
		require.Equal(t, 0, c.Cmp(coeffs[i]), "index %d: got %s want %s", i, c, coeffs[i])
	}
}

func TestDCRTAddMatchesCoefficientwiseSum(t *testing.T) {
	ctx := testCRTContext(t)
	a, err := ring.NewDCRTPolynomial(ctx, bigs(1, 2, 3, 4, 5, 6, 7, 8))
	require.NoError(t, err)
	b, err := ring.NewDCRTPolynomial(ctx, bigs(8, 7, 6, 5, 4, 3, 2, 1))
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	reconstructed, err := sum.(*ring.DCRTPolynomial).Reconstruct()
	require.NoError(t, err)

	for _, c := range reconstructed.Coeffs() {
		require.Equal(t, 0, c.Cmp(big.NewInt(9)))
	}
}

// TestDCRTMultiplyMatchesPlainNaive checks that DCRTPolynomial.Multiply
// (per-prime NTT, CRT-recombined) agrees with Polynomial.MultiplyNaive over
// the reconstructed big modulus Q, on the same coefficient vectors.
func TestDCRTMultiplyMatchesPlainNaive(t *testing.T) {
	ctx := testCRTContext(t)
	aCoeffs := bigs(1, 2, 0, 1, 3, 0, 2, 1)
	bCoeffs := bigs(2, 0, 1, 1, 0, 2, 1, 3)

	a, err := ring.NewDCRTPolynomial(ctx, aCoeffs)
	require.NoError(t, err)
	b, err := ring.NewDCRTPolynomial(ctx, bCoeffs)
	require.NoError(t, err)

	product, err := a.Multiply(b)
	require.NoError(t, err)
	reconstructed, err := product.(*ring.DCRTPolynomial).Reconstruct()
	require.NoError(t, err)

	plainA, err := ring.NewPolynomial(8, ctx.Modulus, aCoeffs)
	require.NoError(t, err)
	plainB, err := ring.NewPolynomial(8, ctx.Modulus, bCoeffs)
	require.NoError(t, err)
	plainProduct, err := plainA.MultiplyNaive(plainB)
	require.NoError(t, err)

	for i, c := range reconstructed.Coeffs() {
		require.Equal(t, 0, c.Cmp(plainProduct.Coeffs()[i]), "index %d: got %s want %s", i, c, plainProduct.Coeffs()[i])
	}
}

func TestDCRTRotateMatchesPlainRotate(t *testing.T) {
	ctx := testCRTContext(t)
	coeffs := bigs(0, 1, 2, 3, 4, 5, 6, 7)

	d, err := ring.NewDCRTPolynomial(ctx, coeffs)
	require.NoError(t, err)
	rotated, err := d.Rotate(2).Reconstruct()
	require.NoError(t, err)

	plain, err := ring.NewPolynomial(8, ctx.Modulus, coeffs)
	require.NoError(t, err)
	plainRotated := plain.Rotate(2)

	for i, c := range rotated.Coeffs() {
		require.Equal(t, 0, c.Cmp(plainRotated.Coeffs()[i]), "index %d: got %s want %s", i, c, plainRotated.Coeffs()[i])
	}
}

func TestDCRTConjugateIsInvolutive(t *testing.T) {
	ctx := testCRTContext(t)
	d, err := ring.NewDCRTPolynomial(ctx, bigs(0, 1, 2, 3, 4, 5, 6, 7))
	require.NoError(t, err)

	twice := d.Conjugate().Conjugate()
	original, err := d.Reconstruct()
	require.NoError(t, err)
	back, err := twice.Reconstruct()
	require.NoError(t, err)

	for i, c := range back.Coeffs() {
		require.Equal(t, 0, c.Cmp(original.Coeffs()[i]), "index %d", i)
	}
}

func TestDCRTModSwitchDropsLastPrime(t *testing.T) {
	ctx := testCRTContext(t)
	smaller, err := crt.NewFromPrimes(8, ctx.Primes[:len(ctx.Primes)-1])
	require.NoError(t, err)

	d, err := ring.NewDCRTPolynomial(ctx, bigs(0, 1, 2, 3, 4, 5, 6, 7))
	require.NoError(t, err)

	switched, err := d.ModSwitch(smaller)
	require.NoError(t, err)
	require.Equal(t, smaller.NumPrimes(), len(switched.Residues()))

	for i := range switched.Residues() {
		for j, c := range switched.Residues()[i] {
			require.Equal(t, 0, c.Cmp(d.Residues()[i][j]), "prime %d index %d", i, j)
		}
	}
}
