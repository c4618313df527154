package ring_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ring"
)

func bigs(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestMultiplyNaiveKnownVector(t *testing.T) {
	modulus := big.NewInt(73)
	a, err := ring.NewPolynomial(4, modulus, bigs(0, 1, 4, 5))
	require.NoError(t, err)
	b, err := ring.NewPolynomial(4, modulus, bigs(1, 2, 4, 3))
	require.NoError(t, err)

	product, err := a.MultiplyNaive(b)
	require.NoError(t, err)

	want := bigs(44, 42, 64, 17)
	for i, c := range product.Coeffs() {
		require.Equal(t, 0, c.Cmp(want[i]), "index %d: got %s want %s", i, c, want[i])
	}
}

func TestRotateKnownVector(t *testing.T) {
	modulus := big.NewInt(73)
	p, err := ring.NewPolynomial(4, modulus, bigs(0, 1, 4, 59))
	require.NoError(t, err)

	rotated := p.Rotate(3)
	want := bigs(0, -1, 4, -59)
	for i, c := range rotated.Coeffs() {
		require.Equal(t, 0, c.Cmp(want[i]), "index %d: got %s want %s", i, c, want[i])
	}
}

func TestConjugateIsInvolutive(t *testing.T) {
	modulus := big.NewInt(73)
	p, err := ring.NewPolynomial(4, modulus, bigs(0, 1, 4, 59))
	require.NoError(t, err)

	twice := p.Conjugate().Conjugate()
	for i, c := range twice.Coeffs() {
		require.Equal(t, 0, c.Cmp(p.Coeffs()[i]), "index %d", i)
	}
}

func TestBaseDecompose(t *testing.T) {
	modulus := big.NewInt(1000)
	p, err := ring.NewPolynomial(2, modulus, bigs(123, 7))
	require.NoError(t, err)

	base := big.NewInt(10)
	digits := p.BaseDecompose(base, 3)
	require.Len(t, digits, 3)

	// p == sum_i base^i * digits[i] (mod modulus), coefficientwise.
	recombined := make([]*big.Int, 2)
	recombined[0], recombined[1] = big.NewInt(0), big.NewInt(0)
	power := big.NewInt(1)
	for _, digit := range digits {
		for i, c := range digit.Coeffs() {
			term := new(big.Int).Mul(c, power)
			recombined[i].Add(recombined[i], term)
		}
		power.Mul(power, base)
	}
	for i, c := range recombined {
		c.Mod(c, modulus)
		require.Equal(t, 0, c.Cmp(p.Coeffs()[i]), "index %d: got %s want %s", i, c, p.Coeffs()[i])
	}
}

func TestModSmallCentersResidues(t *testing.T) {
	modulus := big.NewInt(73)
	p, err := ring.NewPolynomial(2, modulus, bigs(72, 37))
	require.NoError(t, err)

	centered := p.ModSmall(modulus)
	require.Equal(t, 0, centered.Coeffs()[0].Cmp(big.NewInt(-1)))
	require.Equal(t, 0, centered.Coeffs()[1].Cmp(big.NewInt(-36)))
}
