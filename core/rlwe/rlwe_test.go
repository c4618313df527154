package rlwe_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

func poly(t *testing.T, modulus *big.Int, vals ...int64) ring.Element {
	t.Helper()
	coeffs := make([]*big.Int, len(vals))
	for i, v := range vals {
		coeffs[i] = big.NewInt(v)
	}
	p, err := ring.NewPolynomial(len(vals), modulus, coeffs)
	require.NoError(t, err)
	return p
}

func TestGeneratePublicKeyMatchesDefinition(t *testing.T) {
	modulus := big.NewInt(97)
	g := rlwe.NewKeyGenerator(nil)

	secret := rlwe.NewSecretKey(poly(t, modulus, 1, 0, 1, 0))
	a := poly(t, modulus, 3, 5, 7, 11)
	e := poly(t, modulus, 1, 0, 0, 1)

	pub, err := g.GeneratePublicKey(secret, a, e)
	require.NoError(t, err)

	as, err := a.Multiply(secret.Value)
	require.NoError(t, err)
	want, err := as.ScalarMultiply(big.NewInt(-1)).Add(e)
	require.NoError(t, err)

	wantPoly := want.(*ring.Polynomial)
	gotPoly := pub.B.(*ring.Polynomial)
	for i, c := range gotPoly.Coeffs() {
		require.Equal(t, 0, c.Cmp(wantPoly.Coeffs()[i]), "index %d", i)
	}
	require.Same(t, a, pub.A)
}

func TestGenerateSwitchingKeyVersion2MatchesDefinition(t *testing.T) {
	modulus := big.NewInt(97)
	g := rlwe.NewKeyGenerator(nil)

	newSecret := rlwe.NewSecretKey(poly(t, modulus, 0, 1, 0, 1))
	source := poly(t, modulus, 2, 2, 2, 2)
	a := poly(t, modulus, 4, 6, 8, 10)
	e := poly(t, modulus, 1, 1, 1, 1)
	p := big.NewInt(5)

	key, err := g.GenerateSwitchingKeyVersion2(source, newSecret, a, e, p)
	require.NoError(t, err)
	require.Equal(t, 0, key.P.Cmp(p))

	as, err := a.Multiply(newSecret.Value)
	require.NoError(t, err)
	withError, err := as.ScalarMultiply(big.NewInt(-1)).Add(e)
	require.NoError(t, err)
	want, err := withError.Add(source.ScalarMultiply(p))
	require.NoError(t, err)

	wantPoly := want.(*ring.Polynomial)
	gotPoly := key.B.(*ring.Polynomial)
	for i, c := range gotPoly.Coeffs() {
		require.Equal(t, 0, c.Cmp(wantPoly.Coeffs()[i]), "index %d", i)
	}
}

func TestNewSwitchingKeyVersion1RejectsLengthMismatch(t *testing.T) {
	modulus := big.NewInt(97)
	b := []ring.Element{poly(t, modulus, 1, 2)}
	a := []ring.Element{poly(t, modulus, 1, 2), poly(t, modulus, 3, 4)}

	_, err := rlwe.NewSwitchingKeyVersion1(2, b, a)
	require.ErrorIs(t, err, rlwe.ErrInvalidParameter)
}

func TestNewKeySetInitializesRotationsMap(t *testing.T) {
	ks := rlwe.NewKeySet()
	require.NotNil(t, ks.Rotations)
	require.Empty(t, ks.Rotations)
}

func TestCiphertextDegree(t *testing.T) {
	modulus := big.NewInt(97)
	fresh := rlwe.NewCiphertext([]ring.Element{poly(t, modulus, 1, 2), poly(t, modulus, 3, 4)}, 1.0, 0)
	require.Equal(t, 1, fresh.Degree())

	afterMultiply := rlwe.NewCiphertext([]ring.Element{
		poly(t, modulus, 1, 2), poly(t, modulus, 3, 4), poly(t, modulus, 5, 6),
	}, 1.0, 0)
	require.Equal(t, 2, afterMultiply.Degree())
}
