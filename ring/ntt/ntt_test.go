package ntt_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ring/ntt"
)

func bigs(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestNTTKnownVector(t *testing.T) {
	modulus := big.NewInt(73)
	root := big.NewInt(10) // a primitive 8th root of unity mod 73.
	ctx, err := ntt.New(4, modulus, root)
	require.NoError(t, err)

	result, err := ctx.NTT(bigs(0, 1, 4, 5), ctx2Roots(ctx))
	require.NoError(t, err)

	expect := bigs(10, 34, 71, 31)
	for i := range expect {
		require.Equal(t, 0, expect[i].Cmp(result[i]), "index %d: got %s want %s", i, result[i], expect[i])
	}
}

// ctx2Roots rebuilds the forward powers-of-root table New would have
// computed internally, since the bare NTT method takes that table as an
// explicit argument but Context does not export it.
func ctx2Roots(ctx *ntt.Context) []*big.Int {
	roots := make([]*big.Int, ctx.Degree)
	acc := big.NewInt(1)
	roots[0] = big.NewInt(1)
	for i := 1; i < ctx.Degree; i++ {
		acc = new(big.Int).Mul(acc, ctx.RootOfUnity)
		acc.Mod(acc, ctx.Modulus)
		roots[i] = new(big.Int).Set(acc)
	}
	return roots
}

func TestFTTRoundTrip(t *testing.T) {
	modulus := big.NewInt(73)
	ctx, err := ntt.New(4, modulus, nil)
	require.NoError(t, err)

	coeffs := bigs(0, 1, 4, 5)
	forward, err := ctx.FTTForward(coeffs)
	require.NoError(t, err)
	back, err := ctx.FTTInverse(forward)
	require.NoError(t, err)

	for i := range coeffs {
		require.Equal(t, 0, coeffs[i].Cmp(back[i]), "index %d: got %s want %s", i, back[i], coeffs[i])
	}
}

func TestNewRejectsNonPowerOfTwoDegree(t *testing.T) {
	_, err := ntt.New(3, big.NewInt(73), nil)
	require.ErrorIs(t, err, ntt.ErrInvalidParameter)
}
