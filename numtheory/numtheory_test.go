package numtheory_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/numtheory"
)

func TestIsPrime(t *testing.T) {
	require.True(t, numtheory.IsPrime(big.NewInt(2), 40))
	require.True(t, numtheory.IsPrime(big.NewInt(73), 40))
	require.False(t, numtheory.IsPrime(big.NewInt(1), 40))
	require.False(t, numtheory.IsPrime(big.NewInt(4), 40))
	require.False(t, numtheory.IsPrime(big.NewInt(91), 40))
}

func TestModExpModInv(t *testing.T) {
	p := big.NewInt(73)
	val := big.NewInt(5)
	require.Equal(t, big.NewInt(1), numtheory.ModExp(val, big.NewInt(72), p))

	inv := numtheory.ModInv(val, p)
	product := new(big.Int).Mod(new(big.Int).Mul(val, inv), p)
	require.Equal(t, big.NewInt(1), product)
}

func TestRootOfUnity(t *testing.T) {
	// 73 is prime and 73-1 = 72 = 8*9, so an 8th root of unity exists mod 73.
	p := big.NewInt(73)
	order := big.NewInt(8)
	root, err := numtheory.RootOfUnity(order, p)
	require.NoError(t, err)

	require.Equal(t, big.NewInt(1), numtheory.ModExp(root, order, p))
	for _, k := range []int64{1, 2, 4} {
		require.NotEqual(t, big.NewInt(1), numtheory.ModExp(root, big.NewInt(k), p))
	}
}

func TestRootOfUnityRejectsNonDividingOrder(t *testing.T) {
	_, err := numtheory.RootOfUnity(big.NewInt(5), big.NewInt(73))
	require.ErrorIs(t, err, numtheory.ErrNoRootOfUnity)
}
