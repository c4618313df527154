package sampling_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

func newSource(t *testing.T, seed byte) *sampling.Source {
	t.Helper()
	prng, err := sampling.NewKeyedBlake2bPRNG([]byte{seed, 1, 2, 3})
	require.NoError(t, err)
	return sampling.NewSource(prng)
}

func TestKeyedPRNGsRejectEmptySeed(t *testing.T) {
	_, err := sampling.NewKeyedBlake2bPRNG(nil)
	require.ErrorIs(t, err, sampling.ErrInvalidParameter)

	_, err = sampling.NewKeyedPRNG(nil)
	require.ErrorIs(t, err, sampling.ErrInvalidParameter)
}

func TestKeyedBlake2bPRNGIsDeterministic(t *testing.T) {
	seed := []byte{9, 8, 7, 6}
	p1, err := sampling.NewKeyedBlake2bPRNG(seed)
	require.NoError(t, err)
	p2, err := sampling.NewKeyedBlake2bPRNG(seed)
	require.NoError(t, err)

	buf1 := make([]byte, 128)
	buf2 := make([]byte, 128)
	_, err = p1.Read(buf1)
	require.NoError(t, err)
	_, err = p2.Read(buf2)
	require.NoError(t, err)
	require.Equal(t, buf1, buf2)
}

func TestUniformIntStaysInBound(t *testing.T) {
	s := newSource(t, 1)
	bound := big.NewInt(1000)
	for i := 0; i < 50; i++ {
		v, err := s.UniformInt(bound)
		require.NoError(t, err)
		require.True(t, v.Sign() >= 0)
		require.Equal(t, -1, v.Cmp(bound))
	}
}

func TestUniformIntRejectsNonPositiveBound(t *testing.T) {
	s := newSource(t, 2)
	_, err := s.UniformInt(big.NewInt(0))
	require.ErrorIs(t, err, sampling.ErrInvalidParameter)
}

func TestTriangleStaysInTernarySet(t *testing.T) {
	s := newSource(t, 3)
	q := big.NewInt(97)
	coeffs, err := s.Triangle(200, q)
	require.NoError(t, err)
	require.Len(t, coeffs, 200)

	one := big.NewInt(1)
	minusOne := new(big.Int).Mod(big.NewInt(-1), q)
	zero := big.NewInt(0)
	for _, c := range coeffs {
		require.True(t, c.Cmp(zero) == 0 || c.Cmp(one) == 0 || c.Cmp(minusOne) == 0, "unexpected triangle sample %s", c)
	}
}

func TestHammingWeightProducesExactWeight(t *testing.T) {
	s := newSource(t, 4)
	q := big.NewInt(97)
	degree, weight := 64, 20

	coeffs, err := s.HammingWeight(degree, weight, q)
	require.NoError(t, err)
	require.Len(t, coeffs, degree)

	zero := big.NewInt(0)
	nonzero := 0
	for _, c := range coeffs {
		if c.Cmp(zero) != 0 {
			nonzero++
			abs := new(big.Int).Mod(c, q)
			one := big.NewInt(1)
			minusOne := new(big.Int).Mod(big.NewInt(-1), q)
			require.True(t, abs.Cmp(one) == 0 || abs.Cmp(minusOne) == 0, "nonzero entry %s is not +-1", c)
		}
	}
	require.Equal(t, weight, nonzero)
}

func TestHammingWeightRejectsWeightExceedingDegree(t *testing.T) {
	s := newSource(t, 5)
	_, err := s.HammingWeight(8, 9, big.NewInt(97))
	require.ErrorIs(t, err, sampling.ErrInvalidParameter)
}

func TestRandRealStaysInBound(t *testing.T) {
	s := newSource(t, 6)
	const bound = 2.5
	values, err := s.RandReal(100, bound)
	require.NoError(t, err)
	require.Len(t, values, 100)
	for _, v := range values {
		require.True(t, v >= -bound && v <= bound)
	}
}

func TestRandComplexStaysInBound(t *testing.T) {
	s := newSource(t, 7)
	const bound = 1.0
	values, err := s.RandComplex(100, bound)
	require.NoError(t, err)
	require.Len(t, values, 100)
	for _, v := range values {
		require.True(t, real(v) >= -bound && real(v) <= bound)
		require.True(t, imag(v) >= -bound && imag(v) <= bound)
	}
}
