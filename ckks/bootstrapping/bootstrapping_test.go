package bootstrapping

import (
	"math/big"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ckks"
	"github.com/sarojaerabelli/go-fhe/core/rlwe"
	"github.com/sarojaerabelli/go-fhe/ring"
)

func newTestParams(t *testing.T) *ckks.Parameters {
	t.Helper()
	params, err := ckks.NewParameters(ckks.ParametersLiteral{
		LogDegree:         3, // degree 8, 4 slots
		PrimeSize:         30,
		NumPrimes:         2,
		ScalingFactorBits: 20,
		HammingWeight:     4,
	})
	require.NoError(t, err)
	return params
}

func TestNewRejectsInvalidTaylorIterations(t *testing.T) {
	params := newTestParams(t)

	_, err := New(params, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(params, 3)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(params, -2)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

// TestBuildEncodingMatricesMatchesKnownValues checks Context.New's
// CoeffToSlotMatrix against the primitive-root values the construction
// formula produces for degree 8 (slots 4, m 16), computed independently.
func TestBuildEncodingMatricesMatchesKnownValues(t *testing.T) {
	params := newTestParams(t)
	ctx, err := New(params, 2)
	require.NoError(t, err)

	require.Len(t, ctx.CoeffToSlotMatrix, params.Slots)
	require.Len(t, ctx.SlotToCoeffMatrix, params.Slots)

	want := [][2]float64{
		{1, 0}, {0.92388, 0.382683}, {0.707107, 0.707107}, {0.382683, 0.92388},
	}
	for j, w := range want {
		got := ctx.CoeffToSlotMatrix[0][j]
		require.InDelta(t, w[0], real(got), 1e-5, "row 0 col %d real", j)
		require.InDelta(t, w[1], imag(got), 1e-5, "row 0 col %d imag", j)
	}

	for i := range ctx.CoeffToSlotMatrix {
		for j := range ctx.CoeffToSlotMatrix[i] {
			require.InDelta(t, 0.0, cmplx.Abs(ctx.SlotToCoeffMatrix[i][j]-cmplx.Conj(ctx.CoeffToSlotMatrix[i][j])), 1e-9)
		}
	}
}

func TestTaylorCoefficientsMatchFactorials(t *testing.T) {
	params := newTestParams(t)
	ctx, err := New(params, 4)
	require.NoError(t, err)

	factorial := 1.0
	for k := 0; k <= 4; k++ {
		if k > 0 {
			factorial *= float64(k)
		}
		require.InDelta(t, 1.0/factorial, ctx.taylorCoefficient(k), 1e-9, "1/%d!", k)
	}
	require.Equal(t, 0.0, ctx.taylorCoefficient(5))
	require.Equal(t, 0.0, ctx.taylorCoefficient(-1))
}

func samplePolynomial(t *testing.T, degree int, modulus *big.Int, base int64) *ring.Polynomial {
	t.Helper()
	coeffs := make([]*big.Int, degree)
	for i := range coeffs {
		coeffs[i] = big.NewInt(base + int64(i))
	}
	p, err := ring.NewPolynomial(degree, modulus, coeffs)
	require.NoError(t, err)
	return p
}

// TestRawRaiseModulusPreservesReconstructedValue verifies that re-expanding a
// DCRTPolynomial under a larger modulus, the way ModRaise does, reproduces
// the exact same non-negative integer value once reconstructed again, since
// the original value (already < the old modulus) fits unchanged under the
// larger one.
func TestRawRaiseModulusPreservesReconstructedValue(t *testing.T) {
	params := newTestParams(t)
	smallCtx := params.LevelContexts[0]

	p := samplePolynomial(t, params.Degree, smallCtx.Modulus, 3)
	elem, err := ring.NewDCRTPolynomial(smallCtx, p.Coeffs())
	require.NoError(t, err)

	raised, err := rawRaiseModulus(elem, params, params.MaxLevel())
	require.NoError(t, err)

	original, err := elem.Reconstruct()
	require.NoError(t, err)
	reconstructed, err := raised.Reconstruct()
	require.NoError(t, err)

	for i, c := range reconstructed.Coeffs() {
		require.Equal(t, 0, c.Cmp(original.Coeffs()[i]), "coefficient %d", i)
	}
}

func TestModRaiseRejectsNonIncreasingLevel(t *testing.T) {
	params := newTestParams(t)
	ctx := params.LevelContexts[params.MaxLevel()]

	p := samplePolynomial(t, params.Degree, ctx.Modulus, 1)
	elem, err := ring.NewDCRTPolynomial(ctx, p.Coeffs())
	require.NoError(t, err)
	ct := rlwe.NewCiphertext([]ring.Element{elem, elem}, 1.0, params.MaxLevel())

	_, err = ModRaise(params, ct, params.MaxLevel())
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ModRaise(params, ct, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestModRaiseLiftsLevelAndPreservesScale(t *testing.T) {
	params := newTestParams(t)
	smallCtx := params.LevelContexts[0]

	p0 := samplePolynomial(t, params.Degree, smallCtx.Modulus, 5)
	p1 := samplePolynomial(t, params.Degree, smallCtx.Modulus, 9)
	c0, err := ring.NewDCRTPolynomial(smallCtx, p0.Coeffs())
	require.NoError(t, err)
	c1, err := ring.NewDCRTPolynomial(smallCtx, p1.Coeffs())
	require.NoError(t, err)

	ct := rlwe.NewCiphertext([]ring.Element{c0, c1}, 1234.5, 0)

	raised, err := ModRaise(params, ct, params.MaxLevel())
	require.NoError(t, err)

	require.Equal(t, params.MaxLevel(), raised.Level)
	require.Equal(t, 1234.5, raised.Scale)
	require.Equal(t, 2, len(raised.Value))
}

func TestEncodeConstantBroadcastsSameValueEverySlot(t *testing.T) {
	params := newTestParams(t)
	pt, err := encodeConstant(params, params.MaxLevel(), params.ScalingFactor, complex(0.25, 0))
	require.NoError(t, err)

	encoder := ckks.NewEncoder(params)
	decoded, err := encoder.Decode(pt)
	require.NoError(t, err)

	for i, v := range decoded {
		require.InDelta(t, 0.25, real(v), 1e-5, "slot %d", i)
		require.InDelta(t, 0.0, imag(v), 1e-5, "slot %d", i)
	}
}

func TestAlignLevelsDropsHigherSideDown(t *testing.T) {
	params := newTestParams(t)
	ev := ckks.NewEvaluator(params)
	ctx := params.LevelContexts[params.MaxLevel()]

	p := samplePolynomial(t, params.Degree, ctx.Modulus, 2)
	elem, err := ring.NewDCRTPolynomial(ctx, p.Coeffs())
	require.NoError(t, err)

	high := rlwe.NewCiphertext([]ring.Element{elem, elem}, 1.0, params.MaxLevel())

	lowCtx := params.LevelContexts[0]
	pLow := samplePolynomial(t, params.Degree, lowCtx.Modulus, 2)
	elemLow, err := ring.NewDCRTPolynomial(lowCtx, pLow.Coeffs())
	require.NoError(t, err)
	low := rlwe.NewCiphertext([]ring.Element{elemLow, elemLow}, 1.0, 0)

	a, b, err := alignLevels(ev, high, low)
	require.NoError(t, err)
	require.Equal(t, 0, a.Level)
	require.Equal(t, 0, b.Level)

	a2, b2, err := alignLevels(ev, low, high)
	require.NoError(t, err)
	require.Equal(t, 0, a2.Level)
	require.Equal(t, 0, b2.Level)
}
