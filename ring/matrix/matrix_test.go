package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ring/matrix"
)

func TestDiagonalKnownVector(t *testing.T) {
	mat := [][]float64{
		{0, 1, 2},
		{10, 11, 12},
		{20, 21, 22},
	}

	diag, err := matrix.Diagonal(mat, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 12, 20}, diag)
}

func TestDiagonalZeroIsMainDiagonal(t *testing.T) {
	mat := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}

	diag, err := matrix.Diagonal(mat, 0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 5, 9}, diag)
}

func TestMatrixVectorMultiplyKnownVector(t *testing.T) {
	mat := [][]float64{
		{1, 0, 2},
		{0, 1, 1},
	}
	vec := []float64{3, 4, 5}

	result, err := matrix.MatrixVectorMultiply(mat, vec)
	require.NoError(t, err)
	require.Equal(t, []float64{13, 9}, result)
}

func TestMatrixVectorMultiplyRejectsDimensionMismatch(t *testing.T) {
	mat := [][]float64{{1, 2, 3}}
	_, err := matrix.MatrixVectorMultiply(mat, []float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestRotateCyclesLeft(t *testing.T) {
	vec := []float64{0, 1, 2, 3}
	require.Equal(t, []float64{1, 2, 3, 0}, matrix.Rotate(vec, 1))
	require.Equal(t, []float64{3, 0, 1, 2}, matrix.Rotate(vec, -1))
	require.Equal(t, vec, matrix.Rotate(vec, 0))
}

func TestTransposeRoundTrip(t *testing.T) {
	mat := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	transposed := matrix.Transpose(mat)
	require.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, transposed)
	require.Equal(t, mat, matrix.Transpose(transposed))
}

func TestConjugateNegatesImaginaryPart(t *testing.T) {
	mat := [][]complex128{
		{complex(1, 2), complex(3, -4)},
	}
	conj := matrix.Conjugate(mat)
	require.Equal(t, complex(1, -2), conj[0][0])
	require.Equal(t, complex(3, 4), conj[0][1])
}

func TestAddAndScalarMultiply(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	sum, err := matrix.Add(a, b)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 7, 9}, sum)

	scaled := matrix.ScalarMultiply(a, 2.0)
	require.Equal(t, []float64{2, 4, 6}, scaled)
}
