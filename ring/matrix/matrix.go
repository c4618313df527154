// Package matrix implements plaintext-side linear-algebra helpers: dense
// complex matrix/vector arithmetic, diagonal extraction, and the vector
// rotation CKKS's MultiplyMatrix uses when assembling baby-step/giant-step
// diagonals.
package matrix

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrDimensionMismatch is returned when operand shapes are incompatible.
var ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

// Numeric is the set of element types matrix helpers accept: CKKS
// diagonals are complex128, and the same shape operations also accept
// real-valued matrices.
type Numeric interface {
	constraints.Complex | constraints.Float
}

// MatrixVectorMultiply returns mat * vec for a dense mat with len(vec)
// columns.
func MatrixVectorMultiply[T Numeric](mat [][]T, vec []T) ([]T, error) {
	if len(mat) == 0 {
		return nil, nil
	}
	if len(mat[0]) != len(vec) {
		return nil, fmt.Errorf("%w: matrix has %d columns, vector has %d entries", ErrDimensionMismatch, len(mat[0]), len(vec))
	}

	result := make([]T, len(mat))
	for i, row := range mat {
		if len(row) != len(vec) {
			return nil, fmt.Errorf("%w: row %d has %d columns, vector has %d entries", ErrDimensionMismatch, i, len(row), len(vec))
		}
		var sum T
		for j, v := range vec {
			sum += row[j] * v
		}
		result[i] = sum
	}
	return result, nil
}

// Add returns the elementwise sum of two equal-length vectors.
func Add[T Numeric](a, b []T) ([]T, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vectors have lengths %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	result := make([]T, len(a))
	for i := range a {
		result[i] = a[i] + b[i]
	}
	return result, nil
}

// ScalarMultiply returns vec scaled elementwise by scalar.
func ScalarMultiply[T Numeric](vec []T, scalar T) []T {
	result := make([]T, len(vec))
	for i, v := range vec {
		result[i] = v * scalar
	}
	return result
}

// Diagonal extracts the k-th generalized diagonal of a square n-by-n matrix:
// entry i of the result is mat[i][(i+k) mod n]. This is the building block
// for representing a dense linear transform as a sum of rotated diagonal
// plaintexts, as CKKS's MultiplyMatrix evaluator step does.
func Diagonal[T Numeric](mat [][]T, k int) ([]T, error) {
	n := len(mat)
	if n == 0 {
		return nil, nil
	}
	for i, row := range mat {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, matrix is %d square", ErrDimensionMismatch, i, len(row), n)
		}
	}

	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = mat[i][mod(i+k, n)]
	}
	return result, nil
}

// Rotate returns vec cyclically left-rotated by k positions, matching the
// slot-rotation convention used to align diagonals during baby-step/
// giant-step matrix multiplication.
func Rotate[T Numeric](vec []T, k int) []T {
	n := len(vec)
	if n == 0 {
		return nil
	}
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = vec[mod(i+k, n)]
	}
	return result
}

// Transpose returns the transpose of mat.
func Transpose[T Numeric](mat [][]T) [][]T {
	if len(mat) == 0 {
		return nil
	}
	rows, cols := len(mat), len(mat[0])
	result := make([][]T, cols)
	for j := 0; j < cols; j++ {
		result[j] = make([]T, rows)
		for i := 0; i < rows; i++ {
			result[j][i] = mat[i][j]
		}
	}
	return result
}

// Conjugate returns the elementwise complex conjugate of mat. For a
// non-complex instantiation this returns a copy of mat unchanged.
func Conjugate[T Numeric](mat [][]T) [][]T {
	result := make([][]T, len(mat))
	for i, row := range mat {
		result[i] = make([]T, len(row))
		for j, v := range row {
			result[i][j] = conjOf(v)
		}
	}
	return result
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// conjOf conjugates complex types and is the identity on real types; it is
// implemented via a type switch since Go generics have no unary conjugate
// operator.
func conjOf[T Numeric](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(T)
	case complex128:
		return any(complex(real(x), -imag(x))).(T)
	default:
		return v
	}
}
