package bitrev_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/bitrev"
)

func TestReverse(t *testing.T) {
	require.Equal(t, uint64(12), bitrev.Reverse(6, 5))
	require.Equal(t, uint64(0), bitrev.Reverse(0, 8))
	require.Equal(t, uint64(1), bitrev.Reverse(1<<7, 8))
}

func TestPermuteRoundTrip(t *testing.T) {
	values := []int{0, 1, 2, 3, 4, 5, 6, 7}
	permuted := bitrev.Permute(values)
	require.Equal(t, []int{0, 4, 2, 6, 1, 5, 3, 7}, permuted)

	// Bit-reversal is an involution: permuting twice restores the original.
	require.Equal(t, values, bitrev.Permute(permuted))
}
