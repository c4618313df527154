package ckks_test

import (
	"math/cmplx"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	"github.com/sarojaerabelli/go-fhe/ckks"
	"github.com/sarojaerabelli/go-fhe/utils/sampling"
)

func newTestParams(t *testing.T) *ckks.Parameters {
	t.Helper()
	params, err := ckks.NewParameters(ckks.ParametersLiteral{
		LogDegree:         4, // degree 16, 8 slots
		PrimeSize:         50,
		NumPrimes:         3,
		ScalingFactorBits: 40,
		HammingWeight:     8,
		TaylorIterations:  6,
	})
	require.NoError(t, err)
	return params
}

func newTestSource(t *testing.T, seed byte) *sampling.Source {
	t.Helper()
	prng, err := sampling.NewKeyedBlake2bPRNG([]byte{seed, 0xAB, 0xCD, 0xEF})
	require.NoError(t, err)
	return sampling.NewSource(prng)
}

func maxAbsError(got, want []complex128) float64 {
	var max float64
	for i := range got {
		d := cmplx.Abs(got[i] - want[i])
		if d > max {
			max = d
		}
	}
	return max
}

func TestEncoderRoundTrip(t *testing.T) {
	params := newTestParams(t)
	encoder := ckks.NewEncoder(params)

	values := make([]complex128, params.Slots)
	for i := range values {
		values[i] = complex(float64(i)-2, 0.5*float64(i))
	}

	pt, err := encoder.Encode(values, params.MaxLevel())
	require.NoError(t, err)
	decoded, err := encoder.Decode(pt)
	require.NoError(t, err)

	require.Less(t, maxAbsError(decoded, values), 1e-6)
}

func TestEndToEndAdditionIsApproximatelyCorrect(t *testing.T) {
	params := newTestParams(t)
	source := newTestSource(t, 1)

	keygen := ckks.NewKeyGenerator(params, source)
	secret, err := keygen.GenerateSecretKey()
	require.NoError(t, err)
	public, err := keygen.GeneratePublicKey(secret)
	require.NoError(t, err)

	encoder := ckks.NewEncoder(params)
	encryptor := ckks.NewEncryptor(params, public, source)
	decryptor := ckks.NewDecryptor(params, secret)
	evaluator := ckks.NewEvaluator(params)

	v1 := make([]complex128, params.Slots)
	v2 := make([]complex128, params.Slots)
	for i := range v1 {
		v1[i] = complex(float64(i)*0.25, 0)
		v2[i] = complex(1.5-float64(i)*0.1, 0)
	}

	pt1, err := encoder.Encode(v1, params.MaxLevel())
	require.NoError(t, err)
	pt2, err := encoder.Encode(v2, params.MaxLevel())
	require.NoError(t, err)

	ct1, err := encryptor.Encrypt(pt1)
	require.NoError(t, err)
	ct2, err := encryptor.Encrypt(pt2)
	require.NoError(t, err)

	ctSum, err := evaluator.Add(ct1, ct2)
	require.NoError(t, err)

	decryptedSum, err := decryptor.Decrypt(ctSum)
	require.NoError(t, err)
	decoded, err := encoder.Decode(decryptedSum)
	require.NoError(t, err)

	want := make([]complex128, params.Slots)
	for i := range want {
		want[i] = v1[i] + v2[i]
	}

	require.Less(t, maxAbsError(decoded, want), 0.005)
}

// TestEndToEndMultiplyIsApproximatelyCorrect mirrors spec.md's CKKS
// end-to-end worked example: encrypt, multiply, relinearize, rescale,
// decrypt, decode recovers the entrywise product within a small error
// bound, reported via montanaflynn/stats the way SPEC_FULL.md's test
// tooling convention calls for.
func TestEndToEndMultiplyIsApproximatelyCorrect(t *testing.T) {
	params := newTestParams(t)
	source := newTestSource(t, 2)

	keygen := ckks.NewKeyGenerator(params, source)
	secret, err := keygen.GenerateSecretKey()
	require.NoError(t, err)
	public, err := keygen.GeneratePublicKey(secret)
	require.NoError(t, err)
	relinKey, err := keygen.GenerateRelinKey(secret)
	require.NoError(t, err)

	encoder := ckks.NewEncoder(params)
	encryptor := ckks.NewEncryptor(params, public, source)
	decryptor := ckks.NewDecryptor(params, secret)
	evaluator := ckks.NewEvaluator(params)

	v1 := make([]complex128, params.Slots)
	v2 := make([]complex128, params.Slots)
	for i := range v1 {
		v1[i] = complex(0.3+0.1*float64(i), 0)
		v2[i] = complex(0.7-0.05*float64(i), 0)
	}

	pt1, err := encoder.Encode(v1, params.MaxLevel())
	require.NoError(t, err)
	pt2, err := encoder.Encode(v2, params.MaxLevel())
	require.NoError(t, err)

	ct1, err := encryptor.Encrypt(pt1)
	require.NoError(t, err)
	ct2, err := encryptor.Encrypt(pt2)
	require.NoError(t, err)

	ctProduct, err := evaluator.Multiply(ct1, ct2)
	require.NoError(t, err)
	ctRelin, err := evaluator.Relinearize(ctProduct, relinKey)
	require.NoError(t, err)
	require.Equal(t, 1, ctRelin.Degree())
	ctRescaled, err := evaluator.Rescale(ctRelin)
	require.NoError(t, err)
	require.Equal(t, params.MaxLevel()-1, ctRescaled.Level)

	decrypted, err := decryptor.Decrypt(ctRescaled)
	require.NoError(t, err)
	decoded, err := encoder.Decode(decrypted)
	require.NoError(t, err)

	errs := make([]float64, params.Slots)
	for i := range decoded {
		want := v1[i] * v2[i]
		errs[i] = cmplx.Abs(decoded[i] - want)
	}
	mean, err := stats.Mean(errs)
	require.NoError(t, err)
	require.Less(t, mean, 0.01)
	for _, e := range errs {
		require.Less(t, e, 0.01)
	}
}

func TestRotateCyclicallyShiftsSlots(t *testing.T) {
	params := newTestParams(t)
	source := newTestSource(t, 3)

	keygen := ckks.NewKeyGenerator(params, source)
	secret, err := keygen.GenerateSecretKey()
	require.NoError(t, err)
	rotKey, err := keygen.GenerateRotationKey(secret, 1)
	require.NoError(t, err)

	encoder := ckks.NewEncoder(params)
	encryptor := ckks.NewSecretKeyEncryptor(params, secret, source)
	decryptor := ckks.NewDecryptor(params, secret)
	evaluator := ckks.NewEvaluator(params)

	values := make([]complex128, params.Slots)
	for i := range values {
		values[i] = complex(float64(i), 0)
	}

	pt, err := encoder.Encode(values, params.MaxLevel())
	require.NoError(t, err)
	ct, err := encryptor.Encrypt(pt)
	require.NoError(t, err)

	rotated, err := evaluator.Rotate(ct, 1, rotKey)
	require.NoError(t, err)

	decrypted, err := decryptor.Decrypt(rotated)
	require.NoError(t, err)
	decoded, err := encoder.Decode(decrypted)
	require.NoError(t, err)

	n := params.Slots
	want := make([]complex128, n)
	for i := range want {
		want[i] = values[(i+1)%n]
	}

	require.Less(t, maxAbsError(decoded, want), 0.005)
}

func TestConjugateMatchesComplexConjugate(t *testing.T) {
	params := newTestParams(t)
	source := newTestSource(t, 4)

	keygen := ckks.NewKeyGenerator(params, source)
	secret, err := keygen.GenerateSecretKey()
	require.NoError(t, err)
	conjKey, err := keygen.GenerateConjugationKey(secret)
	require.NoError(t, err)

	encoder := ckks.NewEncoder(params)
	encryptor := ckks.NewSecretKeyEncryptor(params, secret, source)
	decryptor := ckks.NewDecryptor(params, secret)
	evaluator := ckks.NewEvaluator(params)

	values := make([]complex128, params.Slots)
	for i := range values {
		values[i] = complex(float64(i), float64(i)*0.5)
	}

	pt, err := encoder.Encode(values, params.MaxLevel())
	require.NoError(t, err)
	ct, err := encryptor.Encrypt(pt)
	require.NoError(t, err)

	conjugated, err := evaluator.Conjugate(ct, conjKey)
	require.NoError(t, err)

	decrypted, err := decryptor.Decrypt(conjugated)
	require.NoError(t, err)
	decoded, err := encoder.Decode(decrypted)
	require.NoError(t, err)

	want := make([]complex128, len(values))
	for i, v := range values {
		want[i] = cmplx.Conj(v)
	}

	require.Less(t, maxAbsError(decoded, want), 0.005)
}

func TestMaxAbsErrorIsZeroForIdenticalVectors(t *testing.T) {
	a := []complex128{complex(1, 1), complex(2, -2)}
	require.Equal(t, 0.0, maxAbsError(a, a))
}
