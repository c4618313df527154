// Package ckks implements the Cheon-Kim-Kim-Song scheme for approximate
// arithmetic on encrypted complex vectors, built on the ring package's RNS
// (DCRTPolynomial) representation. Ring multiplication works per prime;
// rescaling, modulus raising and key switching reconstruct each
// coefficient as a big.Int over the full modulus (see levels.go). Grounded on
// the reference ckks_parameters.py/ckks_key_generator.py/ckks_encoder.py/
// ckks_encryptor.py/ckks_decryptor.py/ckks_evaluator.py and structured the
// way the teacher layers its ckks package on core/rlwe and ring.
package ckks

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring/crt"
	"github.com/sarojaerabelli/go-fhe/ring/fft"
)

// ErrInvalidParameter is returned for malformed parameter literals.
var ErrInvalidParameter = errors.New("ckks: invalid parameter")

// ErrScalingFactorMismatch is returned when an operation (typically
// AddPlain/MultiplyPlain, or combining two ciphertexts) is given operands
// whose scaling factors don't match.
var ErrScalingFactorMismatch = errors.New("ckks: scaling factor mismatch")

// ErrLevelMismatch is returned when two ciphertexts at different levels are
// combined without first aligning them via LowerModulus.
var ErrLevelMismatch = errors.New("ckks: ciphertext level mismatch")

// ParametersLiteral is the plain-data description of a CKKS parameter set,
// suitable for YAML round-tripping via gopkg.in/yaml.v3.
type ParametersLiteral struct {
	LogDegree        int     `yaml:"log_degree"`
	PrimeSize        int     `yaml:"prime_size"`
	NumPrimes        int     `yaml:"num_primes"`
	ScalingFactorBits int    `yaml:"scaling_factor_bits"`
	HammingWeight    int     `yaml:"hamming_weight"`
	TaylorIterations int     `yaml:"taylor_iterations"`
	RNS              bool    `yaml:"rns"`
}

// Parameters is the resolved, immutable CKKS parameter set. It owns the
// prime chain and one crt.Context per level (LevelContexts[l] covers
// primes[0:l+1]), the FFT context used for the canonical-embedding
// encoder, and the special modulus P used by relinearization/rotation/
// conjugation key-switching.
type Parameters struct {
	Degree           int
	Slots            int
	ScalingFactor    float64
	HammingWeight    int
	TaylorIterations int
	RNS              bool

	Primes        []*big.Int
	LevelContexts []*crt.Context // index l holds the context for primes[0:l+1]
	SpecialModulus *big.Int       // P, the special-modulus switching-key factor
	// KeySwitchContext covers every scaling prime plus SpecialModulus (modulus
	// Q_top*P). Switching keys are sampled over this extended context, and
	// switchKey raises the term being switched onto it before multiplying by
	// the key, so the P-division at the end of key-switching recovers a
	// genuinely small-noise result instead of reducing mod Q_top too early.
	KeySwitchContext *crt.Context
	FFTContext    *fft.Context
}

// MaxLevel returns the index of the freshest (most-primes) level.
func (p *Parameters) MaxLevel() int {
	return len(p.Primes) - 1
}

// TopContext returns the crt.Context at the freshest level.
func (p *Parameters) TopContext() *crt.Context {
	return p.LevelContexts[p.MaxLevel()]
}

// NewParameters resolves a ParametersLiteral into a Parameters.
func NewParameters(lit ParametersLiteral) (*Parameters, error) {
	if lit.LogDegree <= 1 {
		return nil, fmt.Errorf("%w: log_degree must be > 1", ErrInvalidParameter)
	}
	if lit.NumPrimes <= 0 {
		return nil, fmt.Errorf("%w: num_primes must be positive", ErrInvalidParameter)
	}
	if lit.HammingWeight <= 0 {
		return nil, fmt.Errorf("%w: hamming_weight must be positive", ErrInvalidParameter)
	}

	degree := 1 << lit.LogDegree

	// The chain needs num_primes scaling primes plus num_primes more whose
	// product serves as the special modulus P for key switching, so that P
	// is at least as large as Q_top and dividing by P removes the key noise.
	chain, err := crt.GeneratePrimeChain(degree, lit.PrimeSize, 2*lit.NumPrimes)
	if err != nil {
		return nil, fmt.Errorf("ckks: generating prime chain: %w", err)
	}
	scalingPrimes := chain[:lit.NumPrimes]
	special := big.NewInt(1)
	for _, prime := range chain[lit.NumPrimes:] {
		special.Mul(special, prime)
	}

	levelContexts := make([]*crt.Context, len(scalingPrimes))
	for l := range scalingPrimes {
		ctx, err := crt.NewFromPrimes(degree, scalingPrimes[:l+1])
		if err != nil {
			return nil, fmt.Errorf("ckks: building level %d context: %w", l, err)
		}
		levelContexts[l] = ctx
	}

	// chain is scalingPrimes followed by the primes whose product is P, so
	// reusing the whole slice (rather than re-searching for primes) gives
	// exactly the Q_top*P context key-switching needs.
	keySwitchCtx, err := crt.NewFromPrimes(degree, chain)
	if err != nil {
		return nil, fmt.Errorf("ckks: building key-switch context: %w", err)
	}

	fftCtx, err := fft.New(degree)
	if err != nil {
		return nil, fmt.Errorf("ckks: building fft context: %w", err)
	}

	scalingFactorBits := lit.ScalingFactorBits
	if scalingFactorBits == 0 {
		scalingFactorBits = lit.PrimeSize
	}

	return &Parameters{
		Degree:           degree,
		Slots:            degree / 2,
		ScalingFactor:    float64(int64(1) << uint(scalingFactorBits)),
		HammingWeight:    lit.HammingWeight,
		TaylorIterations: lit.TaylorIterations,
		RNS:              lit.RNS,
		Primes:           scalingPrimes,
		LevelContexts:    levelContexts,
		SpecialModulus:   new(big.Int).Set(special),
		KeySwitchContext: keySwitchCtx,
		FFTContext:       fftCtx,
	}, nil
}
