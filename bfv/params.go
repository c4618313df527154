// Package bfv implements the Brakerski/Fan-Vercauteren scheme for exact
// integer arithmetic on encrypted data modulo a plaintext modulus t, built
// on the ring package's negacyclic polynomial arithmetic. Grounded on the
// reference bfv_parameters.py/bfv_key_generator.py/bfv_encryptor.py/
// bfv_decryptor.py/bfv_evaluator.py and structured the way the teacher
// layers its bfv package on top of core/rlwe and ring.
package bfv

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring/crt"
	"github.com/sarojaerabelli/go-fhe/ring/fft"
	"github.com/sarojaerabelli/go-fhe/ring/ntt"
)

// ErrInvalidParameter is returned for malformed parameter literals.
var ErrInvalidParameter = errors.New("bfv: invalid parameter")

// ParametersLiteral is the plain-data description of a BFV parameter set,
// suitable for YAML round-tripping via gopkg.in/yaml.v3 the way the
// teacher's ParametersLiteral types are.
type ParametersLiteral struct {
	LogDegree              int    `yaml:"log_degree"`
	PlaintextModulus       int64  `yaml:"plaintext_modulus"`
	CiphertextModulusBits  int    `yaml:"ciphertext_modulus_bits"`
	HammingWeight          int    `yaml:"hamming_weight"`
	RelinBase              int64  `yaml:"relin_base"`
	IncludeEncryptionNoise bool   `yaml:"include_encryption_noise"`
}

// Parameters is the resolved, immutable BFV parameter set: it owns the
// NTT context used for plaintext/ciphertext arithmetic and the derived
// constants (Δ = floor(Q/T)) every BFV operation needs.
type Parameters struct {
	Degree                 int
	PlaintextModulus       *big.Int
	CiphertextModulus      *big.Int
	Delta                  *big.Int // floor(Q/T)
	HammingWeight          int
	RelinBase              int64
	IncludeEncryptionNoise bool

	NTTContext *ntt.Context
	CRTContext *crt.Context // the degree-1 RNS base the ciphertext modulus was found with
	FFTContext *fft.Context // used by Evaluator.Multiply's three-term ciphertext product
}

// NewParameters resolves a ParametersLiteral into a Parameters, searching
// for an NTT-friendly ciphertext modulus of approximately
// CiphertextModulusBits bits congruent to 1 mod 2*degree.
func NewParameters(lit ParametersLiteral) (*Parameters, error) {
	if lit.LogDegree <= 0 {
		return nil, fmt.Errorf("%w: log_degree must be positive", ErrInvalidParameter)
	}
	degree := 1 << lit.LogDegree
	if lit.PlaintextModulus <= 1 {
		return nil, fmt.Errorf("%w: plaintext_modulus must be > 1", ErrInvalidParameter)
	}
	if lit.HammingWeight <= 0 || lit.HammingWeight > degree {
		return nil, fmt.Errorf("%w: hamming_weight must be in (0, degree]", ErrInvalidParameter)
	}

	ctx, err := crt.New(degree, lit.CiphertextModulusBits, 1)
	if err != nil {
		return nil, fmt.Errorf("bfv: finding ciphertext modulus: %w", err)
	}
	q := ctx.Primes[0]

	t := big.NewInt(lit.PlaintextModulus)
	delta := new(big.Int).Div(q, t)

	relinBase := lit.RelinBase
	if relinBase == 0 {
		// Default base B = ceil(sqrt(q)).
		root := new(big.Int).Sqrt(q)
		if new(big.Int).Mul(root, root).Cmp(q) != 0 {
			root.Add(root, big.NewInt(1))
		}
		relinBase = root.Int64()
	}

	fftCtx, err := fft.New(degree)
	if err != nil {
		return nil, fmt.Errorf("bfv: building fft context: %w", err)
	}

	params := &Parameters{
		Degree:                 degree,
		PlaintextModulus:       t,
		CiphertextModulus:      q,
		Delta:                  delta,
		HammingWeight:          lit.HammingWeight,
		RelinBase:              relinBase,
		IncludeEncryptionNoise: lit.IncludeEncryptionNoise,
		NTTContext:             ctx.NTTContexts[0],
		CRTContext:             ctx,
		FFTContext:             fftCtx,
	}
	return params, nil
}
