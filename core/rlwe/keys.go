// Package rlwe holds the key and ciphertext material shared by the BFV and
// CKKS scheme layers: secret/public keys, switching keys (BFV's
// digit-decomposition version and CKKS's special-modulus version), rotation
// and conjugation keys, and the plain RLWE ciphertext/plaintext containers
// both schemes build their evaluator logic on top of. Grounded on the
// teacher's core/rlwe package, which plays the identical unifying role
// between its bfv and ckks packages.
package rlwe

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarojaerabelli/go-fhe/ring"
)

// ErrInvalidParameter is returned for malformed key-material construction.
var ErrInvalidParameter = errors.New("rlwe: invalid parameter")

// SecretKey wraps the single ring element s in an RLWE secret key.
type SecretKey struct {
	Value ring.Element
}

// NewSecretKey wraps a sampled ring element as a SecretKey.
func NewSecretKey(s ring.Element) *SecretKey {
	return &SecretKey{Value: s}
}

// PublicKey is the RLWE encryption key pair (b, a) with b = -a*s + e.
type PublicKey struct {
	B ring.Element
	A ring.Element
}

// NewPublicKey constructs a PublicKey from its two components.
func NewPublicKey(b, a ring.Element) *PublicKey {
	return &PublicKey{B: b, A: a}
}

// SwitchingKeyVersion1 is BFV's digit-decomposition relinearization key: one
// (b_i, a_i) pair per base-B digit position, pair i encrypting B^i*s^2, so
// key-switching an element means decomposing it into base-B digits and
// taking an inner product with the pairs.
type SwitchingKeyVersion1 struct {
	Base       int64
	DigitCount int
	B          []ring.Element
	A          []ring.Element
}

// NewSwitchingKeyVersion1 builds a version-1 switching key from its
// per-digit (b, a) pairs.
func NewSwitchingKeyVersion1(base int64, b, a []ring.Element) (*SwitchingKeyVersion1, error) {
	if len(b) != len(a) {
		return nil, fmt.Errorf("%w: b has %d entries, a has %d", ErrInvalidParameter, len(b), len(a))
	}
	return &SwitchingKeyVersion1{Base: base, DigitCount: len(b), B: b, A: a}, nil
}

// SwitchingKeyVersion2 is CKKS's special-modulus switching key: a single
// (b, a) pair used for relinearization, rotation, and conjugation alike by
// swapping in the appropriate "new" secret key and source term at
// generation time, scaled by the special-modulus factor P so that dividing
// the key-switched term by P at use time rounds away the bulk of the
// switching noise.
type SwitchingKeyVersion2 struct {
	B ring.Element
	A ring.Element
	P *big.Int
}

// NewSwitchingKeyVersion2 builds a version-2 switching key.
func NewSwitchingKeyVersion2(b, a ring.Element, p *big.Int) *SwitchingKeyVersion2 {
	return &SwitchingKeyVersion2{B: b, A: a, P: new(big.Int).Set(p)}
}

// RotationKey is a SwitchingKeyVersion2 keyed by the rotation amount it
// switches toward, so an Evaluator can look one up per requested rotation.
type RotationKey struct {
	Rotation int
	Key      *SwitchingKeyVersion2
}

// ConjugationKey is the single SwitchingKeyVersion2 for the x -> x^-1
// automorphism.
type ConjugationKey struct {
	Key *SwitchingKeyVersion2
}

// KeySet bundles every key a party may hold for one RLWE instance: the
// secret key (if this party holds one), the public encryption key, an
// optional relinearization key, and any generated rotation/conjugation
// keys. BFV uses Relin1; CKKS uses Relin2 and Rotations/Conjugation.
type KeySet struct {
	Secret      *SecretKey
	Public      *PublicKey
	Relin1      *SwitchingKeyVersion1
	Relin2      *SwitchingKeyVersion2
	Rotations   map[int]*RotationKey
	Conjugation *ConjugationKey
}

// NewKeySet returns an empty KeySet with its Rotations map initialized.
func NewKeySet() *KeySet {
	return &KeySet{Rotations: make(map[int]*RotationKey)}
}

// Ciphertext is a degree-(len(Value)-1) RLWE ciphertext: Value[0] + Value[1]*s
// + Value[2]*s^2 + ... decrypts under secret key s. Scale is the CKKS
// scaling factor Δ the plaintext was encoded at (BFV leaves it at 1).
type Ciphertext struct {
	Value []ring.Element
	Scale float64
	Level int // index into the modulus chain, decreasing as rescale/mod-switch runs
}

// NewCiphertext wraps a fresh ciphertext's component polynomials.
func NewCiphertext(value []ring.Element, scale float64, level int) *Ciphertext {
	return &Ciphertext{Value: value, Scale: scale, Level: level}
}

// Degree returns the ciphertext's degree (1 for a fresh linear ciphertext, 2
// after a multiply and before relinearization).
func (c *Ciphertext) Degree() int {
	return len(c.Value) - 1
}

// Plaintext is an encoded-but-not-yet-encrypted ring element, carrying the
// same Scale/Level bookkeeping a Ciphertext does so Encryptor can encrypt
// it at its own level and tag the ciphertext with its scale.
type Plaintext struct {
	Value ring.Element
	Scale float64
	Level int
}

// NewPlaintext wraps an encoded ring element.
func NewPlaintext(value ring.Element, scale float64, level int) *Plaintext {
	return &Plaintext{Value: value, Scale: scale, Level: level}
}
