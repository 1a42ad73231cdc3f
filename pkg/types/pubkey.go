package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// PubKeySize is the length of a compressed SEC1 secp256k1 public key.
const PubKeySize = 33

// PubKey is a compressed SEC1 public key. It doubles as the account
// identifier in the ledger — there are no derived addresses in this model.
type PubKey [PubKeySize]byte

// IsZero reports whether pk is the zero value (no key).
func (pk PubKey) IsZero() bool {
	return pk == PubKey{}
}

// Bytes returns a copy of the compressed key.
func (pk PubKey) Bytes() []byte {
	b := make([]byte, PubKeySize)
	copy(b, pk[:])
	return b
}

// String returns the hex-encoded compressed key.
func (pk PubKey) String() string {
	return hex.EncodeToString(pk[:])
}

// PubKeyFromBytes copies b into a PubKey. b must be exactly PubKeySize bytes.
func PubKeyFromBytes(b []byte) (PubKey, error) {
	var pk PubKey
	if len(b) != PubKeySize {
		return pk, fmt.Errorf("public key must be %d bytes, got %d", PubKeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// PubKeyFromHex decodes a hex string into a PubKey.
func PubKeyFromHex(s string) (PubKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PubKey{}, fmt.Errorf("invalid pubkey hex: %w", err)
	}
	return PubKeyFromBytes(b)
}

// MarshalJSON encodes the key as a hex string.
func (pk PubKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON decodes a hex string into a key.
func (pk *PubKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := PubKeyFromHex(s)
	if err != nil {
		return err
	}
	*pk = decoded
	return nil
}
