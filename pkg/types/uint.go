package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// UInt is an arbitrary-precision non-negative integer used for the 256-bit
// amount/fee/difficulty fields and the 128-bit nonce field. A single type
// backs all of them: Go has no native fixed-width type that size, and the
// domain only ever needs non-negative values and decimal (de)serialization.
type UInt struct {
	v big.Int
}

// Zero is the additive identity.
var Zero = UInt{}

// NewUInt wraps a uint64 as a UInt.
func NewUInt(x uint64) UInt {
	var u UInt
	u.v.SetUint64(x)
	return u
}

// ParseUInt parses a base-10 string into a UInt. Negative values are rejected.
func ParseUInt(s string) (UInt, error) {
	var u UInt
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return u, fmt.Errorf("invalid unsigned integer %q", s)
	}
	if bi.Sign() < 0 {
		return u, fmt.Errorf("unsigned integer %q is negative", s)
	}
	u.v = *bi
	return u, nil
}

// UIntFromBigInt copies a big.Int into a UInt. Negative values are rejected.
func UIntFromBigInt(b *big.Int) (UInt, error) {
	var u UInt
	if b.Sign() < 0 {
		return u, fmt.Errorf("unsigned integer from negative big.Int")
	}
	u.v = *new(big.Int).Set(b)
	return u, nil
}

// BigInt returns a copy of the underlying value.
func (u UInt) BigInt() *big.Int {
	return new(big.Int).Set(&u.v)
}

// Add returns u + o.
func (u UInt) Add(o UInt) UInt {
	var r UInt
	r.v.Add(&u.v, &o.v)
	return r
}

// Sub returns u - o and true, or the zero value and false if the result
// would be negative.
func (u UInt) Sub(o UInt) (UInt, bool) {
	var r UInt
	r.v.Sub(&u.v, &o.v)
	if r.v.Sign() < 0 {
		return UInt{}, false
	}
	return r, true
}

// Cmp compares u and o: -1 if u<o, 0 if equal, 1 if u>o.
func (u UInt) Cmp(o UInt) int {
	return u.v.Cmp(&o.v)
}

// GreaterOrEqual reports whether u >= o.
func (u UInt) GreaterOrEqual(o UInt) bool {
	return u.Cmp(o) >= 0
}

// IsZero reports whether u is zero.
func (u UInt) IsZero() bool {
	return u.v.Sign() == 0
}

// String returns the base-10 representation.
func (u UInt) String() string {
	return u.v.String()
}

// Uint64 returns the value truncated to uint64 (callers must ensure it fits).
func (u UInt) Uint64() uint64 {
	return u.v.Uint64()
}

// MarshalJSON encodes the value as a decimal-string JSON value (256-bit
// integers don't fit in a JSON number without precision loss in most
// consumers, so we follow the wider ecosystem convention of quoting it).
func (u UInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.v.String())
}

// UnmarshalJSON decodes a decimal-string JSON value.
func (u *UInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUInt(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalCBOR encodes the value as a CBOR text string, same decimal
// representation as MarshalJSON. UInt's only field is an unexported
// big.Int, so without this the default struct encoding would drop it.
func (u UInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(u.v.String())
}

// UnmarshalCBOR decodes a CBOR text string produced by MarshalCBOR.
func (u *UInt) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUInt(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
