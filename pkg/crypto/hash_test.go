package crypto

import (
	"testing"
)

func TestHash_EmptyInputKnownVector(t *testing.T) {
	got := Hash([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got.String() != want {
		t.Errorf("Hash([]byte{}) = %s, want %s", got, want)
	}
}

func TestHash_Deterministic(t *testing.T) {
	data := []byte("deterministic test input")
	h1 := Hash(data)
	h2 := Hash(data)
	if h1 != h2 {
		t.Errorf("Hash is not deterministic: %s != %s", h1, h2)
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	h1 := Hash([]byte("input A"))
	h2 := Hash([]byte("input B"))
	if h1 == h2 {
		t.Error("different inputs produced the same hash")
	}
}

func TestHash_EmptyIsNotTheEmptySentinel(t *testing.T) {
	// Hash([]byte{}) is a real SHA-256 digest, not types.Hash's
	// "before genesis" empty-string sentinel.
	h := Hash([]byte{})
	if h.IsEmpty() {
		t.Error("SHA-256 of empty input should not equal the empty sentinel")
	}
}

func TestHashConcat(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))
	result := HashConcat(a, b)

	if result.IsEmpty() {
		t.Error("HashConcat returned the empty sentinel")
	}

	reversed := HashConcat(b, a)
	if result == reversed {
		t.Error("HashConcat(a,b) should differ from HashConcat(b,a)")
	}

	again := HashConcat(a, b)
	if result != again {
		t.Error("HashConcat is not deterministic")
	}
}

func TestHashConcat_EqualsTextualConcat(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))

	want := Hash([]byte(a.String() + b.String()))
	got := HashConcat(a, b)
	if got != want {
		t.Errorf("HashConcat = %s, want %s", got, want)
	}
}

func TestHashConcat_DistinctFromByteConcat(t *testing.T) {
	// Guards against accidentally switching HashConcat to decode-then-concat
	// raw bytes instead of concatenating hex text, which would silently
	// change every merkle root and header digest in the chain.
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))
	aBytes, err := a.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	bBytes, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	byteConcat := Hash(append(append([]byte{}, aBytes...), bBytes...))
	if HashConcat(a, b) == byteConcat {
		t.Error("HashConcat must hash the textual form, not raw byte concatenation")
	}
}
