package types

import "testing"

func TestUInt_AddSub(t *testing.T) {
	a := NewUInt(10)
	b := NewUInt(3)
	if got := a.Add(b); got.Cmp(NewUInt(13)) != 0 {
		t.Fatalf("Add: got %s want 13", got)
	}
	sum, ok := a.Sub(b)
	if !ok {
		t.Fatalf("Sub should succeed")
	}
	if sum.Cmp(NewUInt(7)) != 0 {
		t.Fatalf("Sub: got %s want 7", sum)
	}
}

func TestUInt_SubUnderflow(t *testing.T) {
	a := NewUInt(3)
	b := NewUInt(10)
	if _, ok := a.Sub(b); ok {
		t.Fatalf("Sub should report underflow")
	}
}

func TestUInt_ParseRoundTrip(t *testing.T) {
	u, err := ParseUInt("123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ParseUInt: %v", err)
	}
	if u.String() != "123456789012345678901234567890" {
		t.Fatalf("got %s", u.String())
	}
}

func TestUInt_ParseRejectsNegative(t *testing.T) {
	if _, err := ParseUInt("-1"); err == nil {
		t.Fatalf("expected error for negative value")
	}
}

func TestUInt_ParseRejectsGarbage(t *testing.T) {
	if _, err := ParseUInt("not-a-number"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestUInt_JSONRoundTrip(t *testing.T) {
	u := NewUInt(42)
	data, err := u.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != `"42"` {
		t.Fatalf("got %s want \"42\"", data)
	}
	var out UInt
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out.Cmp(u) != 0 {
		t.Fatalf("round trip mismatch")
	}
}

func TestUInt_IsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatalf("Zero should be zero")
	}
	if NewUInt(1).IsZero() {
		t.Fatalf("non-zero value reported as zero")
	}
}

func TestUInt_GreaterOrEqual(t *testing.T) {
	if !NewUInt(5).GreaterOrEqual(NewUInt(5)) {
		t.Fatalf("5 >= 5 should hold")
	}
	if NewUInt(4).GreaterOrEqual(NewUInt(5)) {
		t.Fatalf("4 >= 5 should not hold")
	}
}
