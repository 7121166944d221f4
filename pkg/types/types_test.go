package types

import "testing"

func TestSumConcatDeterministic(t *testing.T) {
	a := Sum([]byte("a"))
	b := Sum([]byte("b"))
	h1 := SumConcat(a, b)
	h2 := SumConcat(a, b)
	if h1 != h2 {
		t.Fatalf("SumConcat not deterministic")
	}
	if h1 == SumConcat(b, a) {
		t.Fatalf("SumConcat should not be order-independent")
	}
}

func TestHashParseRoundTrip(t *testing.T) {
	h := Sum([]byte("hello"))
	parsed, err := ParseHash(h.String())
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != h {
		t.Fatalf("round trip mismatch: %s != %s", parsed, h)
	}
}

func TestParseHashRejectsBadLength(t *testing.T) {
	if _, err := ParseHash("abcd"); err == nil {
		t.Fatalf("expected error for short hash")
	}
}

func TestNewAddressValidation(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"tc1abcdefgh", false},
		{"", true},                                                // too short
		{string(make([]byte, MaxAddressLen+1)), true},             // too long
		{"has space", true},                                       // whitespace
		{"tab\there", true},                                       // whitespace
	}
	for _, c := range cases {
		_, err := NewAddress(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("NewAddress(%q): err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
	}
}

func TestAddressFromPubKeyDeterministic(t *testing.T) {
	pk := []byte{1, 2, 3, 4}
	a1 := AddressFromPubKey(pk)
	a2 := AddressFromPubKey(pk)
	if a1 != a2 {
		t.Fatalf("AddressFromPubKey not deterministic")
	}
	if _, err := NewAddress(a1.String()); err != nil {
		t.Fatalf("derived address failed validation: %v", err)
	}
}

func TestAmountArithmetic(t *testing.T) {
	sum, err := AddAmount(10, 20)
	if err != nil || sum != 30 {
		t.Fatalf("AddAmount(10,20) = %v, %v", sum, err)
	}
	if _, err := AddAmount(MaxAmount, 1); err == nil {
		t.Fatalf("expected overflow error")
	}
	diff, err := SubAmount(30, 10)
	if err != nil || diff != 20 {
		t.Fatalf("SubAmount(30,10) = %v, %v", diff, err)
	}
	if _, err := SubAmount(10, 30); err == nil {
		t.Fatalf("expected underflow error")
	}
}
