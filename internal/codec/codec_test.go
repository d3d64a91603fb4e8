package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestBase64RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x00},
		{0xff, 0x00, 0xab},
		bytes.Repeat([]byte{0x5a}, 32),
	}
	for _, in := range cases {
		out, err := FromBase64(ToBase64(in))
		if err != nil {
			t.Fatalf("FromBase64: %v", err)
		}
		if !bytes.Equal(out, in) && len(in) != 0 {
			t.Fatalf("round trip mismatch: %x != %x", out, in)
		}
		if len(in) == 0 && len(out) != 0 {
			t.Fatalf("empty input round-tripped to %x", out)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	in := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x7f}
	s := ToHex(in)
	if s != strings.ToLower(s) {
		t.Fatalf("hex output not lowercase: %q", s)
	}
	if strings.ContainsAny(s, " :-") {
		t.Fatalf("hex output has separators: %q", s)
	}
	out, err := FromHex(s)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("round trip mismatch: %x != %x", out, in)
	}
}

func TestConcat(t *testing.T) {
	got := Concat([]byte{1, 2}, nil, []byte{3}, []byte{}, []byte{4, 5})
	want := []byte{1, 2, 3, 4, 5}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(Concat()) != 0 {
		t.Fatal("empty concat should be empty")
	}
}
