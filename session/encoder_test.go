package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodePreservesCookies(t *testing.T) {
	in := &Blob{
		Origin:  "https://api.example.com",
		SavedAt: 1700000000,
		Cookies: []Cookie{
			{Name: "sid", Value: "abc", Path: "/", Domain: "api.example.com", Expires: 1800000000, Secure: true, HTTPOnly: true, SameSite: 3},
			{Name: "pref", Value: "", Path: "/api"},
		},
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTruncatedAndUnknownVersion(t *testing.T) {
	data, err := Encode(&Blob{Origin: "https://api.example.com", Cookies: []Cookie{{Name: "sid", Value: "v"}}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	for i := 0; i < len(data); i++ {
		if _, err := Decode(data[:i]); !errors.Is(err, ErrCorruptBlob) {
			t.Fatalf("truncated at %d: expected ErrCorruptBlob, got %v", i, err)
		}
	}

	bad := append([]byte(nil), data...)
	bad[0] = 9
	if _, err := Decode(bad); !errors.Is(err, ErrCorruptBlob) {
		t.Fatalf("expected ErrCorruptBlob for unknown version, got %v", err)
	}

	trailing := append(append([]byte(nil), data...), 0)
	if _, err := Decode(trailing); !errors.Is(err, ErrCorruptBlob) {
		t.Fatalf("expected ErrCorruptBlob for trailing bytes, got %v", err)
	}
}

func TestEncodeRejectsOversizedName(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Encode(&Blob{Cookies: []Cookie{{Name: string(long)}}})
	if !errors.Is(err, ErrBlobTooLarge) {
		t.Fatalf("expected ErrBlobTooLarge, got %v", err)
	}
}
