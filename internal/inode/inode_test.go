package inode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := New(TypeDir, 4)
	in.Size = 3
	in.Data[0] = 42
	in.Data[1] = 43

	b, err := in.Encode(8 + 4*4)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(b, 4)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLittleEndianMagicBytes(t *testing.T) {
	in := New(TypeFile, 1)
	in.Size = 0x01020304
	b, err := in.Encode(12)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if diff := cmp.Diff(want, b[0:4]); diff != "" {
		t.Errorf("size encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestIsZero(t *testing.T) {
	in := New(TypeFile, 2)
	if !in.IsZero() {
		t.Fatalf("freshly-created inode should be zero")
	}
	in.Size = 1
	if in.IsZero() {
		t.Fatalf("inode with size set should not be zero")
	}
}

func TestEncodeWrongDataLength(t *testing.T) {
	in := New(TypeFile, 4)
	if _, err := in.Encode(8 + 4*2); err == nil {
		t.Fatalf("expected error encoding with mismatched record size")
	}
}
