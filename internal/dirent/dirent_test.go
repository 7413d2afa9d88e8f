package dirent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := &Dirent{Name: "file-1", Inode: 7}
	b, err := d.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeTooLong(t *testing.T) {
	d := &Dirent{Name: "this-name-is-definitely-too-long", Inode: 1}
	if _, err := d.Encode(); err == nil {
		t.Fatalf("expected error for over-long name")
	}
}

func TestIsLegalName(t *testing.T) {
	cases := map[string]bool{
		"":             false,
		"file-1":       true,
		"a.b_c-D9":     true,
		"has/slash":    false,
		"has space":    false,
		"toolongtoolongtoolong": false,
	}
	for name, want := range cases {
		if got := IsLegalName(name); got != want {
			t.Errorf("IsLegalName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(&Dirent{}).IsZero() {
		t.Fatalf("zero-value dirent should report IsZero")
	}
	if (&Dirent{Name: "x"}).IsZero() {
		t.Fatalf("named dirent should not report IsZero")
	}
}
