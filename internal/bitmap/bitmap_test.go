package bitmap

import "testing"

func TestSetClearIsSet(t *testing.T) {
	bm := FromBytes(make([]byte, 2))
	if set, _ := bm.IsSet(3); set {
		t.Fatalf("bit 3 should start clear")
	}
	if err := bm.Set(3); err != nil {
		t.Fatal(err)
	}
	if set, _ := bm.IsSet(3); !set {
		t.Fatalf("bit 3 should be set")
	}
	if err := bm.Clear(3); err != nil {
		t.Fatal(err)
	}
	if set, _ := bm.IsSet(3); set {
		t.Fatalf("bit 3 should be clear again")
	}
}

func TestFirstUnusedLSBFirst(t *testing.T) {
	bm := FromBytes(make([]byte, 1))
	if err := bm.Set(0); err != nil {
		t.Fatal(err)
	}
	if got := bm.FirstUnused(); got != 1 {
		t.Fatalf("first unused = %d, want 1", got)
	}
}

func TestFirstUnusedFull(t *testing.T) {
	bm := FromBytes([]byte{0xff, 0xff})
	if got := bm.FirstUnused(); got != -1 {
		t.Fatalf("first unused of full bitmap = %d, want -1", got)
	}
}

func TestPopCount(t *testing.T) {
	bm := FromBytes([]byte{0x0f, 0x01})
	if got := bm.PopCount(); got != 5 {
		t.Fatalf("popcount = %d, want 5", got)
	}
}
