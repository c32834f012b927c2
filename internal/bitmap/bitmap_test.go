package bitmap

import "testing"

func TestSetClearTestRoundTrip(t *testing.T) {
	bm := New()
	if bm.Test(5) {
		t.Fatalf("expected bit 5 clear on a new bitmap")
	}
	bm.Set(5)
	if !bm.Test(5) {
		t.Fatalf("expected bit 5 set after Set")
	}
	bm.Clear(5)
	if bm.Test(5) {
		t.Fatalf("expected bit 5 clear after Clear")
	}
}

func TestFindFirstZeroLowestIndex(t *testing.T) {
	bm := New()
	bm.Set(0)
	bm.Set(1)
	bm.Set(3)
	idx, ok := bm.FindFirstZero(32)
	if !ok {
		t.Fatalf("expected a free bit")
	}
	if idx != 2 {
		t.Fatalf("expected lowest free index 2, got %d", idx)
	}
}

func TestFindFirstZeroRespectsLimit(t *testing.T) {
	bm := New()
	for i := uint(0); i < 4; i++ {
		bm.Set(i)
	}
	if _, ok := bm.FindFirstZero(4); ok {
		t.Fatalf("expected no free bit below limit 4 when bits [0,4) are all set")
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	bm := New()
	bm.Set(0)
	bm.Set(17)
	bm.Set(4095)

	b := bm.ToBytes()
	if len(b) != Size/8 {
		t.Fatalf("expected %d bytes, got %d", Size/8, len(b))
	}
	if b[0]&0x01 == 0 {
		t.Fatalf("expected bit 0 set in byte 0")
	}

	bm2, err := FromBytes(b)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	for _, i := range []uint{0, 17, 4095} {
		if !bm2.Test(i) {
			t.Fatalf("expected bit %d set after round trip", i)
		}
	}
	if bm2.Test(1) {
		t.Fatalf("expected bit 1 clear after round trip")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	bm := New()
	bm.Set(10)
	clone := bm.Clone()
	clone.Set(11)
	if bm.Test(11) {
		t.Fatalf("mutating the clone must not affect the original")
	}
	if !clone.Test(10) {
		t.Fatalf("clone must carry over bits set before Clone")
	}
}
