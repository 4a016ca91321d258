package utilring

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	rb := New(8)
	data := []byte("hello")
	if n, err := rb.Write(data); err != nil || n != len(data) {
		t.Fatalf("Write: got (%d, %v)", n, err)
	}
	dst := make([]byte, 5)
	n, err := rb.Read(dst)
	if err != nil || n != 5 || string(dst) != "hello" {
		t.Fatalf("Read: got (%q, %d, %v)", dst[:n], n, err)
	}
}

func TestReadAllowsPartial(t *testing.T) {
	rb := New(8)
	rb.Write([]byte("ab"))
	dst := make([]byte, 4)
	n, err := rb.Read(dst)
	if err != nil || n != 2 {
		t.Fatalf("Read partial: got (%d, %v), want (2, nil)", n, err)
	}
}

func TestWriteDropCountsDropped(t *testing.T) {
	rb := New(4)
	n := rb.WriteDrop([]byte{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("WriteDrop wrote %d, want 4", n)
	}
	if d := rb.Dropped(); d != 2 {
		t.Errorf("Dropped() = %d, want 2", d)
	}
}

func TestEmptyReadReturnsInsufficientData(t *testing.T) {
	rb := New(4)
	_, err := rb.Read(make([]byte, 1))
	if err != ErrInsufficientData {
		t.Errorf("Read on empty buffer: got %v, want ErrInsufficientData", err)
	}
}
