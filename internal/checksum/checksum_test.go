package checksum

import "testing"

func TestSumStable(t *testing.T) {
	if Sum([]byte("abc")) != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected digest %s", Sum([]byte("abc")))
	}
}

func TestDocumentIgnoresKeyOrderAndNumericType(t *testing.T) {
	a, err := Document(map[string]any{"b": 3, "a": "x"})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	b, err := Document(map[string]any{"a": "x", "b": float64(3)})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if a != b {
		t.Errorf("digests differ: %s vs %s", a, b)
	}
}
