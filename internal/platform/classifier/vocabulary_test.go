package classifier

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVocabularyEncode(t *testing.T) {
	v := NewVocabulary([]string{"headache", "nausea", "chills"})

	got := v.Encode([]string{"chills", "headache"})
	want := []int{1, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("vector length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vector %v, want %v", got, want)
		}
	}

	// Unknown symptoms are dropped from the encoding.
	got = v.Encode([]string{"nausea", "quantum_flu"})
	if got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Errorf("vector %v", got)
	}
}

func TestVocabularyKnown(t *testing.T) {
	v := NewVocabulary([]string{"headache", "nausea"})

	if !v.Known([]string{"quantum_flu", "nausea"}) {
		t.Error("one recognized symptom is enough")
	}
	if v.Known([]string{"quantum_flu"}) {
		t.Error("all-unknown input must not be known")
	}
	if v.Len() != 2 {
		t.Errorf("len %d", v.Len())
	}
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symptoms.csv")
	content := "symptom\nheadache\nnausea\n\nchills\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if v.Len() != 3 {
		t.Fatalf("expected 3 symptoms after skipping header and blanks, got %d", v.Len())
	}
	if got := v.Encode([]string{"headache"}); got[0] != 1 {
		t.Errorf("header row must not shift positions: %v", got)
	}
}

func TestLoadVocabulary_Errors(t *testing.T) {
	if _, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(empty, []byte("symptom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadVocabulary(empty); err == nil {
		t.Error("expected error for header-only file")
	}
}
