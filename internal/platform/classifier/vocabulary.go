package classifier

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Vocabulary is the fixed, ordered symptom feature list the symptom model
// was trained on. Encoding is position-sensitive: the model's input vector
// must follow the training order exactly.
type Vocabulary struct {
	symptoms []string
	index    map[string]int
}

// LoadVocabulary reads a one-column CSV of symptom names, skipping a header
// row when present.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symptom vocabulary %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read symptom vocabulary %s: %w", path, err)
	}

	var symptoms []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		if i == 0 && strings.EqualFold(name, "symptom") {
			continue
		}
		symptoms = append(symptoms, name)
	}
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("symptom vocabulary %s is empty", path)
	}
	return NewVocabulary(symptoms), nil
}

func NewVocabulary(symptoms []string) *Vocabulary {
	index := make(map[string]int, len(symptoms))
	for i, s := range symptoms {
		index[s] = i
	}
	return &Vocabulary{symptoms: symptoms, index: index}
}

// Encode returns the binary presence vector for the given symptoms.
// Unknown symptoms are ignored, matching the original encoding.
func (v *Vocabulary) Encode(symptoms []string) []int {
	vector := make([]int, len(v.symptoms))
	for _, s := range symptoms {
		if i, ok := v.index[s]; ok {
			vector[i] = 1
		}
	}
	return vector
}

// Known reports whether at least one of the given symptoms is in the
// vocabulary.
func (v *Vocabulary) Known(symptoms []string) bool {
	for _, s := range symptoms {
		if _, ok := v.index[s]; ok {
			return true
		}
	}
	return false
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int { return len(v.symptoms) }
