// Package classifier defines the contracts for the external ML collaborators
// and an HTTP client for a remote inference service. Models are trained and
// served elsewhere; this package never loads model artifacts.
package classifier

import (
	"context"
)

// ImagePrediction is the two-stage output of the image pipeline: a domain
// classifier picks the body-area domain, then a per-domain model picks the
// condition label. Confidences are percentages in [0, 100].
type ImagePrediction struct {
	Domain           string  `json:"domain"`
	DomainConfidence float64 `json:"domain_confidence"`
	Label            string  `json:"label"`
	Confidence       float64 `json:"confidence"`
}

// RankedPrediction is one entry of the symptom model's ranked output.
type RankedPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ImageClassifier scores a medical image. Deterministic for identical model
// artifacts and input bytes.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, data []byte, contentType string) (*ImagePrediction, error)
}

// SymptomClassifier scores a binary symptom presence vector and returns the
// top predictions, best first. Implementations return exactly TopK entries.
type SymptomClassifier interface {
	ClassifySymptoms(ctx context.Context, vector []int) ([]RankedPrediction, error)
}

// TopK is the fixed length of the symptom model's ranked output.
const TopK = 3
