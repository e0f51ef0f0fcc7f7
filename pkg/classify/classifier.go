// Package classify labels car photos through a vision model backend and
// accepts or rejects the answer against a confidence threshold.
package classify

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/car-studio/pkg/client"
	"github.com/menta2k/car-studio/pkg/types"
)

// DefaultThreshold is the minimum confidence for an accepted label
const DefaultThreshold = 0.8

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt is the default prompt for car image classification
const DefaultPrompt = `You are a vehicle photo classifier.

Return JSON only:
{"label": "string", "confidence": 0.0}

RULES
- label: the single best category for the photo, lowercase, one or two words.
- confidence: your certainty in [0,1].
- If the image does not show a vehicle, use label "none" with confidence 0.0.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Classifier handles image classification using vision models
type Classifier struct {
	client    client.VisionClient
	threshold float64
	labels    []string
}

// Option customizes a Classifier
type Option func(*Classifier)

// WithThreshold sets the acceptance threshold
func WithThreshold(threshold float64) Option {
	return func(c *Classifier) { c.threshold = threshold }
}

// WithLabels restricts answers to a fixed label set. Labels outside the set
// are reported as unknown.
func WithLabels(labels ...string) Option {
	return func(c *Classifier) {
		c.labels = c.labels[:0]
		for _, l := range labels {
			c.labels = append(c.labels, normalizeLabel(l))
		}
	}
}

// New creates a new classifier with a vision client
func New(vc client.VisionClient, opts ...Option) (*Classifier, error) {
	c := &Classifier{client: vc, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(c)
	}
	if vc == nil {
		return nil, fmt.Errorf("%w: vision client is required", types.ErrInvalidParameter)
	}
	if math.IsNaN(c.threshold) || c.threshold < 0 || c.threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 1, got %v", types.ErrInvalidParameter, c.threshold)
	}
	return c, nil
}

// Prompt returns the prompt sent with every image
func (c *Classifier) Prompt() string {
	if len(c.labels) == 0 {
		return DefaultPrompt
	}
	return DefaultPrompt + "\n- label must be one of: " + strings.Join(c.labels, ", ") + "."
}

// Classify labels an image and decides whether the answer is accepted
func (c *Classifier) Classify(ctx context.Context, model, imageB64 string) (*types.Classification, error) {
	result, err := c.client.Classify(ctx, model, c.Prompt(), imageB64)
	if err != nil {
		return nil, err
	}

	label := normalizeLabel(result.Label)
	if label == "" || (len(c.labels) > 0 && !c.known(label)) {
		label = client.UnknownLabel
	}
	confidence := clamp(result.Confidence, 0, 1)
	if label == client.UnknownLabel || label == "none" {
		confidence = 0
	}

	return &types.Classification{
		Label:      label,
		Confidence: confidence,
		Accepted:   confidence > 0 && confidence >= c.threshold,
	}, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (c *Classifier) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return c.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

func (c *Classifier) known(label string) bool {
	for _, l := range c.labels {
		if l == label {
			return true
		}
	}
	return false
}

// normalizeLabel lowercases, trims punctuation and collapses separators
func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, ".,;:!?\"'`")
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
