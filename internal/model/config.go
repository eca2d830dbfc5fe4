package model

import "fmt"

// Defaults for the recognized grading options.
const (
	DefaultTolerance              = 0.1
	DefaultSimilarityThreshold    = 0.8
	DefaultFullCreditThreshold    = 0.8
	DefaultPartialCreditThreshold = 0.6
)

// Config holds runtime grading parameters. A Config is passed explicitly
// into each grading run; it is never ambient state, so parallel batch
// grading stays safe.
type Config struct {
	// Tolerance is the default numeric tolerance for questions that do
	// not carry their own.
	Tolerance float64
	// SimilarityThreshold is the default full-credit threshold for text
	// questions that do not carry their own.
	SimilarityThreshold float64
	// PartialCredit enables the half-credit tier for formula answers.
	// When false, formula grading is binary at FullCreditThreshold.
	PartialCredit bool
	// FullCreditThreshold and PartialCreditThreshold bound the formula
	// credit tiers.
	FullCreditThreshold    float64
	PartialCreditThreshold float64
	// PointCurve assigns estimated max points by position in the
	// assignment: first third, middle third, last third. Must be
	// non-decreasing.
	PointCurve []float64
	// PointValues overrides estimated max points per question id.
	PointValues map[string]float64
	// Workers caps the number of students graded concurrently.
	// Zero or negative means sequential.
	Workers int
}

// DefaultConfig returns the documented default grading parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance:              DefaultTolerance,
		SimilarityThreshold:    DefaultSimilarityThreshold,
		PartialCredit:          true,
		FullCreditThreshold:    DefaultFullCreditThreshold,
		PartialCreditThreshold: DefaultPartialCreditThreshold,
		PointCurve:             []float64{2, 4, 6},
	}
}

// Validate checks option ranges and the point curve shape.
func (c Config) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Tolerance)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %g", c.SimilarityThreshold)
	}
	if c.FullCreditThreshold < 0 || c.FullCreditThreshold > 1 {
		return fmt.Errorf("full-credit threshold must be in [0,1], got %g", c.FullCreditThreshold)
	}
	if c.PartialCreditThreshold < 0 || c.PartialCreditThreshold > c.FullCreditThreshold {
		return fmt.Errorf("partial-credit threshold must be in [0,%g], got %g",
			c.FullCreditThreshold, c.PartialCreditThreshold)
	}
	if len(c.PointCurve) == 0 {
		return fmt.Errorf("point curve must have at least one value")
	}
	for i, p := range c.PointCurve {
		if p <= 0 {
			return fmt.Errorf("point curve values must be positive, got %g", p)
		}
		if i > 0 && p < c.PointCurve[i-1] {
			return fmt.Errorf("point curve must be non-decreasing, got %v", c.PointCurve)
		}
	}
	for id, p := range c.PointValues {
		if p <= 0 {
			return fmt.Errorf("point override for %s must be positive, got %g", id, p)
		}
	}
	return nil
}
