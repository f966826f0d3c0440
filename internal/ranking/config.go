// Package ranking scores documents against a query vector, applies training
// boosts, and balances the final list across test-type categories.
package ranking

import "fmt"

// Config holds the tunable thresholds of the booster and the balancer.
type Config struct {
	// OverlapThreshold is the minimum fraction of a training query's significant
	// tokens that must appear in the incoming query for it to match.
	OverlapThreshold float64 `yaml:"overlap_threshold"` // default: 0.5
	// BoostAmount is added to a document's score for every matching training query that references it.
	BoostAmount float64 `yaml:"boost_amount"` // default: 0.5
	// MaxBoost caps the accumulated boost of a single document.
	MaxBoost float64 `yaml:"max_boost"` // default: 1.0
	// CategoryCap is the fraction of the K slots one category may fill in the first balancing pass.
	CategoryCap float64 `yaml:"category_cap"` // default: 0.6
	// CategoryPriority decides the dominant category of a document with several test types.
	CategoryPriority []string `yaml:"category_priority"` // default: K P C A B S D E
}

// DefaultCategoryPriority is the dominant-category order used when none is configured.
var DefaultCategoryPriority = []string{"K", "P", "C", "A", "B", "S", "D", "E"}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() Config {
	return Config{
		OverlapThreshold: 0.5,
		BoostAmount:      0.5,
		MaxBoost:         1.0,
		CategoryCap:      0.6,
		CategoryPriority: append([]string(nil), DefaultCategoryPriority...),
	}
}

// Validate checks that every threshold is in range.
func (c Config) Validate() error {
	if c.OverlapThreshold < 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("overlap_threshold must be within [0,1], got %v", c.OverlapThreshold)
	}
	if c.BoostAmount < 0 {
		return fmt.Errorf("boost_amount must not be negative, got %v", c.BoostAmount)
	}
	if c.MaxBoost < 0 {
		return fmt.Errorf("max_boost must not be negative, got %v", c.MaxBoost)
	}
	if c.CategoryCap < 0 || c.CategoryCap > 1 {
		return fmt.Errorf("category_cap must be within [0,1], got %v", c.CategoryCap)
	}
	return nil
}
