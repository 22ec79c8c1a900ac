package routing

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config carries the numeric knobs of the matcher as a flat document. Any
// tree-shaped configuration source is expected to flatten into this struct
// before construction
type Config struct {
	// Beta scales the Laplace term of the transition cost; must be positive
	Beta float64 `json:"beta"`

	// BreakageDistance is the hard ceiling in meters on any single route search
	BreakageDistance float64 `json:"breakage_distance"`

	// MaxRouteDistanceFactor multiplies the great-circle distance between two
	// measurements to form the per-transition distance budget
	MaxRouteDistanceFactor float64 `json:"max_route_distance_factor"`

	// MaxRouteTimeFactor multiplies the elapsed time between two measurements
	// to form the per-transition time budget
	MaxRouteTimeFactor float64 `json:"max_route_time_factor"`

	// TurnPenaltyFactor is the amplitude of the turn-angle penalty; must be
	// non-negative
	TurnPenaltyFactor float64 `json:"turn_penalty_factor"`

	// SigmaZ is the GPS noise standard deviation in meters, used by the
	// emission cost
	SigmaZ float64 `json:"sigma_z"`

	// SearchRadius is the default candidate search radius in meters for
	// measurements that do not carry their own
	SearchRadius float64 `json:"search_radius"`
}

// DefaultConfig returns the stock matcher tuning
func DefaultConfig() Config {
	return Config{
		Beta:                   3,
		BreakageDistance:       2000,
		MaxRouteDistanceFactor: 5,
		MaxRouteTimeFactor:     5,
		TurnPenaltyFactor:      0,
		SigmaZ:                 4.07,
		SearchRadius:           50,
	}
}

// LoadConfig reads a flat JSON tuning document over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the transition cost model cannot be built with
func (c Config) Validate() error {
	if c.Beta <= 0 {
		return fmt.Errorf("expect beta to be positive, got %v", c.Beta)
	}
	if c.TurnPenaltyFactor < 0 {
		return fmt.Errorf("expect turn penalty factor to be non-negative, got %v", c.TurnPenaltyFactor)
	}
	return nil
}
