package routing

import "fmt"

// EmissionCostModel scores how far a candidate sits from the measurement it
// explains, as the negative log of a Gaussian centered on the measurement:
// d² / (2σ²)
type EmissionCostModel struct {
	invDoubleSqSigmaZ float64
}

// NewEmissionCostModel builds the model for a GPS noise level of sigmaZ meters
func NewEmissionCostModel(sigmaZ float64) (*EmissionCostModel, error) {
	if sigmaZ <= 0 {
		return nil, fmt.Errorf("expect sigma_z to be positive, got %v", sigmaZ)
	}
	return &EmissionCostModel{invDoubleSqSigmaZ: 1 / (2 * sigmaZ * sigmaZ)}, nil
}

// Cost returns the emission cost for a candidate distance meters away from
// its measurement
func (m *EmissionCostModel) Cost(distance float64) float64 {
	return distance * distance * m.invDoubleSqSigmaZ
}
