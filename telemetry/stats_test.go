package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDistribution(t *testing.T) {
	d := ComputeDistribution([]float64{9, 2, 4, 4, 4, 5, 5, 7})
	assert.InDelta(t, 5.0, d.Mean, 1e-9)
	assert.InDelta(t, 2.138, d.Std, 1e-3) // sample std, sqrt(32/7)
	assert.Equal(t, 2.0, d.P10)
	assert.Equal(t, 4.0, d.P50)
	assert.Equal(t, 9.0, d.P90)
}

func TestComputeDistributionSmall(t *testing.T) {
	assert.Equal(t, Distribution{}, ComputeDistribution(nil))

	d := ComputeDistribution([]float64{3})
	assert.Equal(t, 3.0, d.Mean)
	assert.Zero(t, d.Std)
	assert.Equal(t, 3.0, d.P50)
}

func TestComputeDistributionDoesNotSortInput(t *testing.T) {
	in := []float64{3, 1, 2}
	ComputeDistribution(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestTickStatsFailed(t *testing.T) {
	s := TickStats{FailMinBody: 1, FailNoAnchor: 2, FailBlocked: 3, FailTooClose: 4, FailUnknown: 5}
	assert.Equal(t, 15, s.Failed())
}
