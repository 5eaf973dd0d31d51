package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	assert.Equal(t, 0.74, To(0.9*0.8+0.1*0.2, ScorePlaces))
	assert.Equal(t, 1.01, To(1.005, PricePlaces))
	assert.Equal(t, -1.01, To(-1.005, PricePlaces))
	assert.Equal(t, 0.5, To(0.50000001, DirectionPlaces))
	assert.Equal(t, 0.0, To(0, MetricPlaces))
}
