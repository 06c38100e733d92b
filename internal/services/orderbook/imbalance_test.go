package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

func levels(sizes ...float64) []models.PriceLevel {
	out := make([]models.PriceLevel, len(sizes))
	for i, sz := range sizes {
		out[i] = models.PriceLevel{Price: 100 + float64(i), Size: sz}
	}
	return out
}

func TestImbalanceMissingDepth(t *testing.T) {
	_, err := Imbalance(nil)
	assert.ErrorIs(t, err, models.ErrMissingDepthData)
}

func TestImbalanceEmptyBookIsZeroNotError(t *testing.T) {
	v, err := Imbalance(&models.DepthSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestImbalanceBidHeavy(t *testing.T) {
	// 150 vs 50 total size: (150-50)/200 = +50%.
	depth := &models.DepthSnapshot{
		Bids: levels(100, 30, 20),
		Asks: levels(25, 25),
	}
	v, err := Imbalance(depth)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v, 1e-9)
}

func TestImbalanceAntisymmetric(t *testing.T) {
	bids := levels(12, 7, 81, 0.5)
	asks := levels(3, 44, 9)

	fwd, err := Imbalance(&models.DepthSnapshot{Bids: bids, Asks: asks})
	require.NoError(t, err)
	rev, err := Imbalance(&models.DepthSnapshot{Bids: asks, Asks: bids})
	require.NoError(t, err)
	assert.InDelta(t, -fwd, rev, 1e-9)
}

func TestImbalanceOneSidedBook(t *testing.T) {
	v, err := Imbalance(&models.DepthSnapshot{Bids: levels(10, 10)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	v, err = Imbalance(&models.DepthSnapshot{Asks: levels(10, 10)})
	require.NoError(t, err)
	assert.Equal(t, -100.0, v)
}
