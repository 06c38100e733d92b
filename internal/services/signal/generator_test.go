package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

var bounds = Bounds{BuyCeiling: 46, SellFloor: 46}

func TestGenerate(t *testing.T) {
	th := models.Thresholds{Buy: 30, Sell: -20}

	tests := []struct {
		name       string
		oscillator float64
		imbalance  float64
		want       models.Signal
	}{
		{"buy when pressure high and oscillator low", 40, 35, models.SignalBuy},
		{"no signal when pressure below buy threshold", 40, 10, models.SignalNone},
		{"no signal when oscillator above buy ceiling", 60, 35, models.SignalNone},
		{"sell when pressure negative and oscillator high", 70, -25, models.SignalSell},
		{"no signal when pressure above sell threshold", 70, -5, models.SignalNone},
		{"no signal when oscillator below sell floor", 30, -25, models.SignalNone},
		{"buy boundary is inclusive on both inputs", 46, 30, models.SignalBuy},
		{"sell boundary is inclusive on both inputs", 46, -20, models.SignalSell},
		{"oscillator just past the buy ceiling", 46.0001, 30, models.SignalNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.oscillator, tt.imbalance, th, bounds))
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	th := models.Thresholds{Buy: 12.5, Sell: -8.25}
	for i := 0; i < 10; i++ {
		assert.Equal(t, models.SignalBuy, Generate(20, 13, th, bounds))
	}
}

func TestGenerateBuyWinsWhenBothQualify(t *testing.T) {
	// Degenerate thresholds where both branches match: the buy branch
	// is evaluated first, matching the reference behavior.
	th := models.Thresholds{Buy: -10, Sell: 10}
	assert.Equal(t, models.SignalBuy, Generate(46, 0, th, bounds))
}
