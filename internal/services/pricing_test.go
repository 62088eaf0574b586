package services

import (
	"testing"

	"ugcads-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensForAmount(t *testing.T) {
	p := DefaultPricing()

	tests := []struct {
		name  string
		cents int64
		want  int64
	}{
		{"ten dollars", 1000, 200},
		{"thirty dollars", 3000, 600},
		{"hundred dollars", 10000, 1500},
		{"between tiers", 4500, 600},
		{"above top tier", 25000, 1500},
		{"below tiers", 500, 100},
		{"below tiers rounds down", 999, 199},
		{"zero", 0, 0},
		{"negative", -1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.TokensForAmount(tt.cents))
		})
	}
}

func TestTokensForAmountCustomRate(t *testing.T) {
	p := Pricing{TokensPerDollar: 50, Tiers: []Tier{{MinCents: 1000, Tokens: 200}, {MinCents: 5000, Tokens: 900}}}
	assert.Equal(t, int64(900), p.TokensForAmount(6000))
	assert.Equal(t, int64(200), p.TokensForAmount(1000))
	assert.Equal(t, int64(250), p.TokensForAmount(500))
}

func TestGenerationCost(t *testing.T) {
	p := DefaultPricing()

	assert.Equal(t, int64(100), p.GenerationCost(models.PromptData{}))
	assert.Equal(t, int64(300), p.GenerationCost(models.PromptData{Scenes: make([]models.Scene, 3)}))
	assert.Equal(t, int64(100), p.GenerationCost(models.PromptData{Segments: make([]models.Scene, 4)}))

	p.SceneCost = 0
	assert.Equal(t, int64(100), p.GenerationCost(models.PromptData{Scenes: make([]models.Scene, 3)}))
}

func TestFindPackage(t *testing.T) {
	p := DefaultPricing()

	pkg, err := p.FindPackage("growth")
	require.NoError(t, err)
	assert.Equal(t, int64(600), pkg.Tokens)
	assert.Equal(t, int64(2500), pkg.PriceCents)

	_, err = p.FindPackage("enterprise")
	assert.ErrorIs(t, err, ErrUnknownPackage)
}
