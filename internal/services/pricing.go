package services

import (
	"sort"

	"ugcads-backend/internal/models"
)

// Package is a purchasable bundle of tokens.
type Package struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tokens     int64  `json:"tokens"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Popular    bool   `json:"popular,omitempty"`
}

// Tier maps a paid amount of at least MinCents to a fixed token count.
type Tier struct {
	MinCents int64
	Tokens   int64
}

// Pricing holds the token economics: what generation and uploads cost and how
// payments convert to tokens.
type Pricing struct {
	VideoCost       int64
	SceneCost       int64
	UploadCost      int64
	TokensPerDollar int64
	Packages        []Package
	Tiers           []Tier
}

var defaultPackages = []Package{
	{ID: "starter", Name: "Starter", Tokens: 200, PriceCents: 1000, Currency: "usd"},
	{ID: "growth", Name: "Growth", Tokens: 600, PriceCents: 2500, Currency: "usd", Popular: true},
	{ID: "premium", Name: "Premium", Tokens: 1500, PriceCents: 5500, Currency: "usd"},
}

var defaultTiers = []Tier{
	{MinCents: 10000, Tokens: 1500},
	{MinCents: 3000, Tokens: 600},
	{MinCents: 1000, Tokens: 200},
}

func DefaultPricing() Pricing {
	return Pricing{
		VideoCost:       100,
		SceneCost:       100,
		UploadCost:      1,
		TokensPerDollar: 20,
		Packages:        defaultPackages,
		Tiers:           defaultTiers,
	}
}

// GenerationCost charges per scene when the prompt is split into scenes and a
// flat price otherwise.
func (p Pricing) GenerationCost(prompt models.PromptData) int64 {
	if n := int64(len(prompt.Scenes)); n > 0 && p.SceneCost > 0 {
		return n * p.SceneCost
	}
	return p.VideoCost
}

// TokensForAmount converts a paid amount in cents to tokens using the highest
// tier it reaches, or TokensPerDollar for amounts below every tier.
func (p Pricing) TokensForAmount(cents int64) int64 {
	if cents <= 0 {
		return 0
	}

	tiers := append([]Tier(nil), p.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinCents > tiers[j].MinCents })
	for _, t := range tiers {
		if cents >= t.MinCents {
			return t.Tokens
		}
	}
	return cents * p.TokensPerDollar / 100
}

func (p Pricing) FindPackage(id string) (Package, error) {
	for _, pkg := range p.Packages {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return Package{}, ErrUnknownPackage
}
