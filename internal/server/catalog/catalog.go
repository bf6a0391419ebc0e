// Package catalog holds the static entitlement data: the ordered tier ladder
// with quota limits, prices, and model access, plus api-key prices. The
// catalog is built once at startup and read-only afterwards.
package catalog

import (
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

// FreeTierID is the tier every account starts on and falls back to when a
// paid term expires.
const FreeTierID = "free"

// TierLimits are the per-window quota numbers for one tier.
type TierLimits struct {
	DailyMessages      int64
	DailyImageGenerate int64
	DailyImageSend     int64
	DailyVideoSend     int64
	MonthlyTokens      int64
}

// Daily returns the daily limit for the given dimension.
func (l TierLimits) Daily(dim models.Dimension) int64 {
	switch dim {
	case models.DimensionMessage:
		return l.DailyMessages
	case models.DimensionImageGenerate:
		return l.DailyImageGenerate
	case models.DimensionImageSend:
		return l.DailyImageSend
	case models.DimensionVideoSend:
		return l.DailyVideoSend
	}
	return 0
}

// MonthlyInputTokens is the input share of the monthly budget (40%).
func (l TierLimits) MonthlyInputTokens() int64 {
	return l.MonthlyTokens * 2 / 5
}

// MonthlyOutputTokens is the output share of the monthly budget (60%).
func (l TierLimits) MonthlyOutputTokens() int64 {
	return l.MonthlyTokens - l.MonthlyInputTokens()
}

// Tier is one rung of the subscription ladder. Models lists only the model
// ids introduced at this rung; access is cumulative, see Catalog.ModelsFor.
type Tier struct {
	ID     string
	Name   string
	Price  int64
	Limits TierLimits
	Models []string
}

// Catalog is the ordered tier ladder plus api-key prices. Order matters:
// a tier's accessible-model set is its own models plus those of every tier
// before it, which makes the superset invariant hold by construction.
type Catalog struct {
	tiers        []Tier
	byID         map[string]int
	apiKeyPrices map[string]int64
}

// New builds a catalog from an ordered tier list (lowest first).
func New(tiers []Tier, apiKeyPrices map[string]int64) *Catalog {
	c := &Catalog{
		tiers:        tiers,
		byID:         make(map[string]int, len(tiers)),
		apiKeyPrices: apiKeyPrices,
	}
	for i, t := range tiers {
		c.byID[t.ID] = i
	}
	return c
}

// Tiers returns the ladder, lowest tier first.
func (c *Catalog) Tiers() []Tier {
	return c.tiers
}

// Get returns the tier for the given id.
func (c *Catalog) Get(tierID string) (Tier, bool) {
	i, ok := c.byID[tierID]
	if !ok {
		return Tier{}, false
	}
	return c.tiers[i], true
}

// LimitsFor returns the quota limits for the given tier id. The second
// result is false for ids missing from the catalog (schema drift); callers
// must treat that as "deny all metered actions", not as a crash.
func (c *Catalog) LimitsFor(tierID string) (TierLimits, bool) {
	t, ok := c.Get(tierID)
	if !ok {
		return TierLimits{}, false
	}
	return t.Limits, true
}

// ModelsFor returns every model id accessible at the given tier: its own
// models plus those of all lower tiers.
func (c *Catalog) ModelsFor(tierID string) []string {
	i, ok := c.byID[tierID]
	if !ok {
		return nil
	}
	var out []string
	for _, t := range c.tiers[:i+1] {
		out = append(out, t.Models...)
	}
	return out
}

// APIKeyPrice returns the price of an api-key for the given model.
func (c *Catalog) APIKeyPrice(modelID string) (int64, bool) {
	p, ok := c.apiKeyPrices[modelID]
	return p, ok
}
