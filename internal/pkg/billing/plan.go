package billing

import (
	"strings"

	"github.com/inkstone-app/inkstone-api/app/models"
	"github.com/inkstone-app/inkstone-api/internal/pkg/env"
)

// PlanCatalog maps subscription tiers to payment-platform price IDs and back.
// The free tier has no price.
type PlanCatalog struct {
	priceByTier map[string]string
	tierByPrice map[string]string
}

// NewPlanCatalog builds a catalog from a tier -> price ID map. Entries with
// an empty price are dropped.
func NewPlanCatalog(prices map[string]string) *PlanCatalog {
	c := &PlanCatalog{
		priceByTier: make(map[string]string, len(prices)),
		tierByPrice: make(map[string]string, len(prices)),
	}
	for tier, priceID := range prices {
		tier = normalizeTier(tier)
		priceID = strings.TrimSpace(priceID)
		if tier == "" || tier == models.TierFree || priceID == "" {
			continue
		}
		c.priceByTier[tier] = priceID
		c.tierByPrice[priceID] = tier
	}
	return c
}

// NewPlanCatalogFromEnv reads the four paid price IDs from the environment.
func NewPlanCatalogFromEnv() *PlanCatalog {
	return NewPlanCatalog(map[string]string{
		models.TierBasicMonthly: env.GetEnv("STRIPE_PRICE_BASIC_MONTHLY", ""),
		models.TierBasicYearly:  env.GetEnv("STRIPE_PRICE_BASIC_YEARLY", ""),
		models.TierProMonthly:   env.GetEnv("STRIPE_PRICE_PRO_MONTHLY", ""),
		models.TierProYearly:    env.GetEnv("STRIPE_PRICE_PRO_YEARLY", ""),
	})
}

// PriceIDForTier returns the configured price ID for a paid tier, or "" for
// the free tier and unknown tiers.
func (c *PlanCatalog) PriceIDForTier(tier string) string {
	return c.priceByTier[normalizeTier(tier)]
}

// TierForPriceID returns the tier mapped to a price ID, or "" when the price
// is not part of the catalog.
func (c *PlanCatalog) TierForPriceID(priceID string) string {
	return c.tierByPrice[strings.TrimSpace(priceID)]
}

func normalizeTier(tier string) string {
	return strings.ToLower(strings.TrimSpace(tier))
}

// IsValidTier reports whether the given string is one of the five known tiers.
func IsValidTier(tier string) bool {
	switch normalizeTier(tier) {
	case models.TierFree, models.TierBasicMonthly, models.TierBasicYearly,
		models.TierProMonthly, models.TierProYearly:
		return true
	default:
		return false
	}
}

// IsPaidTier reports whether the tier requires payment collection.
func IsPaidTier(tier string) bool {
	return IsValidTier(tier) && normalizeTier(tier) != models.TierFree
}
