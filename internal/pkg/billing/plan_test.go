package billing

import (
	"testing"

	"github.com/inkstone-app/inkstone-api/app/models"
)

func testCatalog() *PlanCatalog {
	return NewPlanCatalog(map[string]string{
		models.TierBasicMonthly: "price_basic_m",
		models.TierBasicYearly:  "price_basic_y",
		models.TierProMonthly:   "price_pro_m",
		models.TierProYearly:    "price_pro_y",
	})
}

func TestPriceIDForTier(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name string
		tier string
		want string
	}{
		{"basic monthly", models.TierBasicMonthly, "price_basic_m"},
		{"pro yearly", models.TierProYearly, "price_pro_y"},
		{"mixed case and whitespace", "  Pro_Monthly ", "price_pro_m"},
		{"free has no price", models.TierFree, ""},
		{"unknown tier", "enterprise", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.PriceIDForTier(tt.tier); got != tt.want {
				t.Errorf("PriceIDForTier(%q) = %q, want %q", tt.tier, got, tt.want)
			}
		})
	}
}

func TestTierForPriceID(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name    string
		priceID string
		want    string
	}{
		{"basic yearly", "price_basic_y", models.TierBasicYearly},
		{"pro monthly", "price_pro_m", models.TierProMonthly},
		{"unmapped price", "price_unknown", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.TierForPriceID(tt.priceID); got != tt.want {
				t.Errorf("TierForPriceID(%q) = %q, want %q", tt.priceID, got, tt.want)
			}
		})
	}
}

func TestCatalogDropsEmptyAndFreeEntries(t *testing.T) {
	c := NewPlanCatalog(map[string]string{
		models.TierFree:         "price_should_be_ignored",
		models.TierBasicMonthly: "",
		models.TierProMonthly:   "price_pro_m",
	})

	if got := c.PriceIDForTier(models.TierFree); got != "" {
		t.Errorf("free tier mapped to %q, want empty", got)
	}
	if got := c.PriceIDForTier(models.TierBasicMonthly); got != "" {
		t.Errorf("empty price entry mapped to %q, want empty", got)
	}
	if got := c.TierForPriceID("price_should_be_ignored"); got != "" {
		t.Errorf("free price reverse-mapped to %q, want empty", got)
	}
	if got := c.PriceIDForTier(models.TierProMonthly); got != "price_pro_m" {
		t.Errorf("pro monthly mapped to %q, want price_pro_m", got)
	}
}

func TestIsValidTier(t *testing.T) {
	tests := []struct {
		tier string
		want bool
	}{
		{models.TierFree, true},
		{models.TierBasicMonthly, true},
		{models.TierBasicYearly, true},
		{models.TierProMonthly, true},
		{models.TierProYearly, true},
		{"PRO_YEARLY", true},
		{"premium", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidTier(tt.tier); got != tt.want {
			t.Errorf("IsValidTier(%q) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestIsPaidTier(t *testing.T) {
	tests := []struct {
		tier string
		want bool
	}{
		{models.TierFree, false},
		{models.TierBasicMonthly, true},
		{models.TierProYearly, true},
		{"nonsense", false},
	}

	for _, tt := range tests {
		if got := IsPaidTier(tt.tier); got != tt.want {
			t.Errorf("IsPaidTier(%q) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}
