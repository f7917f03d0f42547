package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhub/coupon-platform/internal/model"
)

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryPrinters, ParseCategory("Printers"))
	assert.Equal(t, CategoryCartridges, ParseCategory("Cartridges"))
	assert.Equal(t, CategoryPaper, ParseCategory("Paper"))
	assert.Equal(t, CategoryAccessories, ParseCategory("Accessories"))
	assert.Equal(t, CategoryDefault, ParseCategory("Software"))
	assert.Equal(t, CategoryDefault, ParseCategory(""))
	assert.Equal(t, CategoryDefault, ParseCategory("printers"), "category matching is case-sensitive")
}

func TestRuleFor_KnownCategories(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantType model.DiscountType
		value    float64
		minimum  float64
		cap      *float64
	}{
		{"printers", CategoryPrinters, model.DiscountPercentage, 15, 100, capAt(50)},
		{"cartridges", CategoryCartridges, model.DiscountPercentage, 20, 50, capAt(30)},
		{"paper", CategoryPaper, model.DiscountFixed, 10, 25, nil},
		{"accessories", CategoryAccessories, model.DiscountPercentage, 10, 30, capAt(20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := RuleFor(tt.category, 500)

			assert.Equal(t, tt.wantType, rule.Type)
			assert.Equal(t, tt.value, rule.Value)
			assert.Equal(t, tt.minimum, rule.MinimumOrderValue)
			if tt.cap == nil {
				assert.Nil(t, rule.MaxDiscountAmount)
			} else {
				require.NotNil(t, rule.MaxDiscountAmount)
				assert.Equal(t, *tt.cap, *rule.MaxDiscountAmount)
			}
		})
	}
}

func TestRuleFor_KnownCategoriesIgnoreOrderAmount(t *testing.T) {
	// Only the default rule couples its minimum to the order amount.
	low := RuleFor(CategoryPrinters, 10)
	high := RuleFor(CategoryPrinters, 10000)
	assert.Equal(t, low, high)
}

func TestRuleFor_DefaultRule(t *testing.T) {
	tests := []struct {
		name        string
		orderAmount float64
		wantMinimum float64
	}{
		{"small order uses floor", 100, 50},
		{"boundary order", 166.67, 50.001},
		{"large order scales", 400, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := RuleFor(CategoryDefault, tt.orderAmount)

			assert.Equal(t, model.DiscountPercentage, rule.Type)
			assert.Equal(t, 10.0, rule.Value)
			assert.InDelta(t, tt.wantMinimum, rule.MinimumOrderValue, 1e-9)
			require.NotNil(t, rule.MaxDiscountAmount)
			assert.Equal(t, 25.0, *rule.MaxDiscountAmount)
		})
	}
}
