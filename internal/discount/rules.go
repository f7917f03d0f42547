// Package discount maps product categories to the default coupon policy used
// when a coupon is auto-generated after a purchase.
package discount

import "github.com/printhub/coupon-platform/internal/model"

// Category is a closed enumeration of known product categories. Unknown
// categories resolve to CategoryDefault rather than dispatching on raw strings.
type Category int

const (
	CategoryDefault Category = iota
	CategoryPrinters
	CategoryCartridges
	CategoryPaper
	CategoryAccessories
)

// ParseCategory maps a stored product category to the enumeration.
func ParseCategory(s string) Category {
	switch s {
	case "Printers":
		return CategoryPrinters
	case "Cartridges":
		return CategoryCartridges
	case "Paper":
		return CategoryPaper
	case "Accessories":
		return CategoryAccessories
	default:
		return CategoryDefault
	}
}

// Rule is the discount policy derived for one category.
type Rule struct {
	Type              model.DiscountType
	Value             float64
	MinimumOrderValue float64
	MaxDiscountAmount *float64 // nil means uncapped
}

func capAt(v float64) *float64 { return &v }

// RuleFor returns the discount policy for a category. The default rule
// intentionally couples its minimum order value to the triggering order's
// amount: max(50, 30% of orderAmount).
func RuleFor(category Category, orderAmount float64) Rule {
	switch category {
	case CategoryPrinters:
		return Rule{Type: model.DiscountPercentage, Value: 15, MinimumOrderValue: 100, MaxDiscountAmount: capAt(50)}
	case CategoryCartridges:
		return Rule{Type: model.DiscountPercentage, Value: 20, MinimumOrderValue: 50, MaxDiscountAmount: capAt(30)}
	case CategoryPaper:
		return Rule{Type: model.DiscountFixed, Value: 10, MinimumOrderValue: 25, MaxDiscountAmount: nil}
	case CategoryAccessories:
		return Rule{Type: model.DiscountPercentage, Value: 10, MinimumOrderValue: 30, MaxDiscountAmount: capAt(20)}
	default:
		minimum := orderAmount * 0.3
		if minimum < 50 {
			minimum = 50
		}
		return Rule{Type: model.DiscountPercentage, Value: 10, MinimumOrderValue: minimum, MaxDiscountAmount: capAt(25)}
	}
}
