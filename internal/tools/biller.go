package tools

import "strings"

type BillerCategory string

const (
	CategoryElectricity   BillerCategory = "electricity"
	CategoryWater         BillerCategory = "water"
	CategoryTelecom       BillerCategory = "telecom"
	CategoryEntertainment BillerCategory = "entertainment"
	CategoryDefault       BillerCategory = "default"
)

// Checked in order; the first category with a matching keyword wins.
var billerKeywords = []struct {
	category BillerCategory
	keywords []string
}{
	{CategoryElectricity, []string{"tenaga", "tnb"}},
	{CategoryWater, []string{"syabas", "water", "air"}},
	{CategoryTelecom, []string{"tm", "unifi", "celcom", "maxis", "digi"}},
	{CategoryEntertainment, []string{"astro"}},
}

// CategoryFor classifies a biller by case-insensitive substring match.
func CategoryFor(billerName string) BillerCategory {
	name := strings.ToLower(billerName)
	for _, entry := range billerKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.category
			}
		}
	}
	return CategoryDefault
}

// Icon is the glyph shown on bill cards.
func (c BillerCategory) Icon() string {
	switch c {
	case CategoryElectricity:
		return "⚡"
	case CategoryWater:
		return "💧"
	case CategoryTelecom:
		return "📶"
	case CategoryEntertainment:
		return "📺"
	default:
		return "🧾"
	}
}
