package feed

import (
	"regexp"
	"strconv"
	"strings"
)

// ApplyLimit truncates records to at most limit entries, preserving order.
// A non-positive limit leaves the slice untouched.
func ApplyLimit(records []Record, limit int) []Record {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

// InBudgetRange reports whether a budget passes the min/max filters. Records
// without a recognizable budget always pass; the filters only reject listings
// whose known compensation falls outside the requested range.
func InBudgetRange(b *Budget, minBudget, maxBudget float64) bool {
	if b == nil {
		return true
	}
	value := b.Max
	if value == 0 {
		value = b.Min
	}
	if value == 0 {
		return true
	}
	if minBudget > 0 && value < minBudget {
		return false
	}
	if maxBudget > 0 && value > maxBudget {
		return false
	}
	return true
}

// FilterByBudget drops records whose budget falls outside [minBudget,
// maxBudget]. Records without a budget are kept.
func FilterByBudget(records []Record, minBudget, maxBudget float64) []Record {
	if minBudget <= 0 && maxBudget <= 0 {
		return records
	}
	kept := records[:0]
	for _, rec := range records {
		if InBudgetRange(rec.Budget, minBudget, maxBudget) {
			kept = append(kept, rec)
		}
	}
	return kept
}

var (
	salaryAmountPattern = regexp.MustCompile(`(\d[\d,.]*)\s*(k)?`)
	currencyPattern     = regexp.MustCompile(`(?i)(usd|eur|gbp|cad|aud|\$|€|£)`)
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// ParseBudgetText extracts a Budget from free-text salary strings such as
// "$60,000 - $80,000", "€45k" or "25-40 USD/hour". It returns nil when no
// numeric compensation signal is present.
func ParseBudgetText(text string) *Budget {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var amounts []float64
	for _, m := range salaryAmountPattern.FindAllStringSubmatch(trimmed, 2) {
		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(m[2], "k") {
			value *= 1000
		}
		amounts = append(amounts, value)
	}
	if len(amounts) == 0 {
		return nil
	}

	budget := &Budget{Type: budgetTypeFor(trimmed), Currency: currencyFor(trimmed)}
	budget.Min = amounts[0]
	if len(amounts) > 1 {
		budget.Max = amounts[1]
	} else {
		budget.Max = amounts[0]
	}
	if budget.Max < budget.Min {
		budget.Min, budget.Max = budget.Max, budget.Min
	}
	return budget
}

func budgetTypeFor(text string) BudgetType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "hour") || strings.Contains(lower, "/hr"):
		return BudgetHourly
	case strings.Contains(lower, "year") || strings.Contains(lower, "annum") || strings.Contains(lower, "month"):
		return BudgetFixed
	default:
		return BudgetUnknown
	}
}

func currencyFor(text string) string {
	m := currencyPattern.FindString(text)
	if m == "" {
		return "USD"
	}
	if code, ok := currencySymbols[m]; ok {
		return code
	}
	return strings.ToUpper(m)
}
