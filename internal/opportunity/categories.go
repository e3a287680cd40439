// Package opportunity synthesizes outreach leads for local businesses from a
// free-text service query. It is the one adapter whose records are generated
// rather than scraped: places data and website scans are combined into scored
// leads and rendered down to canonical records.
package opportunity

import "strings"

// maxCategories bounds how many business categories one search fans out to.
const maxCategories = 3

// categoryMapping maps one service-query keyword to the business categories
// most likely to need that service. Matching is substring containment against
// the lowercased query; the slice keeps resolution order stable.
type categoryMapping struct {
	Keyword    string
	Categories []string
}

var categoryTable = []categoryMapping{
	{Keyword: "web design", Categories: []string{"restaurant", "hair salon", "dental clinic"}},
	{Keyword: "website", Categories: []string{"restaurant", "plumber", "law firm"}},
	{Keyword: "seo", Categories: []string{"dentist", "real estate agency", "auto repair"}},
	{Keyword: "marketing", Categories: []string{"gym", "boutique", "cafe"}},
	{Keyword: "booking", Categories: []string{"hair salon", "spa", "physiotherapist"}},
	{Keyword: "ecommerce", Categories: []string{"boutique", "bakery", "florist"}},
	{Keyword: "photography", Categories: []string{"restaurant", "real estate agency", "wedding venue"}},
	{Keyword: "social", Categories: []string{"cafe", "gym", "boutique"}},
	{Keyword: "branding", Categories: []string{"startup office", "boutique", "cafe"}},
}

// genericCategories pad the fallback when the table has no hit, so a search
// always has at least one category to run with.
var genericCategories = []string{"small business"}

// ResolveCategories maps a service query to target business categories. When
// no keyword matches, the raw query itself is used together with the generic
// fallbacks, so the result is never empty.
func ResolveCategories(query string) []string {
	lower := strings.ToLower(strings.TrimSpace(query))

	var categories []string
	seen := map[string]bool{}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}

	for _, mapping := range categoryTable {
		if strings.Contains(lower, mapping.Keyword) {
			for _, c := range mapping.Categories {
				add(c)
			}
		}
	}

	if len(categories) == 0 {
		if lower != "" {
			add(lower)
		}
		for _, c := range genericCategories {
			add(c)
		}
	}

	if len(categories) > maxCategories {
		categories = categories[:maxCategories]
	}
	return categories
}
