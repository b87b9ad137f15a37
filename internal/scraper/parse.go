package scraper

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extraction is multi-strategy and order-independent: every strategy
// runs and all matches land in one shared candidate pool. Listing pages
// vary a lot between items (no sell orders, histogram only, script
// payload only), so returning on first match loses usable quotes.
var (
	// Strategy 1: the dedicated price element, when the page has one.
	priceElementRe = regexp.MustCompile(`market_listing_price market_listing_price_with_fee[^>]*>\s*([^<]+?)\s*<`)

	// Strategy 2: the listings/histogram block of plain price spans.
	priceSpanRe = regexp.MustCompile(`market_listing_price[^"]*"\s*>\s*([^<]+?)\s*<`)

	// Strategy 3: structured price fields embedded in page scripts.
	scriptLowestRe = regexp.MustCompile(`"lowest_price"\s*:\s*"([^"]+)"`)
	scriptMedianRe = regexp.MustCompile(`"median_price"\s*:\s*"([^"]+)"`)
	scriptSellRe   = regexp.MustCompile(`"sell_price_text"\s*:\s*"([^"]+)"`)

	currencySymbolRe = regexp.MustCompile(`[^\d.,\-]`)
)

// extractCandidates runs every strategy over the page and pools the
// results.
func extractCandidates(body string) []Candidate {
	var pool []Candidate

	collect := func(re *regexp.Regexp, source string) {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			raw := strings.TrimSpace(m[1])
			price, currency, ok := parsePriceString(raw)
			if !ok {
				continue
			}
			pool = append(pool, Candidate{Price: price, Currency: currency, Source: source})
		}
	}

	collect(priceElementRe, "price_element")
	collect(priceSpanRe, "listing_span")
	collect(scriptLowestRe, "script_lowest")
	collect(scriptMedianRe, "script_median")
	collect(scriptSellRe, "script_sell")

	return pool
}

// parsePriceString turns a currency-tagged string ("$12.34",
// "R$ 1.234,56", "12,34€") into a numeric price plus the stripped
// currency tag. Strings without digits are rejected.
func parsePriceString(raw string) (float64, string, bool) {
	raw = strings.ReplaceAll(raw, " ", " ")
	currency := strings.TrimSpace(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == ',' || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, raw))

	numeric := currencySymbolRe.ReplaceAllString(raw, "")
	numeric = strings.TrimSpace(numeric)
	if numeric == "" {
		return 0, "", false
	}

	lastComma := strings.LastIndex(numeric, ",")
	lastDot := strings.LastIndex(numeric, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both separators present; the later one is the decimal mark.
		if lastComma > lastDot {
			numeric = strings.ReplaceAll(numeric, ".", "")
			numeric = strings.Replace(numeric, ",", ".", 1)
		} else {
			numeric = strings.ReplaceAll(numeric, ",", "")
		}
	case lastComma >= 0:
		// Comma only: decimal mark when it has at most two trailing digits.
		if len(numeric)-lastComma-1 <= 2 {
			numeric = strings.Replace(numeric, ",", ".", 1)
		} else {
			numeric = strings.ReplaceAll(numeric, ",", "")
		}
	}

	price, err := strconv.ParseFloat(numeric, 64)
	if err != nil || price < 0 {
		return 0, "", false
	}
	return price, currency, true
}

// plausible rejects zero prices and obvious quantity artifacts: round
// integer multiples of 50 above 100 are almost always listing counts or
// volume figures that leaked into a price span.
func plausible(price float64) bool {
	if price <= 0 {
		return false
	}
	if price > 100 && price == math.Trunc(price) && math.Mod(price, 50) == 0 {
		return false
	}
	return true
}

// ReducePrice collapses a candidate pool to one conservative market
// ask. Implausible candidates are dropped first; when several remain,
// candidates more than twice the pool median are excluded as outliers
// and the lowest survivor is returned.
func ReducePrice(candidates []Candidate) (float64, error) {
	var values []float64
	for _, c := range candidates {
		if plausible(c.Price) {
			values = append(values, c.Price)
		}
	}
	if len(values) == 0 {
		return 0, ErrParseFailed
	}
	if len(values) == 1 {
		return values[0], nil
	}

	sort.Float64s(values)
	median := values[len(values)/2]
	if len(values)%2 == 0 {
		median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	}

	var kept []float64
	for _, v := range values {
		if v <= 2*median {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		kept = values
	}
	return kept[0], nil
}
