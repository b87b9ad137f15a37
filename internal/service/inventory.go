package service

import (
	"context"
	"log"
	"regexp"
	"strings"

	"skinvault-api/internal/model"
	"skinvault-api/internal/steam"
)

// InventoryProvider fetches a user's full raw collection.
type InventoryProvider interface {
	FetchAll(ctx context.Context, steamID string, appID int) (*steam.Inventory, error)
}

// PriceResolver resolves one item key to a price.
type PriceResolver interface {
	Resolve(ctx context.Context, key model.ItemKey) (float64, error)
}

// FloatProvider looks up the wear value for a specific asset. ok=false
// when no float is known for the item.
type FloatProvider interface {
	FloatValue(ctx context.Context, assetID, marketHashName string) (float64, bool)
}

// storageUnitRe matches container assets that hold other items. Their
// contents are not enumerated in a base inventory fetch, so they are
// reported separately from directly-held market items.
var storageUnitRe = regexp.MustCompile(`(?i)^storage unit`)

// steamIDCleaner strips stray delimiters that front-ends commonly leak
// into the owner id (trailing slashes from profile URLs, commas,
// whitespace).
var steamIDCleaner = strings.NewReplacer("/", "", ",", "", " ", "", "\t", "")

// InventoryService paginates a user's collection, classifies each
// asset and prices it through the price service to build a valuation
// report.
type InventoryService struct {
	provider InventoryProvider
	prices   PriceResolver
	floats   FloatProvider
	currency int
	appID    int
}

// NewInventoryService creates an inventory service. floats may be nil;
// wear adjustment is then derived from the exterior band alone.
func NewInventoryService(provider InventoryProvider, prices PriceResolver, floats FloatProvider, currency, appID int) *InventoryService {
	if floats == nil {
		floats = ExteriorFloatProvider{}
	}
	return &InventoryService{
		provider: provider,
		prices:   prices,
		floats:   floats,
		currency: currency,
		appID:    appID,
	}
}

// GetInventoryValue fetches, classifies and values the owner's
// inventory. Per-item price failures value the item at zero; only an
// inaccessible inventory fails the whole report.
func (s *InventoryService) GetInventoryValue(ctx context.Context, steamID string, categorize bool) (*model.InventoryReport, error) {
	steamID = steamIDCleaner.Replace(strings.TrimSpace(steamID))

	inv, err := s.provider.FetchAll(ctx, steamID, s.appID)
	if err != nil {
		return nil, err
	}

	// One description index per fetch for O(1) lookups while iterating.
	descIndex := make(map[string]*model.ItemDescription, len(inv.Descriptions))
	for i := range inv.Descriptions {
		d := &inv.Descriptions[i]
		descIndex[d.ClassID+"_"+d.InstanceID] = d
	}

	report := &model.InventoryReport{
		SteamID:  steamID,
		Currency: currencyName(s.currency),
	}
	if categorize {
		report.Categories = make(map[string]*model.CategoryBreakdown)
	}

	valuedUnits := 0
	for _, asset := range inv.Assets {
		desc, ok := descIndex[asset.ClassID+"_"+asset.InstanceID]
		if !ok {
			continue
		}

		item := s.processAsset(ctx, asset, desc)

		report.Items = append(report.Items, item)
		report.TotalItems += item.Quantity
		report.TotalValue += item.Total

		switch item.Source {
		case model.SourceStorageUnit:
			report.StorageUnits += item.Quantity
			report.StorageValue += item.Total
		default:
			report.MarketItems += item.Quantity
			report.MarketValue += item.Total
		}

		if item.Price > 0 {
			valuedUnits += item.Quantity
			if report.MostValuable == nil || item.Price > report.MostValuable.Price {
				mv := item
				report.MostValuable = &mv
			}
		}

		if categorize {
			cb, ok := report.Categories[item.Category]
			if !ok {
				cb = &model.CategoryBreakdown{}
				report.Categories[item.Category] = cb
			}
			cb.Count += item.Quantity
			cb.Value += item.Total
			cb.Items = append(cb.Items, item)
		}
	}

	if valuedUnits > 0 {
		report.AverageItemValue = report.TotalValue / float64(valuedUnits)
	}
	return report, nil
}

// processAsset classifies and values one asset.
func (s *InventoryService) processAsset(ctx context.Context, asset model.InventoryAsset, desc *model.ItemDescription) model.ProcessedItem {
	quantity := asset.Amount
	if quantity < 1 {
		quantity = 1
	}

	category, rarity, exterior := parseItemType(desc)

	item := model.ProcessedItem{
		AssetID:        asset.AssetID,
		Name:           desc.Name,
		MarketHashName: desc.MarketHashName,
		Quantity:       quantity,
		Category:       category,
		Rarity:         rarity,
		Exterior:       exterior,
		Tradable:       desc.IsTradable(),
		Source:         model.SourceMarket,
		Image:          iconURL(desc.IconURL),
	}
	if storageUnitRe.MatchString(desc.Name) {
		item.Source = model.SourceStorageUnit
	}

	// Non-tradable items have no market price; they are reported at
	// zero rather than guessed.
	if item.Tradable {
		key := model.ItemKey{MarketHashName: desc.MarketHashName, Currency: s.currency, AppID: s.appID}
		price, err := s.prices.Resolve(ctx, key)
		if err != nil {
			// One bad item must not fail the whole report.
			log.Printf("[InventoryService] Price resolution failed for %s: %v", desc.MarketHashName, err)
			price = 0
		}

		if price > 0 && isWeaponCategory(category) {
			if fv, ok := s.floats.FloatValue(ctx, asset.AssetID, desc.MarketHashName); ok {
				item.FloatValue = &fv
				price *= wearMultiplier(fv, isHighValueName(desc.MarketHashName))
			}
		}
		item.Price = price
	}

	item.Total = item.Price * float64(quantity)
	return item
}

func iconURL(icon string) string {
	if icon == "" || strings.HasPrefix(icon, "http") {
		return icon
	}
	return "https://community.akamai.steamstatic.com/economy/image/" + icon
}

func currencyName(code int) string {
	switch code {
	case 1:
		return "USD"
	case 3:
		return "EUR"
	case 7:
		return "BRL"
	default:
		return "UNKNOWN"
	}
}

// parseItemType extracts category, rarity and exterior from the
// description's type string and tags.
func parseItemType(desc *model.ItemDescription) (category, rarity, exterior string) {
	category = "Other"
	rarity = "Base Grade"
	exterior = "Not Painted"

	t := desc.Type
	switch {
	case strings.Contains(t, "Sniper Rifle"):
		category = "Sniper Rifle"
	case strings.Contains(t, "Rifle"):
		category = "Rifle"
	case strings.Contains(t, "Pistol"):
		category = "Pistol"
	case strings.Contains(t, "SMG"):
		category = "SMG"
	case strings.Contains(t, "Shotgun"):
		category = "Shotgun"
	case strings.Contains(t, "Machinegun"):
		category = "Machinegun"
	case strings.Contains(t, "Container"), strings.Contains(t, "Case"):
		category = "Container"
	case strings.Contains(t, "Key"):
		category = "Key"
	case strings.Contains(t, "Knife"):
		category = "Knife"
	case strings.Contains(t, "Gloves"):
		category = "Gloves"
	case strings.Contains(t, "Sticker"):
		category = "Sticker"
	}

	for _, tag := range desc.Tags {
		switch tag.Category {
		case "Rarity":
			rarity = tag.Name
		case "Exterior":
			exterior = tag.Name
		}
	}
	return category, rarity, exterior
}

func isWeaponCategory(category string) bool {
	switch category {
	case "Rifle", "Sniper Rifle", "Pistol", "SMG", "Shotgun", "Machinegun", "Knife", "Gloves":
		return true
	}
	return false
}
