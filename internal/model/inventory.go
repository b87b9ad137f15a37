package model

// ItemSource tags where an asset lives within an inventory report. An
// asset is either held directly on the market-tradable inventory or is
// a storage container; never both in the same report.
type ItemSource string

const (
	SourceMarket      ItemSource = "market"
	SourceStorageUnit ItemSource = "storage_unit"
)

// InventoryAsset is one owned item instance as returned by the
// inventory provider. Ephemeral, re-fetched per request.
type InventoryAsset struct {
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     int    `json:"amount,string"`
}

// ItemDescription is item-definition metadata shared by all assets of
// the same (class, instance) pair within one fetch.
type ItemDescription struct {
	ClassID        string    `json:"classid"`
	InstanceID     string    `json:"instanceid"`
	Name           string    `json:"name"`
	MarketHashName string    `json:"market_hash_name"`
	Type           string    `json:"type"`
	Tradable       int       `json:"tradable"`
	IconURL        string    `json:"icon_url"`
	Tags           []ItemTag `json:"tags"`
}

// ItemTag is one Steam description tag (rarity, exterior, ...).
type ItemTag struct {
	Category string `json:"category"`
	Name     string `json:"localized_tag_name"`
}

// IsTradable reports whether the item can be listed on the market.
func (d *ItemDescription) IsTradable() bool {
	return d.Tradable == 1
}

// ProcessedItem is one valued inventory line. Derived per request,
// never persisted.
type ProcessedItem struct {
	AssetID        string     `json:"assetid"`
	Name           string     `json:"name"`
	MarketHashName string     `json:"market_hash_name"`
	Quantity       int        `json:"quantity"`
	Category       string     `json:"category"`
	Rarity         string     `json:"rarity"`
	Exterior       string     `json:"exterior"`
	Tradable       bool       `json:"tradable"`
	Price          float64    `json:"price"`
	Total          float64    `json:"total"`
	Source         ItemSource `json:"source"`
	FloatValue     *float64   `json:"float_value,omitempty"`
	Image          string     `json:"image,omitempty"`
}

// CategoryBreakdown aggregates one item category within a report.
type CategoryBreakdown struct {
	Count int             `json:"count"`
	Value float64         `json:"value"`
	Items []ProcessedItem `json:"items"`
}

// InventoryReport is the aggregate valuation of one owner's inventory.
type InventoryReport struct {
	SteamID          string                        `json:"steamid"`
	TotalItems       int                           `json:"total_items"`
	TotalValue       float64                       `json:"total_value"`
	AverageItemValue float64                       `json:"average_item_value"`
	Currency         string                        `json:"currency"`
	MarketItems      int                           `json:"market_items"`
	MarketValue      float64                       `json:"market_value"`
	StorageUnits     int                           `json:"storage_units"`
	StorageValue     float64                       `json:"storage_value"`
	MostValuable     *ProcessedItem                `json:"most_valuable,omitempty"`
	Items            []ProcessedItem               `json:"items"`
	Categories       map[string]*CategoryBreakdown `json:"categories,omitempty"`
}
