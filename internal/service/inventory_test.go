package service

import (
	"context"
	"errors"
	"testing"

	"skinvault-api/internal/model"
	"skinvault-api/internal/steam"
)

type fakeProvider struct {
	inv *steam.Inventory
	err error
}

func (f *fakeProvider) FetchAll(_ context.Context, _ string, _ int) (*steam.Inventory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

// fakeResolver maps market hash names to fixed prices. Unknown names
// resolve with an error.
type fakeResolver struct {
	prices map[string]float64
}

func (f *fakeResolver) Resolve(_ context.Context, key model.ItemKey) (float64, error) {
	if p, ok := f.prices[key.MarketHashName]; ok {
		return p, nil
	}
	return 0, ErrUnresolvable
}

type fixedFloatProvider struct {
	floats map[string]float64
}

func (f fixedFloatProvider) FloatValue(_ context.Context, _, name string) (float64, bool) {
	v, ok := f.floats[name]
	return v, ok
}

func testInventory() *steam.Inventory {
	return &steam.Inventory{
		Assets: []model.InventoryAsset{
			{AssetID: "a1", ClassID: "c1", InstanceID: "i0", Amount: 1},
			{AssetID: "a2", ClassID: "c2", InstanceID: "i0", Amount: 1},
			{AssetID: "a3", ClassID: "c3", InstanceID: "i0", Amount: 1},
			{AssetID: "a4", ClassID: "c4", InstanceID: "i0", Amount: 3},
		},
		Descriptions: []model.ItemDescription{
			{
				ClassID: "c1", InstanceID: "i0",
				Name:           "AK-47 | Redline",
				MarketHashName: "AK-47 | Redline (Field-Tested)",
				Type:           "Classified Rifle",
				Tradable:       1,
				Tags: []model.ItemTag{
					{Category: "Rarity", Name: "Classified"},
					{Category: "Exterior", Name: "Field-Tested"},
				},
			},
			{
				ClassID: "c2", InstanceID: "i0",
				Name:           "Storage Unit",
				MarketHashName: "Storage Unit",
				Type:           "Container",
				Tradable:       1,
			},
			{
				ClassID: "c3", InstanceID: "i0",
				Name:           "Operation Riptide Coin",
				MarketHashName: "Operation Riptide Coin",
				Type:           "Collectible",
				Tradable:       0,
			},
			{
				ClassID: "c4", InstanceID: "i0",
				Name:           "Dreams & Nightmares Case",
				MarketHashName: "Dreams & Nightmares Case",
				Type:           "Base Grade Container",
				Tradable:       1,
			},
		},
		TotalCount: 6,
	}
}

func TestGetInventoryValueAggregates(t *testing.T) {
	provider := &fakeProvider{inv: testInventory()}
	resolver := &fakeResolver{prices: map[string]float64{
		"AK-47 | Redline (Field-Tested)": 20.0,
		"Storage Unit":                   2.0,
		"Dreams & Nightmares Case":       1.5,
	}}
	svc := NewInventoryService(provider, resolver, fixedFloatProvider{}, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), "76561198000000001", false)
	if err != nil {
		t.Fatalf("GetInventoryValue: %v", err)
	}

	if report.TotalItems != 6 {
		t.Errorf("expected 6 total units, got %d", report.TotalItems)
	}
	// 20 + 2 + 0 + 3*1.5
	if report.TotalValue != 26.5 {
		t.Errorf("expected total value 26.5, got %v", report.TotalValue)
	}
	if report.StorageUnits != 1 || report.StorageValue != 2.0 {
		t.Errorf("storage aggregation wrong: %d units, %v value", report.StorageUnits, report.StorageValue)
	}
	if report.MarketItems != 5 || report.MarketValue != 24.5 {
		t.Errorf("market aggregation wrong: %d units, %v value", report.MarketItems, report.MarketValue)
	}
	if report.MostValuable == nil || report.MostValuable.MarketHashName != "AK-47 | Redline (Field-Tested)" {
		t.Errorf("expected the rifle as most valuable, got %+v", report.MostValuable)
	}
	// 5 valued units: the coin resolves to zero and is excluded.
	if want := 26.5 / 5; report.AverageItemValue != want {
		t.Errorf("expected average %v, got %v", want, report.AverageItemValue)
	}
	if report.Currency != "USD" {
		t.Errorf("expected USD, got %s", report.Currency)
	}
}

func TestGetInventoryValueSourceExclusive(t *testing.T) {
	provider := &fakeProvider{inv: testInventory()}
	resolver := &fakeResolver{prices: map[string]float64{}}
	svc := NewInventoryService(provider, resolver, nil, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), "76561198000000001", false)
	if err != nil {
		t.Fatalf("GetInventoryValue: %v", err)
	}

	units := 0
	for _, item := range report.Items {
		if item.Source != model.SourceMarket && item.Source != model.SourceStorageUnit {
			t.Errorf("item %s has unknown source %q", item.Name, item.Source)
		}
		units += item.Quantity
	}
	if got := report.MarketItems + report.StorageUnits; got != units {
		t.Errorf("source counts overlap or miss: %d vs %d units", got, units)
	}
}

func TestGetInventoryValueToleratesPriceFailures(t *testing.T) {
	provider := &fakeProvider{inv: testInventory()}
	// Only the case resolves; everything else errors out.
	resolver := &fakeResolver{prices: map[string]float64{
		"Dreams & Nightmares Case": 1.5,
	}}
	svc := NewInventoryService(provider, resolver, nil, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), "76561198000000001", false)
	if err != nil {
		t.Fatalf("per-item failures must not fail the report: %v", err)
	}
	if report.TotalValue != 4.5 {
		t.Errorf("expected 4.5 from the cases alone, got %v", report.TotalValue)
	}
	if len(report.Items) != 4 {
		t.Errorf("expected all 4 lines present, got %d", len(report.Items))
	}
}

func TestGetInventoryValuePrivate(t *testing.T) {
	provider := &fakeProvider{err: steam.ErrInventoryPrivate}
	svc := NewInventoryService(provider, &fakeResolver{}, nil, 1, 730)

	_, err := svc.GetInventoryValue(context.Background(), "76561198000000001", false)
	if !errors.Is(err, steam.ErrInventoryPrivate) {
		t.Errorf("expected ErrInventoryPrivate, got %v", err)
	}
}

func TestGetInventoryValueCategorize(t *testing.T) {
	provider := &fakeProvider{inv: testInventory()}
	resolver := &fakeResolver{prices: map[string]float64{
		"AK-47 | Redline (Field-Tested)": 20.0,
		"Dreams & Nightmares Case":       1.5,
	}}
	svc := NewInventoryService(provider, resolver, nil, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), "76561198000000001", true)
	if err != nil {
		t.Fatalf("GetInventoryValue: %v", err)
	}
	rifles, ok := report.Categories["Rifle"]
	if !ok || rifles.Count != 1 || rifles.Value != 20.0 {
		t.Errorf("rifle breakdown wrong: %+v", rifles)
	}
	containers, ok := report.Categories["Container"]
	if !ok || containers.Count != 4 {
		t.Errorf("expected 4 container units (cases plus storage unit), got %+v", containers)
	}
}

func TestGetInventoryValueNormalizesOwnerID(t *testing.T) {
	provider := &fakeProvider{inv: &steam.Inventory{}}
	svc := NewInventoryService(provider, &fakeResolver{}, nil, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), " 76561198000000001/ ", false)
	if err != nil {
		t.Fatalf("GetInventoryValue: %v", err)
	}
	if report.SteamID != "76561198000000001" {
		t.Errorf("owner id not normalized: %q", report.SteamID)
	}
}

func TestWearMultiplierMonotonicFactoryNew(t *testing.T) {
	floats := []float64{0.005, 0.015, 0.03, 0.06}
	prev := 2.0
	for _, f := range floats {
		m := wearMultiplier(f, false)
		if m > prev {
			t.Errorf("multiplier must not rise with float: %v at %v after %v", m, f, prev)
		}
		prev = m
	}
	if wearMultiplier(0.005, true) <= wearMultiplier(0.005, false) {
		t.Error("float-sensitive finishes should carry a larger low-float premium")
	}
	if wearMultiplier(0.5, false) >= 1.0 {
		t.Error("battle-scarred should trade at a discount")
	}
}

func TestWearAdjustmentApplied(t *testing.T) {
	inv := &steam.Inventory{
		Assets: []model.InventoryAsset{
			{AssetID: "a1", ClassID: "c1", InstanceID: "i0", Amount: 1},
		},
		Descriptions: []model.ItemDescription{
			{
				ClassID: "c1", InstanceID: "i0",
				Name:           "AWP | Gungnir",
				MarketHashName: "AWP | Gungnir (Factory New)",
				Type:           "Covert Sniper Rifle",
				Tradable:       1,
			},
		},
	}
	provider := &fakeProvider{inv: inv}
	resolver := &fakeResolver{prices: map[string]float64{
		"AWP | Gungnir (Factory New)": 10000.0,
	}}
	floats := fixedFloatProvider{floats: map[string]float64{
		"AWP | Gungnir (Factory New)": 0.004,
	}}
	svc := NewInventoryService(provider, resolver, floats, 1, 730)

	report, err := svc.GetInventoryValue(context.Background(), "76561198000000001", false)
	if err != nil {
		t.Fatalf("GetInventoryValue: %v", err)
	}
	item := report.Items[0]
	if item.FloatValue == nil || *item.FloatValue != 0.004 {
		t.Fatalf("expected float 0.004 recorded, got %+v", item.FloatValue)
	}
	if item.Price != 13000.0 {
		t.Errorf("expected 1.30 premium on 10000, got %v", item.Price)
	}
}
