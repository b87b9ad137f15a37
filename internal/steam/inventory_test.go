package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// pagedInventoryHandler serves a 3-page inventory of the given page
// sizes, advancing on the start_assetid cursor.
func pagedInventoryHandler(t *testing.T, sizes []int) http.HandlerFunc {
	t.Helper()

	starts := make([]string, len(sizes))
	offset := 0
	for i, n := range sizes {
		if i > 0 {
			starts[i] = fmt.Sprintf("asset-%d", offset-1)
		}
		offset += n
	}

	return func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("start_assetid")
		page := 0
		for i, s := range starts {
			if s == cursor {
				page = i
			}
		}

		first := 0
		for i := 0; i < page; i++ {
			first += sizes[i]
		}

		resp := map[string]interface{}{"success": 1, "total_inventory_count": 95}
		var assets []map[string]string
		for i := 0; i < sizes[page]; i++ {
			assets = append(assets, map[string]string{
				"assetid":    fmt.Sprintf("asset-%d", first+i),
				"classid":    "c1",
				"instanceid": "0",
				"amount":     "1",
			})
		}
		resp["assets"] = assets
		resp["descriptions"] = []map[string]interface{}{
			{"classid": "c1", "instanceid": "0", "name": "Prisma Case", "market_hash_name": "Prisma Case", "tradable": 1},
		}
		if page < len(sizes)-1 {
			resp["more_items"] = 1
			resp["last_assetid"] = fmt.Sprintf("asset-%d", first+sizes[page]-1)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestFetchAll_FollowsPaginationCursor(t *testing.T) {
	srv := httptest.NewServer(pagedInventoryHandler(t, []int{40, 40, 15}))
	defer srv.Close()

	c := NewInventoryClient(Config{BaseURL: srv.URL})
	inv, err := c.FetchAll(context.Background(), "76561198000000000", 730)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.Assets) != 95 {
		t.Errorf("expected 95 assets across 3 pages, got %d", len(inv.Assets))
	}
}

func TestFetchAll_BoundedByMaxPages(t *testing.T) {
	// Server always claims more pages; the client must still stop.
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      1,
			"assets":       []map[string]string{{"assetid": fmt.Sprintf("asset-%d", calls), "classid": "c1", "instanceid": "0", "amount": "1"}},
			"more_items":   1,
			"last_assetid": fmt.Sprintf("asset-%d", calls),
		})
	}))
	defer srv.Close()

	c := NewInventoryClient(Config{BaseURL: srv.URL, MaxPages: 3})
	inv, err := c.FetchAll(context.Background(), "76561198000000000", 730)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 page fetches, got %d", calls)
	}
	if len(inv.Assets) != 3 {
		t.Errorf("expected 3 assets, got %d", len(inv.Assets))
	}
}

func TestFetchAll_PrivateInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewInventoryClient(Config{BaseURL: srv.URL})
	if _, err := c.FetchAll(context.Background(), "76561198000000000", 730); err != ErrInventoryPrivate {
		t.Errorf("expected ErrInventoryPrivate, got %v", err)
	}
}
