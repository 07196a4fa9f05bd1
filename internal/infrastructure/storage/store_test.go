// internal/infrastructure/storage/store_test.go
package storage

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-gateway/internal/domain/cart"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	// A named in-memory database keeps the schema visible across pooled
	// connections while isolating each test from the others.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store, err := NewStoreWithDB(db)
	if err != nil {
		t.Fatalf("NewStoreWithDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadSlice(t *testing.T) {
	store := testStore(t)

	state := cart.State{
		Items: []cart.LineItem{
			{ProductID: "p1", Size: "100g", Price: 29900, Quantity: 2},
		},
		Merged: true,
	}

	if err := store.SaveSlice("sess-1", SliceCart, state); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}

	var restored cart.State
	found, err := store.LoadSlice("sess-1", SliceCart, &restored)
	if err != nil {
		t.Fatalf("LoadSlice: %v", err)
	}
	if !found {
		t.Fatalf("expected slice to be found")
	}
	if len(restored.Items) != 1 || restored.Items[0].ProductID != "p1" {
		t.Errorf("unexpected restored state: %+v", restored)
	}
	if !restored.Merged {
		t.Errorf("merged flag must survive persistence")
	}
}

func TestSaveSliceOverwrites(t *testing.T) {
	store := testStore(t)

	first := cart.State{Items: []cart.LineItem{{ProductID: "p1", Price: 100, Quantity: 1}}}
	second := cart.State{Items: []cart.LineItem{{ProductID: "p2", Price: 200, Quantity: 4}}}

	if err := store.SaveSlice("sess-1", SliceCart, first); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}
	if err := store.SaveSlice("sess-1", SliceCart, second); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}

	var restored cart.State
	found, err := store.LoadSlice("sess-1", SliceCart, &restored)
	if err != nil || !found {
		t.Fatalf("LoadSlice: found=%v err=%v", found, err)
	}
	if len(restored.Items) != 1 || restored.Items[0].ProductID != "p2" {
		t.Errorf("expected latest write to win, got %+v", restored)
	}
}

func TestLoadSliceMissing(t *testing.T) {
	store := testStore(t)

	var out cart.State
	found, err := store.LoadSlice("nobody", SliceCart, &out)
	if err != nil {
		t.Fatalf("LoadSlice: %v", err)
	}
	if found {
		t.Errorf("expected no slice for unknown session")
	}
}

func TestLoadSliceDiscardsOtherSchemaVersions(t *testing.T) {
	store := testStore(t)

	record := StateSlice{
		RootKey:   RootKey,
		SessionID: "sess-1",
		Slice:     SliceCart,
		Version:   SchemaVersion + 1,
		Payload:   `{"items":[],"merged":false}`,
	}
	if err := store.db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	var out cart.State
	found, err := store.LoadSlice("sess-1", SliceCart, &out)
	if err != nil {
		t.Fatalf("LoadSlice: %v", err)
	}
	if found {
		t.Errorf("slice written by a different schema version must be ignored")
	}
}

func TestSlicesAreIsolatedPerSessionAndName(t *testing.T) {
	store := testStore(t)

	if err := store.SaveSlice("sess-1", SliceCart, cart.State{Merged: true}); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}
	if err := store.SaveSlice("sess-1", SliceAuth, map[string]string{"access_token": "tok"}); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}
	if err := store.SaveSlice("sess-2", SliceCart, cart.State{}); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}

	var out cart.State
	if found, _ := store.LoadSlice("sess-1", SliceCart, &out); !found || !out.Merged {
		t.Errorf("expected sess-1 cart slice, found=%v merged=%v", found, out.Merged)
	}
	if found, _ := store.LoadSlice("sess-2", SliceCart, &out); !found || out.Merged {
		t.Errorf("expected distinct sess-2 cart slice")
	}
}

func TestDeleteSessionRemovesAllSlices(t *testing.T) {
	store := testStore(t)

	if err := store.SaveSlice("sess-1", SliceCart, cart.State{}); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}
	if err := store.SaveSlice("sess-1", SliceAuth, map[string]string{"access_token": "tok"}); err != nil {
		t.Fatalf("SaveSlice: %v", err)
	}

	if err := store.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	var out cart.State
	if found, _ := store.LoadSlice("sess-1", SliceCart, &out); found {
		t.Errorf("expected cart slice gone")
	}
	var auth map[string]string
	if found, _ := store.LoadSlice("sess-1", SliceAuth, &auth); found {
		t.Errorf("expected auth slice gone")
	}
}
