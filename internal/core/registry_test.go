package core_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/xltable/internal/core"
)

type badModel struct {
	Tags []string `xl:"Tags"`
}

func (badModel) TableName() string { return "Bad" }

func resetRegistry(t *testing.T) {
	t.Helper()
	core.Clear()
	t.Cleanup(core.Clear)
}

func registerFixtures(t *testing.T) {
	t.Helper()
	resetRegistry(t)
	core.Register(core.Define[item](core.TableInfo{Key: "items", Group: "Stock", Label: "Items"}))
	core.Register(core.Define[code](core.TableInfo{Key: "codes", Group: "Lookup", Label: "Codes"}))
	core.Register(core.Define[missingTableModel](core.TableInfo{Key: "nope", Group: "Stock", Label: "Nope"}))
}

func keys(defs []core.TableDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Info.Key
	}
	return out
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registerFixtures(t)

	def, ok := core.Get("items")
	if !ok {
		t.Fatal("Get(items) not found")
	}
	if def.Info.Label != "Items" {
		t.Errorf("Label = %q, want Items", def.Info.Label)
	}
	if _, ok := core.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	if got := core.TableCount(); got != 3 {
		t.Errorf("TableCount() = %d, want 3", got)
	}
}

func TestRegistry_Ordering(t *testing.T) {
	registerFixtures(t)

	if got, want := keys(core.All()), []string{"codes", "items", "nope"}; !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
	if got, want := keys(core.ByGroup("Stock")), []string{"items", "nope"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ByGroup(Stock) = %v, want %v", got, want)
	}
	if got, want := core.Groups(), []string{"Lookup", "Stock"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Groups() = %v, want %v", got, want)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	registerFixtures(t)

	defer func() {
		if recover() == nil {
			t.Error("registering a duplicate key should panic")
		}
	}()
	core.Register(core.Define[code](core.TableInfo{Key: "items"}))
}

func TestDefine_InvalidModelPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Define with an unsupported field type should panic")
		}
	}()
	core.Define[badModel](core.TableInfo{Key: "bad"})
}

func TestRegistry_Clear(t *testing.T) {
	registerFixtures(t)
	core.Clear()
	if got := core.TableCount(); got != 0 {
		t.Errorf("TableCount() after Clear = %d, want 0", got)
	}
}

func TestOpenAll(t *testing.T) {
	registerFixtures(t)
	f := newFixture()

	stores, missing, err := core.OpenAll(f.book, f.host, f.opts(t)...)
	if err != nil {
		t.Fatalf("OpenAll() error = %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"nope"}) {
		t.Errorf("missing = %v, want [nope]", missing)
	}
	if len(stores) != 2 {
		t.Fatalf("opened %d stores, want 2", len(stores))
	}

	got, err := stores["items"].GetByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if it, ok := got.(*item); !ok || it.Name != "Gadget" {
		t.Errorf("GetByID(2) = %#v, want Gadget", got)
	}
}

func TestOpenAll_ResolveFailure(t *testing.T) {
	resetRegistry(t)
	core.Register(core.Define[itemWithEmail](core.TableInfo{Key: "items", Group: "Stock"}))
	f := newFixture()

	_, _, err := core.OpenAll(f.book, f.host, f.opts(t)...)
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Errorf("OpenAll() error = %v, want ErrMissingColumn", err)
	}
}
