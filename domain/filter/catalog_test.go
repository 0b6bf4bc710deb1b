package filter

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	want := []ID{"sepia", "mono", "vivid", "fade", "invert"}
	if got := c.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	for _, f := range c.Filters() {
		if f.Expr == "" || f.Name == "" {
			t.Errorf("filter %q is missing a name or expression", f.ID)
		}
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	f, err := c.Lookup("sepia")
	if err != nil {
		t.Fatalf("Lookup(sepia) unexpected error: %v", err)
	}
	if f.Name != "Sepia" {
		t.Errorf("Lookup(sepia).Name = %q", f.Name)
	}

	for _, id := range []ID{"glitter", None, "Sepia"} {
		if _, err := c.Lookup(id); !errors.Is(err, ErrUnknownFilter) {
			t.Errorf("Lookup(%q) error = %v, want ErrUnknownFilter", id, err)
		}
	}
}

func TestCatalog_Restrict(t *testing.T) {
	tests := []struct {
		name    string
		enabled []string
		want    []ID
		wantErr bool
	}{
		{name: "empty keeps all", enabled: nil, want: []ID{"sepia", "mono", "vivid", "fade", "invert"}},
		{name: "keeps catalog order", enabled: []string{"invert", "sepia"}, want: []ID{"sepia", "invert"}},
		{name: "normalizes case and spaces", enabled: []string{" MONO "}, want: []ID{"mono"}},
		{name: "unknown", enabled: []string{"sepia", "glitter"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultCatalog().Restrict(tt.enabled)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFilter) {
					t.Errorf("Restrict() error = %v, want ErrUnknownFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Restrict() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.IDs(), tt.want) {
				t.Errorf("Restrict() IDs = %v, want %v", got.IDs(), tt.want)
			}
		})
	}
}

func TestCatalog_FiltersIsACopy(t *testing.T) {
	c := DefaultCatalog()
	fs := c.Filters()
	fs[0].Expr = "changed"

	if f, _ := c.Lookup(fs[0].ID); f.Expr == "changed" {
		t.Error("mutating Filters() result changed the catalog")
	}
	if c.Filters()[0].Expr == "changed" {
		t.Error("mutating Filters() result changed the catalog order slice")
	}
}
