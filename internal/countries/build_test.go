package countries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ADMIN": "Germany", "NAME_EN": "Germany", "ISO_A2": "DE", "POP_EST": 83132799},
     "geometry": {"type": "Polygon", "coordinates": [[[6,47],[15,47],[15,55],[6,55],[6,47]]]}},
    {"type": "Feature", "properties": {"ADMIN": "France", "ISO_A2": "-99", "POP_EST": 67059887},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-5,42],[8,42],[8,51],[-5,51],[-5,42]]], [[[8.5,41.3],[9.6,41.3],[9.6,43],[8.5,43],[8.5,41.3]]]]}},
    {"type": "Feature", "properties": {"ADMIN": "N. Cyprus", "ISO_A2": "-99"},
     "geometry": {"type": "Polygon", "coordinates": [[[32,35],[34,35],[34,35.7],[32,35.7],[32,35]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Antarctica", "ISO_A2": "AQ"},
     "geometry": {"type": "Polygon", "coordinates": [[[-180,-90],[180,-90],[180,-60],[-180,-60],[-180,-90]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Germany again", "ISO_A2": " de "},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Nowhere", "ISO_A2": "NW"},
     "geometry": {"type": "Point", "coordinates": [0,0]}},
    {"type": "Feature", "properties": {"ADMIN": "Blank", "ISO_A2": ""},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
  ]
}`

func TestParseCleansFeatures(t *testing.T) {
	cat, rep, err := Parse([]byte(sampleCollection), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cat.Codes(); len(got) != 2 || got[0] != "DE" || got[1] != "FR" {
		t.Fatalf("codes = %v, want [DE FR]", got)
	}
	if rep.Total != 7 || rep.Kept != 2 || rep.Remapped != 1 || rep.Invalid != 2 || rep.Excluded != 1 || rep.BadGeom != 1 || rep.Duplicates != 1 {
		t.Fatalf("report = %+v", rep)
	}

	fr, ok := cat.Lookup("fr")
	if !ok {
		t.Fatal("FR should be remapped from the override table")
	}
	if fr.Admin != "France" || fr.NameEN != "" {
		t.Fatalf("FR names = %q %q", fr.Admin, fr.NameEN)
	}
	if fr.PopEst == nil || *fr.PopEst != 67059887 {
		t.Fatalf("FR pop = %v", fr.PopEst)
	}
	de, _ := cat.Lookup("DE")
	if de.Admin != "Germany" {
		t.Fatalf("duplicate code must keep the first feature, got %q", de.Admin)
	}
	if de.Area != 72 {
		t.Fatalf("DE area = %v, want 72", de.Area)
	}
	if _, ok := cat.Lookup("AQ"); ok {
		t.Fatal("AQ must be excluded")
	}
}

func TestParseCustomOptions(t *testing.T) {
	cat, _, err := Parse([]byte(sampleCollection), Options{
		Overrides: map[string]string{"N. Cyprus": "CY"},
		Exclude:   []string{"de"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := cat.Codes()
	want := []string{"AQ", "CY"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("codes = %v, want %v", got, want)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, _, err := Parse([]byte("not json"), Options{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidCode(t *testing.T) {
	tests := map[string]bool{
		"DE": true, "XK": true, "-99": false, "": false, "D": false, "DEU": false, "d1": false, "de": false,
	}
	for in, want := range tests {
		if got := ValidCode(in); got != want {
			t.Errorf("ValidCode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewCatalogSkipsInvalid(t *testing.T) {
	cat := NewCatalog([]*Feature{{Code: "DE"}, {Code: InvalidCode}, nil, {Code: "DE"}})
	if cat.Len() != 1 {
		t.Fatalf("Len = %d, want 1", cat.Len())
	}
}

func TestFeatureCollectionRoundTrip(t *testing.T) {
	cat, _, err := Parse([]byte(sampleCollection), Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := cat.FeatureCollection().MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	again, _, err := Parse(b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != cat.Len() {
		t.Fatalf("re-parsed %d features, want %d", again.Len(), cat.Len())
	}
}

func TestSourceDownloadsAndCachesToFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleCollection))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "data", "countries.geojson")
	src := &Source{URL: srv.URL, Path: path}
	cat, _, err := src.Load(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len = %d", cat.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("dataset not written to disk: %v", err)
	}
	if _, _, err := src.Load(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("remote hits = %d, want 1 (second load from file)", n)
	}
}

func TestSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	src := &Source{URL: srv.URL}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on bad status")
	}
}

func TestHolderSwap(t *testing.T) {
	var h Holder
	if h.Load() != nil {
		t.Fatal("empty holder must return nil")
	}
	a := NewCatalog([]*Feature{{Code: "DE"}})
	h.Set(a)
	if h.Load() != a {
		t.Fatal("holder did not return stored catalog")
	}
}

func TestSourceCorruptFileFallsBackToRemote(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleCollection))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "countries.geojson")
	if err := os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[`), 0o644); err != nil {
		t.Fatal(err)
	}
	src := &Source{URL: srv.URL, Path: path}
	cat, _, err := src.Load(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 2 || hits.Load() != 1 {
		t.Fatalf("Len = %d, remote hits = %d", cat.Len(), hits.Load())
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != sampleCollection {
		t.Fatalf("corrupt file should be replaced by the downloaded copy, err = %v", err)
	}
}

func TestSourceEmptyRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()
	src := &Source{URL: srv.URL}
	if _, _, err := src.Load(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for a dataset without usable features")
	}
}
