package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/session"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type stubHints struct{}

func (stubHints) Hint(f *countries.Feature) string { return "hint for " + f.Code }

func feature(code, name string, minLng, minLat, maxLng, maxLat float64) *countries.Feature {
	p := orb.Polygon{{{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat}}}
	return &countries.Feature{Code: code, Admin: name, Geometry: p, Bound: p.Bound(), Area: (maxLng - minLng) * (maxLat - minLat)}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var h countries.Holder
	h.Set(countries.NewCatalog([]*countries.Feature{
		feature("GH", "Ghana", -5, -5, 5, 5),
		feature("US", "United States of America", -100, 20, -80, 40),
		feature("IS", "Iceland", -24, 63, -13, 67),
	}))
	mux := BuildRoutes(Deps{
		Catalog:  &h,
		Sessions: session.NewRegistry(100, time.Hour),
		Hints:    stubHints{},
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, rd)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func newSession(t *testing.T, srv *httptest.Server) string {
	var s sessionResponse
	if code := do(t, http.MethodPost, srv.URL+"/session", nil, &s); code != http.StatusCreated || s.ID == "" {
		t.Fatalf("create session: %d %+v", code, s)
	}
	return s.ID
}

func TestClickGuessFlow(t *testing.T) {
	srv := newTestServer(t)
	id := newSession(t, srv)
	base := srv.URL + "/session/" + id

	var click clickResponse
	body := map[string]any{"pointer": map[string]float64{"x": 400, "y": 300, "width": 800, "height": 600}}
	if code := do(t, http.MethodPost, base+"/click", body, &click); code != http.StatusOK {
		t.Fatalf("click status %d", code)
	}
	if !click.Hit || click.Selected == nil || click.Selected.Code != "GH" || click.Selected.Points != 25 {
		t.Fatalf("click = %+v", click)
	}
	if click.State.Outcome != session.OutcomePending {
		t.Fatalf("state = %+v", click.State)
	}

	var g guessResponse
	do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "  "}, &g)
	if !g.Ignored || g.State.Outcome != session.OutcomePending {
		t.Fatalf("empty guess = %+v", g)
	}

	var hint errorResponse
	if code := do(t, http.MethodPost, base+"/hint", nil, &hint); code != http.StatusConflict {
		t.Fatalf("hint before wrong guess: %d", code)
	}

	do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "Togo"}, &g)
	if g.Correct || g.State.Outcome != session.OutcomeWrong {
		t.Fatalf("wrong guess = %+v", g)
	}

	var hr hintResponse
	if code := do(t, http.MethodPost, base+"/hint", nil, &hr); code != http.StatusOK || hr.Hint != "hint for GH" || !hr.State.HintShown {
		t.Fatalf("hint: %d %+v", code, hr)
	}

	do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "Gana"}, &g)
	if !g.Correct || !g.Fuzzy || g.Correction != "Ghana" || g.Points != 13 || g.State.Score != 13 {
		t.Fatalf("fuzzy guess = %+v", g)
	}

	var e errorResponse
	if code := do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "Ghana"}, &e); code != http.StatusConflict {
		t.Fatalf("re-guess status %d", code)
	}

	var closed sessionResponse
	do(t, http.MethodPost, base+"/close", nil, &closed)
	if closed.State.Selected != "" || closed.State.Score != 13 {
		t.Fatalf("close = %+v", closed.State)
	}
}

func TestClickByLngLatAndOcean(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/session/" + newSession(t, srv)

	var click clickResponse
	do(t, http.MethodPost, base+"/click", map[string]any{"lnglat": map[string]float64{"lng": -90, "lat": 30}}, &click)
	if click.Selected == nil || click.Selected.Code != "US" || click.Selected.Points != 10 {
		t.Fatalf("lnglat click = %+v", click)
	}
	var g guessResponse
	do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "USA"}, &g)
	if !g.Correct || g.Fuzzy || g.Points != 10 {
		t.Fatalf("alias guess = %+v", g)
	}

	do(t, http.MethodPost, base+"/click", map[string]any{"lnglat": map[string]float64{"lng": 150, "lat": -40}}, &click)
	if !click.Hit || click.Selected != nil || click.State.Selected != "US" {
		t.Fatalf("ocean click must keep selection, got %+v", click)
	}

	// 指针落在地球外
	body := map[string]any{"pointer": map[string]float64{"x": 0, "y": 0, "width": 800, "height": 600}}
	do(t, http.MethodPost, base+"/click", body, &click)
	if click.Hit || click.Selected != nil {
		t.Fatalf("off-globe click = %+v", click)
	}

	var e errorResponse
	if code := do(t, http.MethodPost, base+"/click", map[string]any{}, &e); code != http.StatusBadRequest {
		t.Fatalf("empty click status %d", code)
	}
}

func TestGuessWithoutSelection(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/session/" + newSession(t, srv)
	var e errorResponse
	if code := do(t, http.MethodPost, base+"/guess", map[string]string{"guess": "Ghana"}, &e); code != http.StatusConflict {
		t.Fatalf("status %d", code)
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	var e errorResponse
	if code := do(t, http.MethodGet, srv.URL+"/session/nope", nil, &e); code != http.StatusNotFound {
		t.Fatalf("status %d", code)
	}
}

func TestCountriesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	var list []countryJSON
	do(t, http.MethodGet, srv.URL+"/countries", nil, &list)
	if len(list) != 3 || list[0].Code != "GH" || list[1].Code != "IS" || list[1].Points != 50 || list[2].Code != "US" {
		t.Fatalf("countries = %+v", list)
	}

	resp, err := http.Get(srv.URL + "/countries.geojson")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("content-type"); ct != "application/geo+json" {
		t.Fatalf("content-type = %q", ct)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	if err != nil || len(fc.Features) != 3 {
		t.Fatalf("geojson: %v (%d features)", err, len(fc.Features))
	}
}

func TestLocateDisabledAndStats(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/locate")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("locate status %d", resp.StatusCode)
	}

	newSession(t, srv)
	var st map[string]any
	do(t, http.MethodGet, srv.URL+"/stats", nil, &st)
	if st["dataset_features"].(float64) != 3 || st["active_sessions"].(float64) != 1 {
		t.Fatalf("stats = %v", st)
	}
	if _, ok := st["totals"]; ok {
		t.Fatal("totals must be absent without a stats store")
	}
}

func TestSharePNG(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/share.png?size=128")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if resp.Header.Get("content-type") != "image/png" || !strings.HasPrefix(buf.String(), "\x89PNG") {
		t.Fatalf("not a png: %s", resp.Header.Get("content-type"))
	}
}

func TestGetVisitorIP(t *testing.T) {
	tests := []struct {
		hdr, val, remote, want string
	}{
		{"X-Forwarded-For", "203.0.113.9, 10.0.0.1", "10.0.0.1:1", "203.0.113.9"},
		{"X-Real-IP", "198.51.100.2", "10.0.0.1:1", "198.51.100.2"},
		{"Forwarded", `for="[2001:db8::1]";proto=https`, "10.0.0.1:1", "2001:db8::1"},
		{"", "", "192.0.2.3:4567", "192.0.2.3"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if tt.hdr != "" {
			r.Header.Set(tt.hdr, tt.val)
		}
		if got := getVisitorIP(r); got != tt.want {
			t.Errorf("%s=%q: got %q, want %q", tt.hdr, tt.val, got, tt.want)
		}
	}
}

func TestBloomPositionsStable(t *testing.T) {
	a := bloomPositions([]byte("203.0.113.9"), bloomBits, bloomHashes)
	b := bloomPositions([]byte("203.0.113.9"), bloomBits, bloomHashes)
	if len(a) != bloomHashes {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] || a[i] < 0 || a[i] >= bloomBits {
			t.Fatalf("positions %v / %v", a, b)
		}
	}
}

func TestClickWithGlobeQuaternion(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/session/" + newSession(t, srv)
	s := math.Sqrt2 / 2
	body := map[string]any{
		"pointer":          map[string]float64{"x": 400, "y": 300, "width": 800, "height": 600},
		"globe_quaternion": []float64{0, s, 0, s},
	}
	var click clickResponse
	do(t, http.MethodPost, base+"/click", body, &click)
	// 地球仪转过 90°，屏幕中心不再是 GH
	if !click.Hit || click.Selected != nil || math.Abs(click.Lng+90) > 1e-6 {
		t.Fatalf("rotated click = %+v", click)
	}
}

func TestCloseEndRemovesSession(t *testing.T) {
	srv := newTestServer(t)
	id := newSession(t, srv)
	base := srv.URL + "/session/" + id

	var closed sessionResponse
	if code := do(t, http.MethodPost, base+"/close", nil, &closed); code != http.StatusOK {
		t.Fatalf("close status %d", code)
	}
	var s sessionResponse
	if code := do(t, http.MethodGet, base, nil, &s); code != http.StatusOK {
		t.Fatalf("plain close must keep the session, got %d", code)
	}
	if code := do(t, http.MethodPost, base+"/close?end=1", nil, &closed); code != http.StatusOK || closed.ID != id {
		t.Fatalf("end status %d %+v", code, closed)
	}
	var e errorResponse
	if code := do(t, http.MethodGet, base, nil, &e); code != http.StatusNotFound {
		t.Fatalf("ended session status %d, want 404", code)
	}
}
