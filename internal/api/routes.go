// 包 api：集中注册 HTTP 路由；会话、点击解析、作答、提示与数据集端点
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/geometry"
	"globe-quiz/internal/guess"
	"globe-quiz/internal/locate"
	"globe-quiz/internal/logger"
	"globe-quiz/internal/metrics"
	"globe-quiz/internal/resolver"
	"globe-quiz/internal/scoring"
	"globe-quiz/internal/session"
	"globe-quiz/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/skip2/go-qrcode"
)

const maxBody = 64 << 10

// Deps：路由依赖；Stats、Redis、Locator 可为 nil（对应功能关闭）
type Deps struct {
	Catalog   *countries.Holder
	Sessions  *session.Registry
	Hints     session.HintProvider
	Stats     *store.Store
	Redis     *redis.Client
	Locator   *locate.Locator
	PublicURL string
}

// derived：随目录一起失效的派生数据（计分表、GeoJSON 字节）
type derived struct {
	cat     *countries.Catalog
	points  scoring.PointsMap
	geojson []byte
}

type server struct {
	Deps
	cache atomic.Pointer[derived]
}

// dataset：当前目录及其派生数据；目录被刷新替换后首次访问时重建
func (s *server) dataset() *derived {
	cat := s.Catalog.Load()
	if d := s.cache.Load(); d != nil && d.cat == cat {
		return d
	}
	d := &derived{cat: cat, points: scoring.BuildPointsMap(cat.Features())}
	if cat != nil {
		if b, err := cat.FeatureCollection().MarshalJSON(); err == nil {
			d.geojson = b
		} else {
			logger.L().Error("geojson_marshal_error", "err", err)
		}
	}
	s.cache.Store(d)
	return d
}

// BuildRoutes：独立 ServeMux，由主入口挂载到 API_BASE 前缀下
func BuildRoutes(deps Deps) *http.ServeMux {
	s := &server{Deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", s.createSession)
	mux.HandleFunc("GET /session/{id}", s.withSession(s.getSession))
	mux.HandleFunc("POST /session/{id}/click", s.withSession(s.click))
	mux.HandleFunc("POST /session/{id}/guess", s.withSession(s.guess))
	mux.HandleFunc("POST /session/{id}/hint", s.withSession(s.hint))
	mux.HandleFunc("POST /session/{id}/close", s.withSession(s.close))
	mux.HandleFunc("GET /countries", s.countries)
	mux.HandleFunc("GET /countries.geojson", s.countriesGeoJSON)
	mux.HandleFunc("GET /locate", s.locate)
	mux.HandleFunc("GET /stats", s.stats)
	mux.HandleFunc("GET /share.png", s.share)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor：会话层错误 → HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrAlreadySolved),
		errors.Is(err, session.ErrHintUnavailable):
		return http.StatusConflict
	case errors.Is(err, session.ErrStaleSelection):
		return http.StatusGone
	case errors.Is(err, session.ErrInvalidCode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *server) withSession(h func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		h(w, r, sess)
	}
}

func (s *server) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.Sessions.Create()
	if s.Stats != nil {
		if err := s.Stats.IncrSession(ctx); err != nil {
			logger.L().Error("stats_session_error", "err", err)
		}
		if s.Redis != nil {
			first, err := firstVisitToday(ctx, s.Redis, getVisitorIP(r), time.Now())
			if err != nil {
				metrics.RedisErrorsTotal.Inc()
				logger.L().Error("visitor_bloom_error", "err", err)
			} else if first {
				_ = s.Stats.IncrVisitor(ctx)
			}
		}
	}
	logger.L().Debug("session_created", "id", sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, State: sess.Snapshot()})
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Snapshot()})
}

func (s *server) countryOf(d *derived, f *countries.Feature) *countryJSON {
	return &countryJSON{Code: f.Code, Name: guess.CanonicalName(f.Admin, f.NameEN), Points: d.points.Get(f.Code)}
}

// click：解析点击；未命中地球或落在海洋时选中状态保持不变
func (s *server) click(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req clickRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	d := s.dataset()
	candidates := d.cat.Features()

	t0 := time.Now()
	var f *countries.Feature
	var hit resolver.Hit
	switch {
	case req.Pointer != nil:
		p := resolver.Pointer{X: req.Pointer.X, Y: req.Pointer.Y, Width: req.Pointer.Width, Height: req.Pointer.Height}
		aspect := 1.0
		if p.Height > 0 {
			aspect = p.Width / p.Height
		}
		f, hit = resolver.Resolve(p, req.Camera.camera(aspect), req.globe(), candidates)
	case req.LngLat != nil:
		hit = resolver.Hit{Hit: true, Lng: req.LngLat.Lng, Lat: req.LngLat.Lat,
			Point: geometry.LngLatToCartesian(req.LngLat.Lng, req.LngLat.Lat, geometry.GlobeRadius)}
		f = resolver.ResolveLngLat(req.LngLat.Lng, req.LngLat.Lat, candidates)
	default:
		writeError(w, http.StatusBadRequest, "pointer or lnglat required")
		return
	}
	metrics.ResolveDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000)

	resp := clickResponse{Hit: hit.Hit, Lng: hit.Lng, Lat: hit.Lat}
	switch {
	case !hit.Hit:
		metrics.ClicksTotal.WithLabelValues("miss").Inc()
		resp.State = sess.Snapshot()
	case f == nil:
		metrics.ClicksTotal.WithLabelValues("ocean").Inc()
		resp.State = sess.Snapshot()
	default:
		metrics.ClicksTotal.WithLabelValues("country").Inc()
		st, err := sess.Select(f.Code)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		resp.Selected = s.countryOf(d, f)
		resp.State = st
	}
	logger.L().Debug("click_resolved", "session", sess.ID, "hit", hit.Hit, "lng", hit.Lng, "lat", hit.Lat, "selected", resp.Selected != nil)
	writeJSON(w, http.StatusOK, resp)
}

// guess：空白输入返回 ignored 且不改变状态
func (s *server) guess(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req guessRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	d := s.dataset()
	v, st, err := sess.Submit(req.Guess, d.cat, d.points)
	if errors.Is(err, session.ErrEmptyGuess) {
		metrics.GuessesTotal.WithLabelValues("ignored").Inc()
		writeJSON(w, http.StatusOK, guessResponse{Ignored: true, State: st})
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	result := "wrong"
	switch {
	case v.Fuzzy:
		result = "fuzzy"
	case v.Correct:
		result = "exact"
	}
	metrics.GuessesTotal.WithLabelValues(result).Inc()
	metrics.PointsAwardedTotal.Add(float64(v.Points))
	if s.Stats != nil {
		g := store.Guess{Code: st.Selected, Correct: v.Correct, Fuzzy: v.Fuzzy, Points: v.Points}
		if err := s.Stats.RecordGuess(r.Context(), g); err != nil {
			logger.L().Error("stats_guess_error", "err", err)
		}
	}
	logger.L().Debug("guess_checked", "session", sess.ID, "code", st.Selected, "result", result, "points", v.Points)
	writeJSON(w, http.StatusOK, guessResponse{
		Correct:    v.Correct,
		Fuzzy:      v.Fuzzy,
		Correction: v.Correction,
		Points:     v.Points,
		State:      st,
	})
}

func (s *server) hint(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	text, st, err := sess.RevealHint(s.dataset().cat, s.Hints)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	metrics.HintsTotal.Inc()
	if s.Stats != nil {
		_ = s.Stats.IncrHint(r.Context())
	}
	writeJSON(w, http.StatusOK, hintResponse{Hint: text, State: st})
}

// close：关闭当前选中；?end=1 时同时丢弃会话，返回最终状态
func (s *server) close(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	st := sess.Close()
	if r.URL.Query().Get("end") == "1" {
		s.Sessions.Remove(sess.ID)
		logger.L().Debug("session_ended", "id", sess.ID, "score", st.Score)
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: st})
}

func (s *server) countries(w http.ResponseWriter, r *http.Request) {
	d := s.dataset()
	feats := d.cat.Features()
	out := make([]*countryJSON, 0, len(feats))
	for _, f := range feats {
		out = append(out, s.countryOf(d, f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	writeJSON(w, http.StatusOK, out)
}

func (s *server) countriesGeoJSON(w http.ResponseWriter, r *http.Request) {
	d := s.dataset()
	if d.geojson == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}
	w.Header().Set("content-type", "application/geo+json")
	w.Header().Set("cache-control", "public, max-age=3600")
	if !d.cat.BuiltAt().IsZero() {
		w.Header().Set("last-modified", d.cat.BuiltAt().UTC().Format(http.TimeFormat))
	}
	_, _ = w.Write(d.geojson)
}

// locate：未配置 GEOIP_PATH 时 204；查不到国家时 404
func (s *server) locate(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	p, err := s.Locator.Locate(locateIP(r))
	if err != nil {
		logger.L().Debug("locate_miss", "err", err)
		writeError(w, http.StatusNotFound, "country not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"dataset_features": s.dataset().cat.Len(),
		"active_sessions":  s.Sessions.Len(),
	}
	if s.Stats != nil {
		t, err := s.Stats.GetTotals(r.Context())
		if err != nil {
			logger.L().Error("stats_read_error", "err", err)
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		out["totals"] = t
		if hardest, err := s.Stats.Hardest(r.Context(), 5, 10); err == nil {
			out["hardest"] = hardest
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// share：分享二维码；PUBLIC_URL 未配置时按请求主机拼出地址
func (s *server) share(w http.ResponseWriter, r *http.Request) {
	u := s.PublicURL
	if u == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		u = scheme + "://" + r.Host + "/"
	}
	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}
	png, err := qrcode.Encode(u, qrcode.Medium, size)
	if err != nil {
		logger.L().Error("qrcode_error", "err", err)
		writeError(w, http.StatusInternalServerError, "qrcode failed")
		return
	}
	w.Header().Set("content-type", "image/png")
	w.Header().Set("cache-control", "public, max-age=86400")
	_, _ = w.Write(png)
}
