// 包 metrics：答题服务的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_clicks_total",
		Help: "Total click resolutions by outcome (country, ocean, miss)",
	}, []string{"outcome"})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiz_resolve_duration_ms",
		Help:    "Click resolution duration in milliseconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})
	GuessesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_guesses_total",
		Help: "Total guesses by result (exact, fuzzy, wrong, ignored)",
	}, []string{"result"})
	PointsAwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_points_awarded_total",
		Help: "Total points awarded across all sessions",
	})
	HintsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_hints_total",
		Help: "Total hints revealed",
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_sessions_active",
		Help: "Sessions currently held in memory",
	})
	DatasetFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_dataset_features",
		Help: "Selectable country features in the active dataset",
	})
	RedisErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_redis_errors_total",
		Help: "Total redis command failures",
	})
)

func init() {
	prometheus.MustRegister(ClicksTotal)
	prometheus.MustRegister(ResolveDurationMs)
	prometheus.MustRegister(GuessesTotal)
	prometheus.MustRegister(PointsAwardedTotal)
	prometheus.MustRegister(HintsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(DatasetFeatures)
	prometheus.MustRegister(RedisErrorsTotal)
}

// 文档注释：返回 Prometheus 指标处理器，在主入口挂载到 /metrics
func Handler() http.Handler { return promhttp.Handler() }
