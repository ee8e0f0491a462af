// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやハンドラー層から利用する。
type MetricsCollector interface {
	RecordAuthAdmit()
	RecordAuthReject(reason string)
	RecordHTTPStatus(statusCode int)
	RecordLogin(success bool)
	RecordPayment(outcome string)
	RecordPaymentLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authAdmit      prometheus.Counter
	authReject     *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	login          *prometheus.CounterVec
	payment        *prometheus.CounterVec
	paymentLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAdmit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storeman_auth_admit_total",
			Help: "認証ゲート通過の合計数",
		}),
		authReject: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storeman_auth_reject_total",
			Help: "認証ゲート拒否の理由別合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storeman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storeman_login_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		payment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storeman_payment_total",
			Help: "決済送信の結果別合計数",
		}, []string{"outcome"}),
		paymentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storeman_payment_latency_seconds",
			Help:    "決済ゲートウェイ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authAdmit,
		c.authReject,
		c.httpStatus,
		c.login,
		c.payment,
		c.paymentLatency,
	)

	return c
}

// RecordAuthAdmit は認証ゲート通過を記録する。
func (c *Collector) RecordAuthAdmit() {
	c.authAdmit.Inc()
}

// RecordAuthReject は認証ゲート拒否を理由付きで記録する。
func (c *Collector) RecordAuthReject(reason string) {
	c.authReject.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.login.WithLabelValues(result).Inc()
}

// RecordPayment は決済送信の結果を記録する。
func (c *Collector) RecordPayment(outcome string) {
	c.payment.WithLabelValues(outcome).Inc()
}

// RecordPaymentLatency は決済ゲートウェイ呼び出しのレイテンシを記録する。
func (c *Collector) RecordPaymentLatency(duration time.Duration) {
	c.paymentLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
