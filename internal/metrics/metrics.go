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
// セッションストア、サインアップフロー、APIクライアント、ワーカーから利用する。
type MetricsCollector interface {
	RecordSignIn(success bool)
	RecordSessionRestore(outcome string)
	RecordForcedLogout()
	RecordOTPSend(success bool)
	RecordOTPVerify(success bool)
	ObserveBackendRequest(operation string, statusCode int, duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// セッション復元の結果ラベル
const (
	RestoreAuthenticated = "authenticated"
	RestoreAnonymous     = "anonymous"
	RestoreInvalidToken  = "invalid_token"
	RestoreError         = "error"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIn          *prometheus.CounterVec
	sessionRestore  *prometheus.CounterVec
	forcedLogout    prometheus.Counter
	otpSend         *prometheus.CounterVec
	otpVerify       *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_signin_total",
			Help: "サインイン試行の合計数（結果別）",
		}, []string{"result"}),
		sessionRestore: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_session_restore_total",
			Help: "永続化トークンからのセッション復元の合計数（結果別）",
		}, []string{"outcome"}),
		forcedLogout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_forced_logout_total",
			Help: "バックエンドの401応答による強制ログアウトの合計数",
		}),
		otpSend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_otp_send_total",
			Help: "OTP送信の合計数（結果別）",
		}, []string{"result"}),
		otpVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_otp_verify_total",
			Help: "OTP検証の合計数（結果別）",
		}, []string{"result"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_backend_requests_total",
			Help: "バックエンドAPI呼び出しの合計数（操作・ステータスコード別）",
		}, []string{"operation", "status_code"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskdeck_backend_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れブラウザセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.signIn,
		c.sessionRestore,
		c.forcedLogout,
		c.otpSend,
		c.otpVerify,
		c.backendRequests,
		c.backendLatency,
		c.sessionsCleaned,
	)

	return c
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordSignIn はサインインの結果を記録する。
func (c *Collector) RecordSignIn(success bool) {
	c.signIn.WithLabelValues(result(success)).Inc()
}

// RecordSessionRestore はセッション復元の結果を記録する。
func (c *Collector) RecordSessionRestore(outcome string) {
	c.sessionRestore.WithLabelValues(outcome).Inc()
}

// RecordForcedLogout は強制ログアウトを記録する。
func (c *Collector) RecordForcedLogout() {
	c.forcedLogout.Inc()
}

// RecordOTPSend はOTP送信の結果を記録する。
func (c *Collector) RecordOTPSend(success bool) {
	c.otpSend.WithLabelValues(result(success)).Inc()
}

// RecordOTPVerify はOTP検証の結果を記録する。
func (c *Collector) RecordOTPVerify(success bool) {
	c.otpVerify.WithLabelValues(result(success)).Inc()
}

// ObserveBackendRequest はバックエンドAPI呼び出しのステータスとレイテンシを記録する。
// 通信エラーはstatusCode 0として記録される。
func (c *Collector) ObserveBackendRequest(operation string, statusCode int, duration time.Duration) {
	c.backendRequests.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	c.backendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
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

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
