// Package metrics はPrometheus形式のアプリケーションメトリクスを提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は認証・登録イベントのカウンタを保持する。
type Collector struct {
	registry *prometheus.Registry

	loginTotal         *prometheus.CounterVec
	registrationsTotal prometheus.Counter
	verificationEmails *prometheus.CounterVec
	emailsVerified     prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
}

// NewCollector はCollectorを生成し、専用レジストリへ登録する。
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlhub_login_attempts_total",
			Help: "Total number of login attempts by result.",
		}, []string{"result"}),
		registrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlhub_registrations_total",
			Help: "Total number of completed user registrations.",
		}),
		verificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlhub_verification_emails_total",
			Help: "Total number of verification email attempts by result.",
		}, []string{"result"}),
		emailsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlhub_emails_verified_total",
			Help: "Total number of successfully verified email addresses.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dlhub_http_requests_total",
			Help: "Total number of HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}

	registry.MustRegister(
		c.loginTotal,
		c.registrationsTotal,
		c.verificationEmails,
		c.emailsVerified,
		c.httpRequestsTotal,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginTotal.WithLabelValues("success").Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginTotal.WithLabelValues("failure").Inc()
}

// RecordLoginLocked はロックアウト中のログイン試行を記録する。
func (c *Collector) RecordLoginLocked() {
	c.loginTotal.WithLabelValues("locked").Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrationsTotal.Inc()
}

// RecordVerificationEmail は確認メール送信の成否を記録する。
func (c *Collector) RecordVerificationEmail(sent bool) {
	result := "sent"
	if !sent {
		result = "failed"
	}
	c.verificationEmails.WithLabelValues(result).Inc()
}

// RecordEmailVerified はメール確認の完了を記録する。
func (c *Collector) RecordEmailVerified() {
	c.emailsVerified.Inc()
}

// RecordHTTPRequest はHTTPリクエストをメソッド・ステータス別に記録する。
func (c *Collector) RecordHTTPRequest(method string, status int) {
	c.httpRequestsTotal.WithLabelValues(method, httpStatusLabel(status)).Inc()
}

// Handler は/metrics用のHTTPハンドラを返す。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// httpStatusLabel はステータスコードをクラス単位のラベルへ丸める。
// カーディナリティを抑えるため個別コードは保持しない。
func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
