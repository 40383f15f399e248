package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Logins = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_logins_total", Help: "Total successful sign-ins"},
	)
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_registrations_total", Help: "Total completed registrations"},
	)
	GuardRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackingtorch_guard_redirects_total", Help: "Route guard redirects by reason"},
		[]string{"reason"},
	)
	TicketsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_wallet_tickets_total", Help: "Total wallet tickets issued"},
	)
	Evaluations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_evaluations_total", Help: "Total evaluations recorded"},
	)
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_emails_sent_total", Help: "Total emails sent"},
	)
	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackingtorch_emails_failed_total", Help: "Total emails that failed to send"},
	)
)

func Register() {
	prometheus.MustRegister(Logins, Registrations, GuardRedirects, TicketsIssued, Evaluations, EmailsSent, EmailsFailed)
}
