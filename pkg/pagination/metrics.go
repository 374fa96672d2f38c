package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pagesFetched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flowdesk_pages_fetched_total",
		Help: "Pages fetched by the batch fetcher by result",
	},
	[]string{"result"}, // ok, error
)

func countPage(err error) {
	if err != nil {
		pagesFetched.WithLabelValues("error").Inc()
		return
	}
	pagesFetched.WithLabelValues("ok").Inc()
}
