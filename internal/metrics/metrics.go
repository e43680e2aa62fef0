// Package metrics declares the Prometheus collectors of the parse service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "docparse"

const (
	NameParseTotal    = "parse_total"
	NameParseErrors   = "parse_errors_total"
	NameParseDuration = "parse_duration_seconds"
	NameParseBytes    = "parse_bytes"
	NameBlocks        = "blocks_total"
	NameHTTPRequests  = "http_requests_total"
	NameHTTPDuration  = "http_request_duration_seconds"

	LabelOperation = "operation"
	LabelRoute     = "route"
	LabelCode      = "code"
)

// Operation label values.
const (
	OpCrawl    = "crawl"
	OpMarkdown = "markdown"
	OpDocIDs   = "doc_ids"
)

var ParseTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameParseTotal,
		Help:      "Total parse calls",
		Namespace: Namespace,
	},
	[]string{LabelOperation},
)

var ParseErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameParseErrors,
		Help:      "Parse calls that failed to decode",
		Namespace: Namespace,
	},
	[]string{LabelOperation},
)

var ParseDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      NameParseDuration,
		Help:      "Parse call latency",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	},
	[]string{LabelOperation},
)

var ParseBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:      NameParseBytes,
		Help:      "Size of decoded updates",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
	},
)

var Blocks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameBlocks,
		Help:      "Blocks read from decoded documents",
		Namespace: Namespace,
	},
)

var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameHTTPRequests,
		Help:      "HTTP requests by route pattern and status code",
		Namespace: Namespace,
	},
	[]string{LabelRoute, LabelCode},
)

var HTTPDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      NameHTTPDuration,
		Help:      "HTTP request latency by route pattern",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelRoute},
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
