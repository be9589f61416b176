package uniai

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/tokencache"
)

// Option configures the dispatcher created by New.
type Option func(*options)

type options struct {
	logger         *zap.Logger
	httpClient     *http.Client
	tokenStore     tokencache.Store
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	custom         map[llm.Provider]llm.ChatProvider
}

// WithLogger sets the zap logger shared by every adapter.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient replaces the outbound HTTP client. The proxy and
// response-header timeout from config are ignored in that case.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTokenStore injects the key-value store behind the access token cache,
// overriding token_cache.driver.
func WithTokenStore(store tokencache.Store) Option {
	return func(o *options) { o.tokenStore = store }
}

// WithMetrics enables Prometheus metrics on the given registerer even when
// metrics.enabled is false.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracerProvider sets the provider for dispatcher spans. Defaults to the
// global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithProvider registers an adapter under tag, replacing the built-in one.
func WithProvider(tag llm.Provider, p llm.ChatProvider) Option {
	return func(o *options) {
		if o.custom == nil {
			o.custom = make(map[llm.Provider]llm.ChatProvider)
		}
		o.custom[tag] = p
	}
}
