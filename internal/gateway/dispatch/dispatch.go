// Package dispatch is the request pipeline in front of every handler:
// host canonicalization, route classification, then the session gate for
// administrative requests or locale negotiation for public ones.
package dispatch

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"yapisite/internal/gateway/canonical"
	"yapisite/internal/gateway/classify"
	"yapisite/internal/gateway/localeprefix"
	"yapisite/internal/gateway/sessiongate"
	"yapisite/internal/platform/metrics"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/requestcontext"
)

const tracerName = "yapisite/internal/gateway/dispatch"

// Handlers are the downstream handlers, one per route class. Keeping them
// separate means a public path can never reach administrative routes.
type Handlers struct {
	Infrastructure http.Handler
	Admin          http.Handler
	Public         http.Handler
}

// Dispatcher routes each request through the gateway steps in order,
// stopping at the first step that answers.
type Dispatcher struct {
	canonicalizer *canonical.Canonicalizer
	classifier    *classify.Classifier
	gate          *sessiongate.Gate
	negotiator    *localeprefix.Negotiator
	handlers      Handlers

	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// New wires the pipeline. All components and handlers are required.
func New(
	canonicalizer *canonical.Canonicalizer,
	classifier *classify.Classifier,
	gate *sessiongate.Gate,
	negotiator *localeprefix.Negotiator,
	handlers Handlers,
	opts ...Option,
) (*Dispatcher, error) {
	switch {
	case canonicalizer == nil:
		return nil, errors.New("canonicalizer is required")
	case classifier == nil:
		return nil, errors.New("classifier is required")
	case gate == nil:
		return nil, errors.New("session gate is required")
	case negotiator == nil:
		return nil, errors.New("locale negotiator is required")
	case handlers.Infrastructure == nil || handlers.Admin == nil || handlers.Public == nil:
		return nil, errors.New("a handler is required for every route class")
	}
	d := &Dispatcher{
		canonicalizer: canonicalizer,
		classifier:    classifier,
		gate:          gate,
		negotiator:    negotiator,
		handlers:      handlers,
		tracer:        otel.Tracer(tracerName),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := d.tracer.Start(r.Context(), "gateway.dispatch",
		trace.WithAttributes(attribute.String("http.request.method", r.Method)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	if decision := d.canonicalizer.Canonicalize(r); decision.Redirect {
		span.SetAttributes(attribute.String("gateway.outcome", "canonical_redirect"))
		d.metrics.IncRedirect("canonical_host")
		d.metrics.IncRouted("none", "redirect")
		http.Redirect(w, r, decision.URL, decision.Status)
		return
	}

	class := d.classifier.Classify(r.URL.Path)
	span.SetAttributes(attribute.String("gateway.route_class", class.String()))
	ctx = requestcontext.WithRouteClass(ctx, class.String())
	ctx = requestcontext.WithOriginalPath(ctx, r.URL.Path)
	r = r.WithContext(ctx)
	defer func() {
		d.metrics.ObserveRequest(class.String(), time.Since(start).Seconds())
	}()

	switch class {
	case classify.Infrastructure:
		d.metrics.IncRouted(class.String(), "served")
		d.handlers.Infrastructure.ServeHTTP(w, r)
	case classify.Administrative:
		d.serveAdmin(w, r, span)
	default:
		d.servePublic(w, r, span)
	}
}

func (d *Dispatcher) serveAdmin(w http.ResponseWriter, r *http.Request, span trace.Span) {
	ctx := r.Context()
	decision, err := d.gate.Authorize(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session verification unavailable")
		d.logger.ErrorContext(ctx, "session verification unavailable",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
		d.metrics.IncRouted(classify.Administrative.String(), "unavailable")
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, httputil.CodeUnavailable, "service temporarily unavailable")
		return
	}

	if decision.Outcome == sessiongate.RedirectToLogin {
		span.SetAttributes(attribute.String("gateway.outcome", "login_redirect"))
		d.metrics.IncRedirect("login")
		d.metrics.IncRouted(classify.Administrative.String(), "redirect")
		http.Redirect(w, r, decision.Location, loginRedirectStatus(r.Method))
		return
	}

	if decision.Principal != nil {
		ctx = requestcontext.WithPrincipal(ctx, *decision.Principal)
	}
	d.metrics.IncRouted(classify.Administrative.String(), "served")
	d.handlers.Admin.ServeHTTP(w, r.WithContext(ctx))
}

func (d *Dispatcher) servePublic(w http.ResponseWriter, r *http.Request, span trace.Span) {
	ctx := r.Context()
	res := d.negotiator.Negotiate(r)
	span.SetAttributes(attribute.String("gateway.locale", string(res.Locale)))

	switch res.Action {
	case localeprefix.Redirect:
		span.SetAttributes(attribute.String("gateway.outcome", "locale_redirect"))
		d.metrics.IncRedirect("locale_prefix")
		d.metrics.IncRouted(classify.Public.String(), "redirect")
		http.Redirect(w, r, res.Location, http.StatusMovedPermanently)
		return
	case localeprefix.NotFound:
		d.metrics.IncRouted(classify.Public.String(), "not_found")
		httputil.WriteJSONError(w, http.StatusNotFound, httputil.CodeNotFound, "page not found")
		return
	}

	ctx = requestcontext.WithLocale(ctx, string(res.Locale))
	out := r.WithContext(ctx)
	if res.Prefixed() {
		u := *r.URL
		u.Path = res.Path
		u.RawPath = stripRawPrefix(r.URL.RawPath, res.Prefix, res.Path)
		out.URL = &u
	}
	w.Header().Set("Content-Language", string(res.Locale))
	d.metrics.IncRouted(classify.Public.String(), "served")
	d.handlers.Public.ServeHTTP(w, out)
}

// stripRawPrefix removes prefix from an escaped path, keeping it only while
// it still decodes to path.
func stripRawPrefix(rawPath, prefix, path string) string {
	if rawPath == "" {
		return ""
	}
	trimmed := strings.TrimPrefix(rawPath, prefix)
	if trimmed == "" {
		trimmed = "/"
	}
	if decoded, err := url.PathUnescape(trimmed); err != nil || decoded != path {
		return ""
	}
	return trimmed
}

// GET and HEAD get 302; anything else 303 so the login page is fetched with GET.
func loginRedirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
