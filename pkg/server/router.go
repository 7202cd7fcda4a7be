package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/journal"
	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/proxy/middleware"
	"mercator-hq/callisto/pkg/proxy/types"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/upstream"
)

// Reserved gateway paths. They are served by the gateway itself and never
// forwarded.
const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
	VersionPath   = "/version"
)

// HealthReader exposes the current upstream health. *upstream.Tracker
// implements it.
type HealthReader interface {
	Current() upstream.State
}

// Journal receives one entry per completed request. *journal.Recorder
// implements it.
type Journal interface {
	Record(e journal.Entry) bool
}

// BuildInfo is reported by the version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Deps are the components the router dispatches to. Auth, Metrics,
// Checker, Journal, and Logger may be nil.
type Deps struct {
	Target    upstream.Target
	Table     *routing.Table
	Forwarder *proxy.Forwarder
	Health    HealthReader
	Auth      *auth.Authenticator

	CORS        *middleware.CORSConfig
	MetricsPath string
	Metrics     *metrics.Collector
	Checker     *health.Checker
	Journal     Journal
	Build       BuildInfo
	Logger      *slog.Logger
}

type router struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter builds the gateway handler.
//
// GET and HEAD on / return the gateway summary without contacting the
// upstream. The metrics, liveness, readiness, and version paths are
// served locally. Every other request is matched against the rule table:
// no match is a 404, a health-gated rule while the upstream is unhealthy
// is a 503, and anything else is forwarded. A method that does not match
// any rule is a 404 route miss rather than a 405. When Auth is set,
// forwarded requests without a valid access key are a 401.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cors := d.CORS
	if cors == nil {
		cors = middleware.DefaultCORSConfig()
	}
	rt := &router{deps: d, logger: logger.With("component", "server.router")}

	mux := chi.NewRouter()
	mux.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(cors),
	)

	mux.Get("/", rt.summary)
	mux.Head("/", rt.summary)

	if d.MetricsPath != "" && d.Metrics != nil {
		mux.Handle(d.MetricsPath, d.Metrics.Handler())
	}
	if d.Checker != nil {
		mux.Get(LivenessPath, d.Checker.LivenessHandler())
		mux.Get(ReadinessPath, d.Checker.ReadinessHandler())
	}
	mux.Get(VersionPath, health.VersionHandler(d.Build.Version, d.Build.Commit, d.Build.BuildTime))

	mux.NotFound(rt.dispatch)
	mux.MethodNotAllowed(rt.dispatch)

	return mux
}

func (rt *router) summary(w http.ResponseWriter, r *http.Request) {
	_ = proxy.WriteJSONResponse(w, http.StatusOK, types.Summary{
		Status:   "ok",
		Upstream: rt.deps.Target.Address(),
	})
}

func (rt *router) dispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if rt.deps.Auth != nil {
		info, err := rt.deps.Auth.Authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="callisto"`)
			_ = proxy.WriteError(w, err)
			rt.finish(r, "", http.StatusUnauthorized, start, 0, err)
			return
		}
		// The access key is ours, not the upstream's.
		r.Header.Del(info.Header)
		r = r.WithContext(auth.WithKeyInfo(r.Context(), info))
	}

	rule, err := rt.deps.Table.Match(r.Method, r.URL.Path)
	if err != nil {
		_ = proxy.WriteError(w, err)
		rt.finish(r, "", proxy.StatusFor(err), start, 0, err)
		return
	}

	if rule.HealthGated {
		if state := rt.deps.Health.Current(); state.Status == upstream.StatusUnhealthy {
			err := &proxy.UnavailableError{Upstream: rt.deps.Target.Address(), LastError: state.LastError}
			rt.deps.Metrics.RecordUpstreamError("unavailable")
			_ = proxy.WriteError(w, err)
			rt.finish(r, rule.Name, http.StatusServiceUnavailable, start, 0, err)
			return
		}
	}

	rt.deps.Metrics.IncInFlight()
	defer rt.deps.Metrics.DecInFlight()

	res := rt.deps.Forwarder.Forward(r, rule)
	defer res.Close()

	n, werr := res.WriteResponse(w)
	if werr != nil {
		rt.logger.WarnContext(r.Context(), "response stream interrupted",
			"route", rule.Name,
			"bytes", n,
			"error", werr,
		)
	}

	ferr := res.Err
	if ferr == nil {
		ferr = werr
	}
	rt.finish(r, rule.Name, res.StatusCode, start, n, ferr)
}

// finish records metrics and the journal entry for a completed request.
func (rt *router) finish(r *http.Request, route string, status int, start time.Time, bytes int64, err error) {
	duration := time.Since(start)

	label := route
	if label == "" {
		label = "unmatched"
	}
	rt.deps.Metrics.RecordRequest(label, r.Method, status, duration, bytes)

	if rt.deps.Journal == nil {
		return
	}

	entry := journal.Entry{
		Time:       start,
		RequestID:  logging.GetRequestID(r.Context()),
		Method:     r.Method,
		Path:       r.URL.Path,
		Route:      route,
		Status:     status,
		DurationMs: duration.Milliseconds(),
		BytesOut:   bytes,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	rt.deps.Journal.Record(entry)
}
