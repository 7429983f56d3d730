package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/karlseguin/ccache"
	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/events"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/performance"
	"github.com/neritic/functiond/util"
)

type contextKey int

// Constants serve as keys for setting values on a request-scoped Context.
const (
	CallerVal contextKey = iota
	CaptureGroupsVal
	GEMVal
	Logger
	SessionID
	DAO
)

// AppServer is an http.Handler implementation that holds most service dependencies.
type AppServer struct {
	// Port is the TCP port that the web server listens on.
	Port string
	// Bind is the network address that the web server will use.
	Bind string
	// Addr is the combined network address and port the server listens on.
	Addr string
	// RootDAO is the interface contract with the database.
	RootDAO dao.DAO
	// Conf is the configuration passed to the application.
	Conf config.ServerSettingsConfiguration
	// ServicePrefix is the base url. Used when matching routes.
	ServicePrefix string
	// Engine runs function payloads in containers.
	Engine executor.Executor
	// EventQueue is a Publisher interface we use to publish our main event stream.
	EventQueue events.Publisher
	// Tracker captures metrics about execution throughput.
	Tracker *performance.JobReporters
	// Routes holds the compiled regular expressions used when matching routes. See InitRegex method.
	Routes *StaticRx
	// FunctionLruCache caches function records by guid, purging those least
	// recently used. Up to 1000 functions are retained in memory.
	FunctionLruCache *ccache.Cache
}

// StaticRx locates compiled regular expressions per route.
type StaticRx struct {
	StatsObject            *regexp.Regexp
	Ping                   *regexp.Regexp
	Functions              *regexp.Regexp
	Function               *regexp.Regexp
	FunctionRun            *regexp.Regexp
	FunctionMetrics        *regexp.Regexp
	FunctionMetricsHistory *regexp.Regexp
	FunctionCompare        *regexp.Regexp
	MetricsSummary         *regexp.Regexp
}

// NewAppServer creates an AppServer.
func NewAppServer(conf config.ServerSettingsConfiguration) (*AppServer, error) {

	functionLruCache := ccache.New(ccache.Configure().MaxSize(1000).ItemsToPrune(50))

	app := AppServer{
		Port:             conf.ListenPort,
		Bind:             conf.ListenBind,
		Addr:             conf.ListenBind + ":" + conf.ListenPort,
		Conf:             conf,
		Tracker:          performance.NewJobReporters(1024),
		ServicePrefix:    "^",
		FunctionLruCache: functionLruCache,
	}

	app.InitRegex()

	return &app, nil
}

// InitRegex compiles static regexes and initializes the AppServer Routes field.
func (h *AppServer) InitRegex() {
	route := func(path string) *regexp.Regexp {
		return regexp.MustCompile(h.ServicePrefix + path)
	}
	h.Routes = &StaticRx{
		StatsObject: route("/stats$"),
		Ping:        route("/ping$"),
		// - functions
		Functions:   route("/functions/?$"),
		Function:    route("/functions/(?P<functionId>[0-9a-fA-F]{32})$"),
		FunctionRun: route("/functions/(?P<functionId>[0-9a-fA-F]{32})/run$"),
		// - metrics
		FunctionMetrics:        route("/functions/(?P<functionId>[0-9a-fA-F]{32})/metrics$"),
		FunctionMetricsHistory: route("/functions/(?P<functionId>[0-9a-fA-F]{32})/metrics/history$"),
		FunctionCompare:        route("/functions/(?P<functionId>[0-9a-fA-F]{32})/compare$"),
		MetricsSummary:         route("/metrics/?$"),
	}
}

// When there is a panic, all deferred functions get executed.
func logCrashInServeHTTP(logger *zap.Logger, w http.ResponseWriter) {
	if r := recover(); r != nil {
		logger.Error("functiond crash", zap.Any("context", r), zap.String("stack", string(debug.Stack())))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ServeHTTP handles the routing of requests
func (h AppServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	sessionID := newSessionID()
	w.Header().Add("sessionid", sessionID)

	caller := CallerFromRequest(r)
	logger := config.RootLogger.With(zap.String("session", sessionID))
	defer logCrashInServeHTTP(logger, w)

	gem := globalEventFromRequest(r)
	gem.Payload.User = caller.Identity
	gem.Payload.SessionID = sessionID

	ctx := r.Context()
	ctx = ContextWithLogger(ctx, logger)
	ctx = ContextWithCaller(ctx, caller)
	ctx = ContextWithSession(ctx, sessionID)
	ctx = ContextWithDAO(ctx, h.RootDAO)
	ctx = ContextWithGEM(ctx, gem)

	logger.Info(
		"transaction start",
		zap.String("user", caller.Identity),
		zap.String("method", r.Method),
		zap.String("uri", r.RequestURI),
	)

	var uri = r.URL.Path
	var herr *AppError

	// CORS support - reflect back an allowed origin
	if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" && h.originAllowed(reqOrigin) {
		w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Vary", "Origin")

	switch r.Method {
	case "OPTIONS":
		// Handle the pre-flight request here
		herr = h.cors(ctx, w, r)

	case "GET":
		switch {
		case h.Routes.Ping.MatchString(uri):
			herr = h.ping(ctx, w, r)
		case h.Routes.StatsObject.MatchString(uri):
			herr = h.getStats(ctx, w, r)
		// - list functions
		case h.Routes.Functions.MatchString(uri):
			herr = h.listFunctions(ctx, w, r)
		// - latest execution metrics of a function
		case h.Routes.FunctionMetrics.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.FunctionMetrics)
			herr = h.getFunctionMetrics(ctx, w, r)
		// - execution metric history of a function
		case h.Routes.FunctionMetricsHistory.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.FunctionMetricsHistory)
			herr = h.listFunctionMetrics(ctx, w, r)
		// - run under both runtimes and compare
		case h.Routes.FunctionCompare.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.FunctionCompare)
			herr = h.compareRuntimes(ctx, w, r)
		// - fetch a function
		case h.Routes.Function.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.Function)
			herr = h.getFunction(ctx, w, r)
		// - aggregate metrics for all functions
		case h.Routes.MetricsSummary.MatchString(uri):
			herr = h.listMetricsSummary(ctx, w, r)
		default:
			herr = do404(ctx, w, r)
			h.publishError(gem, herr)
		}

	case "POST":
		switch {
		// - register a function
		case h.Routes.Functions.MatchString(uri):
			herr = h.createFunction(ctx, w, r)
		// - execute a function
		case h.Routes.FunctionRun.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.FunctionRun)
			herr = h.runFunction(ctx, w, r)
		default:
			herr = do404(ctx, w, r)
			h.publishError(gem, herr)
		}

	case "PUT":
		switch {
		// - update a function
		case h.Routes.Function.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.Function)
			herr = h.updateFunction(ctx, w, r)
		default:
			herr = do404(ctx, w, r)
			h.publishError(gem, herr)
		}

	case "DELETE":
		switch {
		// - delete a function
		case h.Routes.Function.MatchString(uri):
			ctx = parseCaptureGroups(ctx, r.URL.Path, h.Routes.Function)
			herr = h.deleteFunction(ctx, w, r)
		default:
			herr = do404(ctx, w, r)
			h.publishError(gem, herr)
		}

	default:
		herr = do404(ctx, w, r)
		h.publishError(gem, herr)
	}

	if herr != nil {
		sendAppErrorResponse(logger, &w, herr)
	} else {
		countOKResponse(logger)
	}
}

func (h AppServer) originAllowed(origin string) bool {
	for _, allowed := range h.Conf.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (h *AppServer) publishError(gem events.GEM, herr *AppError) {
	gem.Payload.Success = false
	gem.Payload.StatusCode = herr.Code
	if herr.Error != nil {
		if errMsg := herr.Error.Error(); len(errMsg) > 0 {
			gem.Payload.Messages = append(gem.Payload.Messages, errMsg)
		}
	}
	if len(herr.Msg) > 0 {
		gem.Payload.Messages = append(gem.Payload.Messages, herr.Msg)
	}
	h.EventQueue.Publish(gem)
}

func (h *AppServer) publishSuccess(gem events.GEM, code int) {
	gem.Payload.Success = true
	gem.Payload.StatusCode = code
	h.EventQueue.Publish(gem)
}

func newSessionID() string {
	return config.RandomID()
}

// ContextWithSession puts the sessionID on the context, used for log correlation
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionID, sessionID)
}

// ContextWithCaller returns a new Context object with a Caller value set. The const CallerVal acts
// as the key that maps to the caller value.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerVal, caller)
}

// ContextWithGEM attaches a GEM to the context object.
func ContextWithGEM(ctx context.Context, gem events.GEM) context.Context {
	return context.WithValue(ctx, GEMVal, gem)
}

// ContextWithDAO puts the DAO on the context, so that handlers stay testable
func ContextWithDAO(ctx context.Context, d dao.DAO) context.Context {
	return context.WithValue(ctx, DAO, d)
}

// ContextWithLogger puts the logger on the context
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, Logger, logger)
}

// DAOFromContext returns the DAO associated with the context
func DAOFromContext(ctx context.Context) dao.DAO {
	d, ok := ctx.Value(DAO).(dao.DAO)
	if !ok {
		LoggerFromContext(ctx).Error("cannot get dao from context")
	}
	return d
}

// CallerFromContext extracts a Caller from a context, if set.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerVal).(Caller)
	return caller, ok
}

// GEMFromContext extracts a GEM from a context, if set.
func GEMFromContext(ctx context.Context) (events.GEM, bool) {
	gem, ok := ctx.Value(GEMVal).(events.GEM)
	return gem, ok
}

// SessionIDFromContext extracts the session id from the context
func SessionIDFromContext(ctx context.Context) string {
	sessionID, ok := ctx.Value(SessionID).(string)
	if !ok {
		return "unknown"
	}
	return sessionID
}

// LoggerFromContext gets a zap logger from our context
func LoggerFromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(Logger).(*zap.Logger)
	if !ok {
		log.Print("!!! Any ctx object you get should have a logger set on it")
		return zap.NewNop()
	}
	return logger
}

func parseCaptureGroups(ctx context.Context, path string, regex *regexp.Regexp) context.Context {
	captured := util.GetRegexCaptureGroups(path, regex)
	return context.WithValue(ctx, CaptureGroupsVal, captured)
}

// CaptureGroupsFromContext extracts the capture groups from a context, if set
func CaptureGroupsFromContext(ctx context.Context) (map[string]string, bool) {
	captured, ok := ctx.Value(CaptureGroupsVal).(map[string]string)
	return captured, ok
}

func jsonResponse(w http.ResponseWriter, i interface{}) {
	w.Header().Set("Content-Type", "application/json")
	jsonData, _ := json.MarshalIndent(i, "", "  ")
	w.Write(jsonData)
}

func jsonResponseWithCode(w http.ResponseWriter, code int, i interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	jsonData, _ := json.MarshalIndent(i, "", "  ")
	w.Write(jsonData)
}

// newGUID is a helper that ignores the error from util.NewGUID. If that function ever returns
// an error, something is seriously wrong with underlying hardware.
func newGUID() string {
	guid, err := util.NewGUID()
	if err != nil {
		log.Printf("could not create GUID: %s", err.Error())
	}
	return guid
}
