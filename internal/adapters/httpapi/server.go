// Package httpapi exposes the report catalogue over HTTP as JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registrar/internal/adapters/reports"
	"registrar/internal/core"
)

// Server holds the handler dependencies. Exporter and Metrics are optional;
// their routes answer 404 when unset.
type Server struct {
	svc      *core.Service
	exporter *reports.Exporter
	metrics  prometheus.Gatherer
	logger   core.Logger
	validate *validator.Validate
}

// Option customises a Server.
type Option func(*Server)

func WithExporter(e *reports.Exporter) Option { return func(s *Server) { s.exporter = e } }

func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.metrics = g } }

func WithLogger(l core.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Server over svc.
func New(svc *core.Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: nopLogger{}, validate: validator.New(validator.WithRequiredStructEnabled())}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
		r.Handle("/debug/vars", expvar.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/students", s.listStudents)
		r.Post("/students", s.addStudent)
		r.Patch("/students/{name}/age", s.updateStudentAge)
		r.Delete("/students/{name}", s.deleteStudent)

		r.Get("/courses", s.listCourses)
		r.Post("/courses", s.addCourse)
		r.Delete("/courses/{title}", s.deleteCourse)
		r.Delete("/courses/{title}/enrollments", s.dropEnrollments)

		r.Get("/enrollments/joined", s.joinedEnrollments)
		r.Post("/enrollments", s.enroll)
		r.Post("/grades/rename", s.renameGrade)

		r.Get("/reports", s.listReports)
		r.Get("/reports/{name}", s.runReport)

		r.Post("/exports", s.createExport)
		r.Get("/exports/{id}", s.getExport)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	var (
		refErr       core.ReferenceError
		notFound     core.NotFoundError
		ambiguous    core.AmbiguousLookupError
		conflict     core.ConflictError
		ruleErr      core.RuleViolationError
		validation   core.ValidationError
		fieldErrs    validator.ValidationErrors
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &refErr):
		return http.StatusNotFound, "reference"
	case errors.As(err, &notFound), errors.Is(err, reports.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &ambiguous):
		return http.StatusConflict, "ambiguous"
	case errors.As(err, &conflict):
		return http.StatusConflict, "conflict"
	case errors.As(err, &ruleErr):
		return http.StatusConflict, "rule_violation"
	case errors.As(err, &validation), errors.As(err, &fieldErrs):
		return http.StatusUnprocessableEntity, "validation"
	case errors.As(err, &syntaxErr), errors.As(err, &unmarshalErr), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

var errBadRequest = errors.New("bad request")

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and validates its struct tags.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return err
		}
		return errors.Join(errBadRequest, err)
	}
	return s.validate.Struct(dst)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.ValidationError{Field: key, Value: raw, Reason: "must be an integer"}
	}
	return n, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
