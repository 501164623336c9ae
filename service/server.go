package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grailbio/base/log"
	"golang.org/x/sync/semaphore"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/version"
)

// RequestIDHeader carries the id of a QC request back to the caller
const RequestIDHeader = "X-Request-Id"

// ServerOptions configures the HTTP front-end
type ServerOptions struct {
	// MonitorPath is the directory runfolders are looked up in
	MonitorPath string

	// MaxConcurrent bounds the number of runs evaluated at once
	MaxConcurrent int

	// Defaults are applied to every request, query parameters extend them
	Defaults domain.GatherOptions

	Loader   *QCDataLoaderImpl
	Reporter *Reporter
}

// Server answers GET /{runfolder} with the rendered QC view of the run
type Server struct {
	opts ServerOptions
	sem  *semaphore.Weighted
}

// ServerResponse is the body of a successful QC request
type ServerResponse struct {
	RequestID  string            `json:"request_id"`
	Runfolder  string            `json:"runfolder"`
	ExitStatus int               `json:"exit_status"`
	Passed     bool              `json:"passed"`
	View       string            `json:"view"`
	Output     domain.ViewOutput `json:"output"`
	Version    string            `json:"version"`
}

// ServerError is the body of a failed QC request
type ServerError struct {
	RequestID string `json:"request_id"`
	Runfolder string `json:"runfolder,omitempty"`
	Error     string `json:"error"`
}

// NewServer creates the HTTP front-end
func NewServer(opts ServerOptions) *Server {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Loader == nil {
		opts.Loader = NewQCDataLoader(nil)
	}
	return &Server{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /{runfolder}", s.handleRunfolder)
	return mux
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving QC reports for %s on %s", s.opts.MonitorPath, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRunfolder(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)

	runfolder := r.PathValue("runfolder")
	if runfolder == "" || runfolder == "." || runfolder == ".." || strings.ContainsAny(runfolder, `/\`) {
		s.fail(w, http.StatusBadRequest, requestID, runfolder, domain.NewInvalidInputError("invalid runfolder name", nil))
		return
	}

	opts, err := s.requestOptions(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, requestID, runfolder, err)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		s.fail(w, http.StatusServiceUnavailable, requestID, runfolder, err)
		return
	}
	defer s.sem.Release(1)

	path := filepath.Join(s.opts.MonitorPath, runfolder)
	data, err := s.opts.Loader.Load(path)
	if err != nil {
		s.fail(w, statusFor(err), requestID, runfolder, err)
		return
	}

	eval, err := s.opts.Reporter.Evaluate(data, opts)
	if err != nil {
		s.fail(w, statusFor(err), requestID, runfolder, err)
		return
	}
	log.Printf("[%s] %s: exit status %d", requestID, runfolder, eval.ExitStatus)

	w.Header().Set("Content-Type", "application/json")
	_ = WriteJSON(w, ServerResponse{
		RequestID:  requestID,
		Runfolder:  runfolder,
		ExitStatus: eval.ExitStatus,
		Passed:     eval.ExitStatus == domain.ExitPass,
		View:       eval.View,
		Output:     eval.Output,
		Version:    version.GetVersion(),
	})
}

// requestOptions reads use_closest_read_length, downgrade and view
func (s *Server) requestOptions(r *http.Request) (domain.GatherOptions, error) {
	opts := domain.GatherOptions{
		UseClosestReadLength: s.opts.Defaults.UseClosestReadLength,
		DowngradeErrorsFor:   append([]string(nil), s.opts.Defaults.DowngradeErrorsFor...),
		View:                 s.opts.Defaults.View,
	}
	q := r.URL.Query()

	if raw := q.Get("use_closest_read_length"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, domain.NewInvalidInputError(fmt.Sprintf("use_closest_read_length: %q is not a boolean", raw), nil)
		}
		opts.UseClosestReadLength = b
	}
	for _, raw := range q["downgrade"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.DowngradeErrorsFor = append(opts.DowngradeErrorsFor, name)
			}
		}
	}
	if v := q.Get("view"); v != "" {
		if !domain.IsKnownView(v) {
			return opts, domain.NewInvalidInputError(fmt.Sprintf("unknown view %q", v), nil)
		}
		opts.View = v
	}
	return opts, nil
}

func statusFor(err error) int {
	var de domain.DomainError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &de) && de.Code == domain.ErrCodeParseError:
		return http.StatusUnprocessableEntity
	default:
		// ConfigEntryMissing and other configuration errors are server side
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, requestID, runfolder string, err error) {
	if status >= http.StatusInternalServerError {
		log.Error.Printf("[%s] %s: %v", requestID, runfolder, err)
	} else {
		log.Debug.Printf("[%s] %s: %v", requestID, runfolder, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = WriteJSON(w, ServerError{RequestID: requestID, Runfolder: runfolder, Error: err.Error()})
}
