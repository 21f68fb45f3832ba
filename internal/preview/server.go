package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/courses/internal/build"
	"git.home.luguber.info/inful/courses/internal/logfields"
)

// DefaultPort is the port used by `courses serve`.
const DefaultPort = 8000

// StatusFunc reports the most recent build. A nil result means no build has
// finished yet.
type StatusFunc func() *build.Result

// Options configures a Server.
type Options struct {
	// Root is the directory served, normally build/web.
	Root string
	// Addr is the listen address, e.g. ":8000" or "127.0.0.1:0".
	Addr string
	// Prefix mirrors the project url_prefix so generated links resolve.
	Prefix string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Status backs /_status when set.
	Status StatusFunc
	Logger *slog.Logger
}

// Server serves the web target of a course.
type Server struct {
	opts Options
	srv  *http.Server
	ln   net.Listener
	done chan error
}

// New constructs a Server. Nothing is bound until Start.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Prefix = strings.TrimRight(opts.Prefix, "/")
	return &Server{opts: opts}
}

// Handler returns the complete handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	if s.opts.Status != nil {
		mux.HandleFunc("/_status", s.handleStatus)
	}

	files := noStore(http.FileServer(http.Dir(s.opts.Root)))
	if s.opts.Prefix != "" {
		mux.Handle(s.opts.Prefix+"/", http.StripPrefix(s.opts.Prefix, files))
		mux.Handle("/{$}", http.RedirectHandler(s.opts.Prefix+"/", http.StatusFound))
	} else {
		mux.Handle("/", files)
	}
	return chain(s.opts.Logger, mux)
}

type statusResponse struct {
	Status   string    `json:"status"`
	BuildID  string    `json:"build_id,omitempty"`
	Profile  string    `json:"profile,omitempty"`
	Written  int       `json:"written"`
	Failures []string  `json:"failures"`
	Finished time.Time `json:"finished,omitzero"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Status: "pending", Failures: []string{}}
	if res := s.opts.Status(); res != nil {
		resp.Status = string(res.Status)
		resp.BuildID = res.BuildID
		resp.Profile = res.Profile
		resp.Written = res.Written
		resp.Finished = res.EndTime
		for _, f := range res.Failures {
			resp.Failures = append(resp.Failures, f.Error())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Start binds the listen address and serves in the background. Bind errors
// are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("preview server: listen %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.done = make(chan error, 1)
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	s.opts.Logger.Info("Serving course", logfields.Addr(ln.Addr().String()), logfields.Path(s.opts.Root))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL returns the browsable address of the course index.
func (s *Server) URL() string {
	addr := s.Addr()
	if host, port, err := net.SplitHostPort(addr); err == nil && (host == "" || host == "::" || host == "0.0.0.0") {
		addr = net.JoinHostPort("localhost", port)
	}
	return "http://" + addr + s.opts.Prefix + "/"
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
