package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"cachebundle/internal/core"
	"cachebundle/internal/publish"
)

// Handler serves files from an output filesystem. Directories are never
// listed. A precompressed <name>.gz sibling is preferred when the client
// accepts gzip.
type Handler struct {
	FS     fs.FS
	Policy *Policy
}

// NewHandler creates a Handler.
func NewHandler(fsys fs.FS, policy *Policy) *Handler {
	return &Handler{FS: fsys, Policy: policy}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}
	info, err := fs.Stat(h.FS, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	content, err := fs.ReadFile(h.FS, name)
	if err != nil {
		slogcontext.FromCtx(r.Context()).Log(r.Context(), slog.LevelError, "reading output",
			slog.String("name", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hdr := w.Header()
	hdr.Set("Cache-Control", h.Policy.CacheControl(name))
	if ct := core.MediaType(name, content); ct != "" {
		hdr.Set("Content-Type", ct)
	}
	strong, _, isCache := core.ParseCacheName(path.Base(name))

	body := content
	gz := name + publish.GzipSuffix
	if _, err := fs.Stat(h.FS, gz); err == nil {
		hdr.Add("Vary", "Accept-Encoding")
		if acceptsGzip(r.Header.Get("Accept-Encoding")) {
			if zipped, err := fs.ReadFile(h.FS, gz); err == nil {
				body = zipped
				hdr.Set("Content-Encoding", "gzip")
			}
		}
	}
	if isCache {
		tag := strong
		if hdr.Get("Content-Encoding") == "gzip" {
			tag += "-gzip"
		}
		hdr.Set("ETag", `"`+tag+`"`)
	}

	slogcontext.FromCtx(r.Context()).Log(r.Context(), slog.LevelDebug, "serving output",
		slog.String("name", name),
		slog.Bool("gzip", hdr.Get("Content-Encoding") == "gzip"),
	)
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(body))
}

// acceptsGzip reports whether an Accept-Encoding value allows gzip. An
// explicit gzip entry wins over "*".
func acceptsGzip(header string) bool {
	gzipQ, starQ := -1.0, -1.0
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				q = f
			}
		}
		switch strings.ToLower(strings.TrimSpace(coding)) {
		case "gzip":
			gzipQ = q
		case "*":
			starQ = q
		}
	}
	if gzipQ >= 0 {
		return gzipQ > 0
	}
	return starQ > 0
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully. Request contexts derive from ctx so they carry its logger.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return Serve(ctx, ln, h)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	logger := slogcontext.FromCtx(ctx)
	logger.Log(ctx, slog.LevelInfo, "serving output", slog.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- server.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	// Shutdown may race with the listener closing.
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
