// The proxy serves the built admin UI and forwards API and upload
// traffic to the backend, so the browser sees a single origin.
package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	upstreamRaw := os.Getenv("UPSTREAM_URL")
	if upstreamRaw == "" {
		upstreamRaw = "http://localhost:3004"
	}
	upstream, err := url.Parse(upstreamRaw)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %v", err)
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./build"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           newHandler(upstream, staticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Admin proxy listening on :%s (upstream %s)", port, upstream)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("proxy failed: %v", err)
	}
}

// newHandler forwards /api and /uploads to the upstream and serves the
// static build for everything else, falling back to index.html so
// client-side routes survive a page reload.
func newHandler(upstream *url.URL, staticDir string) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("proxy error for %s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"code":"BAD_GATEWAY","error":"Upstream unavailable"}`))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", proxy)
	mux.Handle("/uploads/", proxy)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serveStatic(w, r, staticDir)
	})
	return mux
}

func serveStatic(w http.ResponseWriter, r *http.Request, staticDir string) {
	requested := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		if strings.HasPrefix(r.URL.Path, "/static/") || strings.HasPrefix(r.URL.Path, "/assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.ServeFile(w, r, requested)
		return
	}
	// SPA fallback
	http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
}
