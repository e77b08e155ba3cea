package server

import (
	"fmt"
	"io"
	"os"
)

var endpoints = []struct{ method, path, desc string }{
	{"GET", "/health", "Health check"},
	{"GET", "/stats", "Server statistics"},
	{"POST", "/api/v1/analyze", "Analyze a portfolio against a job (JSON or SSE)"},
	{"POST", "/api/v1/optimize", "Rewrite a resume from an analysis (JSON or SSE)"},
	{"GET", "/api/v1/analyses/{id}", "Fetch a stored analysis"},
	{"GET", "/api/v1/optimizations?resumeId=", "List stored rewrites of a portfolio"},
	{"GET", "/api/v1/optimizations/{id}", "Fetch a stored rewrite"},
	{"GET", "/api/v1/optimizations/{id}/compare", "Compare a rewrite with its analysis"},
	{"POST", "/api/v1/portfolios", "Store a portfolio"},
	{"GET", "/api/v1/portfolios/{id}", "Fetch a stored portfolio"},
	{"POST", "/api/v1/select", "Select portfolio items for a job"},
}

// displayServerInfo prints the endpoints and security settings at startup.
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(w io.Writer) {
	fmt.Fprintln(w, "Available endpoints:")
	for _, e := range endpoints {
		fmt.Fprintf(w, "  %-4s %-36s - %s\n", e.method, e.path, e.desc)
	}

	if n := len(s.APIKeys); n > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", n)
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
	}

	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d, per IP: %t, per API key: %t)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, s.RateLimit.ByIP, s.RateLimit.ByAPIKey)
}
