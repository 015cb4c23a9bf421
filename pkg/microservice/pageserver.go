package microservice

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PageSource is what the server needs from the page cache.
type PageSource interface {
	Fetch(ctx context.Context, url string) (string, error)
	Count(ctx context.Context, url string) (int64, error)
}

// CountResponse is the JSON body served by /count.
type CountResponse struct {
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

// PageServer exposes a PageSource over HTTP:
//
//	GET /page?url=...   page content, with the access count in X-Access-Count
//	GET /count?url=...  CountResponse as JSON
type PageServer struct {
	*BaseServer
	pages  PageSource
	logger zerolog.Logger
}

// NewPageServer creates a PageServer listening on httpPort.
func NewPageServer(pages PageSource, httpPort string, logger zerolog.Logger) *PageServer {
	s := &PageServer{
		BaseServer: NewBaseServer(logger, httpPort),
		pages:      pages,
		logger:     logger.With().Str("component", "PageServer").Logger(),
	}
	s.Mux().HandleFunc("GET /page", s.handlePage)
	s.Mux().HandleFunc("GET /count", s.handleCount)
	return s
}

// requestLogger tags the request with a correlation id, reusing an inbound X-Request-ID.
func (s *PageServer) requestLogger(w http.ResponseWriter, r *http.Request) zerolog.Logger {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	return s.logger.With().Str("request_id", requestID).Str("path", r.URL.Path).Logger()
}

func (s *PageServer) handlePage(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(w, r)
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url query parameter", http.StatusBadRequest)
		return
	}

	content, err := s.pages.Fetch(r.Context(), target)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("Failed to fetch page.")
		http.Error(w, "failed to fetch page", http.StatusBadGateway)
		return
	}

	if n, err := s.pages.Count(r.Context(), target); err == nil {
		w.Header().Set("X-Access-Count", strconv.FormatInt(n, 10))
	} else {
		log.Warn().Err(err).Str("url", target).Msg("Failed to read access count.")
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
	log.Debug().Str("url", target).Int("bytes", len(content)).Msg("Served page.")
}

func (s *PageServer) handleCount(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(w, r)
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url query parameter", http.StatusBadRequest)
		return
	}

	n, err := s.pages.Count(r.Context(), target)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("Failed to read access count.")
		http.Error(w, "failed to read access count", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(CountResponse{URL: target, Count: n}); err != nil {
		log.Error().Err(err).Msg("Failed to encode count response.")
	}
}
