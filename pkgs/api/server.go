// Package api exposes the disposable-address service over HTTP.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/email"
)

// CleanupSecretHeader carries the shared secret for POST /api/cleanup.
const CleanupSecretHeader = "X-Cleanup-Secret"

// AddressGenerator issues new disposable addresses.
type AddressGenerator interface {
	Generate() (string, error)
}

// MailService reads and purges the catch-all mailbox.
type MailService interface {
	FetchForAddress(address string) ([]email.Message, error)
	Cleanup(retentionDays int) (int, error)
}

// Options configures a Server.
type Options struct {
	// Domain is the catch-all domain every looked-up address must end with.
	Domain string
	// CleanupSecret must match the X-Cleanup-Secret header. When empty,
	// every cleanup request is rejected.
	CleanupSecret string
	RetentionDays int
	Logger        *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	gen    AddressGenerator
	mail   MailService
	opts   Options
	logger *slog.Logger
}

// New creates a Server.
func New(gen AddressGenerator, mail MailService, opts Options) *Server {
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 7
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{gen: gen, mail: mail, opts: opts, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/generate-address", s.handleGenerate)
	mux.HandleFunc("GET /api/emails/{address}", s.handleEmails)
	mux.HandleFunc("POST /api/cleanup", s.handleCleanup)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withRequestLog(s.logger, mux)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	addr, err := s.gen.Generate()
	if err != nil {
		s.logger.Error("address generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate address"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": addr})
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("address")
	if !address.Valid(addr, s.opts.Domain) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid address format"})
		return
	}

	msgs, err := s.mail.FetchForAddress(addr)
	if err != nil {
		s.logger.Error("fetching emails failed", "address", addr, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch emails"})
		return
	}
	if msgs == nil {
		msgs = []email.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCleanup(r.Header.Get(CleanupSecretHeader)) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	days := s.opts.RetentionDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	matched, err := s.mail.Cleanup(days)
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	s.logger.Info("cleanup requested", "retention_days", days, "matched", matched)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cleanup process completed.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authorizedCleanup(got string) bool {
	want := s.opts.CleanupSecret
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}
