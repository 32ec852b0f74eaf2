package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/xhad/jurnalcek/pkg/scorer"
)

//go:embed index.html
var indexHTML []byte

const msgNoTitle = "No title provided"

type checkRequest struct {
	Title string `json:"title"`
	TopK  int    `json:"top_k,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type journalResponse struct {
	Journal      string `json:"journal"`
	ScopeURL     string `json:"scope_url,omitempty"`
	ScopeSnippet string `json:"scope_snippet"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJournals(w http.ResponseWriter, r *http.Request) {
	journals := s.checker.Journals()
	out := make([]journalResponse, 0, len(journals))
	for _, j := range journals {
		out = append(out, journalResponse{
			Journal:      j.Name,
			ScopeURL:     j.ScopeURL,
			ScopeSnippet: s.checker.Snippet(j.Scope),
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		WriteError(w, http.StatusBadRequest, msgNoTitle)
		return
	}

	result, err := s.checker.Check(r.Context(), req.Title, req.TopK)
	if err != nil {
		if errors.Is(err, scorer.ErrEmptyTitle) {
			WriteError(w, http.StatusBadRequest, msgNoTitle)
			return
		}
		log.Printf("level=error msg=\"check failed\" request_id=%s err=%q", RequestIDFrom(r.Context()), err)
		WriteError(w, http.StatusInternalServerError, "failed to check title")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
