// Package server exposes the chat service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"faqbot/internal/app"
	"faqbot/internal/util"
	"faqbot/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// MaxUploadBytes limits one uploaded file. Zero uses 10 MiB.
	MaxUploadBytes int64
}

// Server exposes HTTP endpoints for the chat service.
type Server struct {
	app            *app.App
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	s := &Server{
		app:            cfg.App,
		maxUploadBytes: maxUpload,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware stack applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog("faqbot", s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/chat/session", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/chat/session/{sessionID}", s.handleGetSession)
	s.mux.HandleFunc("POST /api/chat/documents", s.handleUploadDocuments)
	s.mux.HandleFunc("POST /api/chat/message", s.handleSendMessage)
	s.mux.HandleFunc("GET /api/chat/history/{sessionID}", s.handleHistory)
	s.mux.HandleFunc("GET /api/chat/insights/{sessionID}", s.handleInsights)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	SessionID  string `json:"sessionId"`
	APIKey     string `json:"apiKey"`
	WebsiteURL string `json:"websiteUrl"`
}

type createSessionResponse struct {
	domain.ChatSession
	WebsiteWarning string `json:"websiteWarning,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "apiKey is required")
		return
	}
	session, warning, err := s.app.CreateSession(r.Context(), app.CreateSessionParams{
		SessionID:  req.SessionID,
		APIKey:     req.APIKey,
		WebsiteURL: req.WebsiteURL,
	})
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create chat session")
		return
	}
	writeJSON(w, http.StatusOK, createSessionResponse{ChatSession: session, WebsiteWarning: warning})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.app.GetSession(r.PathValue("sessionID"))
	if err != nil {
		writeAppError(w, r, err, "Failed to retrieve chat session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes*app.MaxUploadFiles+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	fileHeaders := r.MultipartForm.File["documents"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(fileHeaders) > app.MaxUploadFiles {
		writeError(w, http.StatusBadRequest, "Too many files")
		return
	}

	files := make([]app.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > s.maxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large: "+header.Filename)
			return
		}
		data, err := readMultipartFile(header)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read file: "+header.Filename)
			return
		}
		files = append(files, app.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := s.app.UploadDocuments(r.Context(), sessionID, files)
	if err != nil {
		writeAppError(w, r, err, "Failed to process documents")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

type sendMessageResponse struct {
	UserMessage domain.ChatMessage `json:"userMessage"`
	AIMessage   domain.ChatMessage `json:"aiMessage"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "sessionId and content are required")
		return
	}
	userMsg, aiMsg, err := s.app.SendMessage(r.Context(), req.SessionID, req.Content)
	if err != nil {
		writeAppError(w, r, err, "Failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{UserMessage: userMsg, AIMessage: aiMsg})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.app.History(r.PathValue("sessionID"))
	if err != nil {
		writeAppError(w, r, err, "Failed to retrieve chat history")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.app.Insights(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeAppError(w, r, err, "Failed to analyze conversation")
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, app.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	util.LoggerFromContext(r.Context()).Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, fallback)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
