// Package api exposes editing sessions over HTTP and websockets.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/deylin/studio/internal/auth"
	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/session"
	"github.com/deylin/studio/internal/snapshotstore"
	"github.com/deylin/studio/internal/style"
)

// DefaultMaxUpload bounds image uploads.
const DefaultMaxUpload = 10 << 20

type Options struct {
	Sessions *session.Manager
	Auth     *auth.Service
	Resolver *style.Resolver

	MaxUploadBytes int64
	// OriginPatterns are the hosts allowed to open the gesture websocket.
	OriginPatterns []string
}

type Handler struct {
	sessions  *session.Manager
	auth      *auth.Service
	resolver  *style.Resolver
	maxUpload int64
	maxBody   int64
	origins   []string
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		sessions:  opts.Sessions,
		auth:      opts.Auth,
		resolver:  opts.Resolver,
		maxUpload: opts.MaxUploadBytes,
		origins:   opts.OriginPatterns,
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUpload
	}
	// JSON bodies may carry an uploaded image as a base64 data URL.
	h.maxBody = h.maxUpload*4/3 + 64<<10
	if h.resolver == nil {
		h.resolver = style.NewResolver()
	}
	return h
}

// Register mounts every route on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/styles", h.Styles).Methods("GET")
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.Handle("/sessions/{sessionId}", h.auth.SessionMiddleware(http.HandlerFunc(h.DiscardSession))).Methods("DELETE")

	s := r.PathPrefix("/sessions/{sessionId}").Subrouter()
	s.Use(h.auth.SessionMiddleware)

	s.HandleFunc("/scene", h.withSession(h.Scene)).Methods("GET")
	s.HandleFunc("/render", h.withSession(h.Render)).Methods("GET")
	s.HandleFunc("/hit", h.withSession(h.HitTest)).Methods("GET")
	s.HandleFunc("/selection", h.withSession(h.Selection)).Methods("GET")

	s.HandleFunc("/elements", h.withSession(h.AddElement)).Methods("POST")
	s.HandleFunc("/elements/{elementId}", h.withSession(h.UpdateElement)).Methods("PATCH")
	s.HandleFunc("/elements/{elementId}", h.withSession(h.DeleteElement)).Methods("DELETE")
	s.HandleFunc("/images", h.withSession(h.UploadImage)).Methods("POST")

	s.HandleFunc("/select", h.withSession(h.Select)).Methods("POST")
	s.HandleFunc("/deselect", h.withSession(h.Deselect)).Methods("POST")
	s.HandleFunc("/reorder", h.withSession(h.Reorder)).Methods("POST")
	s.HandleFunc("/clear", h.withSession(h.Clear)).Methods("POST")
	s.HandleFunc("/undo", h.withSession(h.Undo)).Methods("POST")
	s.HandleFunc("/redo", h.withSession(h.Redo)).Methods("POST")
	s.HandleFunc("/frame", h.withSession(h.SetFrame)).Methods("PUT")
	s.HandleFunc("/gestures", h.withSession(h.Gesture)).Methods("POST")

	s.HandleFunc("/export", h.withSession(h.Export)).Methods("POST")
	s.HandleFunc("/snapshot", h.withSession(h.Snapshot)).Methods("POST")
	s.HandleFunc("/ws", h.withSession(h.Stream)).Methods("GET")
}

// DiscardSession ends the session and deletes its saved snapshots.
func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Discard(r.Context(), mux.Vars(r)["sessionId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

func (h *Handler) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
		if err != nil {
			handleServiceError(w, err)
			return
		}
		fn(w, r, s)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.sessions.Len()})
}

func (h *Handler) Styles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.resolver.Catalog())
}

type createSessionRequest struct {
	RestoreFrom string `json:"restoreFrom"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if !h.decodeBody(w, r, &req) {
			return
		}
	}

	s, err := h.sessions.Create(r.Context(), req.RestoreFrom)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	token, err := h.auth.IssueToken(s.ID)
	if err != nil {
		slog.Error("issue session token failed", "session", s.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: s.ID, Token: token})
}

// --- Queries ---

func (h *Handler) Scene(w http.ResponseWriter, r *http.Request, s *session.Session) {
	data, err := s.Engine.Serialize()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeRawJSON(w, http.StatusOK, []byte(s.Engine.RenderJSON()))
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request, s *session.Session) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y are required numbers"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": s.Engine.HitTest(x, y)})
}

func (h *Handler) Selection(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     s.Engine.Store().SelectedID(),
		"bounds": s.Engine.SelectionBounds(),
	})
}

// --- Commands ---

type addElementRequest struct {
	Kind      string      `json:"kind"`
	Content   string      `json:"content"`
	Overrides scene.Patch `json:"overrides"`
}

func (h *Handler) AddElement(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req addElementRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	kind, err := scene.ParseKind(req.Kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	id := s.Engine.AddElement(kind, req.Content, req.Overrides)
	h.publish(s)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateElement always answers 204: patches of deleted elements are dropped.
func (h *Handler) UpdateElement(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var p scene.Patch
	if !h.decodeBody(w, r, &p) {
		return
	}
	if s.Engine.UpdateElement(mux.Vars(r)["elementId"], p) {
		h.publish(s)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteElement(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if s.Engine.DeleteElement(mux.Vars(r)["elementId"]) {
		h.publish(s)
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req selectRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if s.Engine.Select(req.ID) {
		h.publish(s)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Deselect(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Engine.Deselect()
	h.publish(s)
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req reorderRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if s.Engine.Reorder(req.From, req.To) {
		h.publish(s)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Engine.Clear()
	h.publish(s)
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Changed bool `json:"changed"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.history(w, s, s.Engine.Undo())
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.history(w, s, s.Engine.Redo())
}

func (h *Handler) history(w http.ResponseWriter, s *session.Session, changed bool) {
	if changed {
		h.publish(s)
	}
	st := s.Engine.Store()
	writeJSON(w, http.StatusOK, historyResponse{Changed: changed, CanUndo: st.CanUndo(), CanRedo: st.CanRedo()})
}

func (h *Handler) SetFrame(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var f scene.Frame
	if !h.decodeBody(w, r, &f) {
		return
	}
	s.Engine.SetFrame(f)
	h.publish(s)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Gesture(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var g engine.Gesture
	if !h.decodeBody(w, r, &g) {
		return
	}
	changed, err := s.Engine.ApplyGesture(g)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if changed {
		h.publish(s)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// --- Export and persistence ---

func (h *Handler) Export(w http.ResponseWriter, r *http.Request, s *session.Session) {
	data, err := s.Engine.Export(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.publish(s)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", engine.ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request, s *session.Session) {
	snap, err := h.sessions.Save(r.Context(), s.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// --- Helpers ---

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, snapshotstore.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot not found"})
	case errors.Is(err, scene.ErrInvalidKind), errors.Is(err, engine.ErrUnknownGesture):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrExportBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "export already in progress"})
	case errors.Is(err, engine.ErrExportFailed):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "export failed, try again"})
	case errors.Is(err, session.ErrNoStore):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "snapshots are disabled"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
