// Package httpapi exposes the agent over HTTP: the event stream clients
// register on, the control/push/share endpoints, and the interception
// proxy every other request falls through to.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/looply-app/looply-agent/internal/adapters/clients/hub"
	"github.com/looply-app/looply-agent/internal/application"
	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

const (
	shareMaxMemory   = 32 << 20
	shareMaxFileSize = 16 << 20
	maxControlBytes  = 1 << 20
	maxPushBytes     = 64 << 10

	heartbeatInterval = 30 * time.Second
)

type Server struct {
	intercept *application.InterceptService
	push      *application.PushService
	control   *application.ControlService
	share     *application.ShareService
	clients   *hub.Hub
	pending   *application.PendingWork
	logger    *slog.Logger
}

func NewServer(
	intercept *application.InterceptService,
	push *application.PushService,
	control *application.ControlService,
	share *application.ShareService,
	clients *hub.Hub,
	pending *application.PendingWork,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		intercept: intercept,
		push:      push,
		control:   control,
		share:     share,
		clients:   clients,
		pending:   pending,
		logger:    logger.With("component", "httpapi"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agent/events", s.handleEvents)
	mux.HandleFunc("POST /agent/message", s.handleMessage)
	mux.HandleFunc("POST /agent/push", s.handlePush)
	mux.HandleFunc("POST /agent/notifications/{id}/click", s.handleNotificationClick)
	mux.HandleFunc("POST /agent/notifications/{id}/close", s.handleNotificationClose)
	mux.HandleFunc("POST /share-target", s.handleShareTarget)
	mux.HandleFunc("/", s.handleIntercept)
	return mux
}

// handleEvents is the client registration point: the response is a
// server-sent event stream carrying agent->client control messages for as
// long as the client holds it open.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	info, events, deregister := s.clients.Register(ports.ClientInfo{
		ID:   query.Get("client_id"),
		URL:  query.Get("url"),
		Kind: ports.ClientKind(query.Get("kind")),
	})
	defer deregister()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Client-ID", info.ID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, msg); err != nil {
				s.logger.Warn("write event", "client_id", info.ID, "error", err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, msg domain.ControlMessage) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode control message: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: message\ndata: %s\n\n", encoded)
	return err
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxControlBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if err := s.control.Handle(r.Context(), raw); err != nil {
		s.logger.Error("control message", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPushBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	// The push event stays alive until the notification is displayed.
	id, err := s.push.HandlePush(r.Context(), payload)
	if err != nil {
		s.logger.Error("handle push", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleNotificationClick(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.URL.Query().Get("action")

	decision, err := s.push.HandleClick(r.Context(), id, action)
	if err != nil {
		s.logger.Error("handle click", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"url": decision.URL})
}

func (s *Server) handleNotificationClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Close reporting outlives the callback request; register it so the
	// host keeps the process alive until the broadcast lands.
	ctx := context.WithoutCancel(r.Context())
	s.pending.Go(func() { s.push.HandleClose(ctx, id) })
	w.WriteHeader(http.StatusNoContent)
}

// handleShareTarget accepts the OS share sheet POST. Whatever happens, the
// exchange completes with a redirect to the application root; the share
// sheet must never see a raw error page.
func (s *Server) handleShareTarget(w http.ResponseWriter, r *http.Request) {
	intent := s.parseShareIntent(r)

	if err := s.share.Deliver(r.Context(), intent); err != nil {
		s.logger.Warn("share delivery", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) parseShareIntent(r *http.Request) domain.ShareIntent {
	var intent domain.ShareIntent
	if err := r.ParseMultipartForm(shareMaxMemory); err != nil {
		// Malformed share forms degrade to an empty intent.
		s.logger.Warn("parse share form", "error", err)
		return intent
	}

	intent.Title = r.FormValue("title")
	intent.Text = r.FormValue("text")
	intent.URL = r.FormValue("url")

	if r.MultipartForm == nil {
		return intent
	}
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			s.logger.Warn("open shared file", "name", header.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(file, shareMaxFileSize))
		file.Close()
		if err != nil {
			s.logger.Warn("read shared file", "name", header.Filename, "error", err)
			continue
		}
		intent.Files = append(intent.Files, domain.SharedFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return intent
}

// handleIntercept is the fall-through: every other request goes through
// the cache-first policy.
func (s *Server) handleIntercept(w http.ResponseWriter, r *http.Request) {
	header := make(map[string]string)
	for _, name := range []string{"Accept", "Accept-Language", "User-Agent", "Authorization", "Cookie"} {
		if value := r.Header.Get(name); value != "" {
			header[name] = value
		}
	}

	resp, err := s.intercept.Handle(r.Context(), application.InterceptRequest{
		Method:    r.Method,
		URL:       r.URL.String(),
		Header:    header,
		Accept:    r.Header.Get("Accept"),
		FetchMode: r.Header.Get("Sec-Fetch-Mode"),
		FetchDest: r.Header.Get("Sec-Fetch-Dest"),
	})
	if err != nil {
		s.logger.Warn("intercept", "method", r.Method, "url", r.URL.String(), "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	for name, value := range resp.Header {
		w.Header().Set(name, value)
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		s.logger.Warn("write intercepted response", "error", err)
	}
}
