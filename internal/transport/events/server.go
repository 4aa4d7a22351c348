// Package events receives signed moderation event pushes from external
// integrations (report forms, sibling bots) over a small HTTP surface,
// authenticated with an HMAC signature and a replay window.
package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/security"
)

const (
	HeaderMessageID   = "Message-Id"
	HeaderTimestamp   = "Message-Timestamp"
	HeaderSignature   = "Message-Signature"
	HeaderMessageType = "Message-Type"

	TypeVerification = "webhook_callback_verification"
	TypeNotification = "notification"
	TypeRevocation   = "revocation"

	maxBodySize = 1 << 20
)

// Notification is the payload of a moderation event push.
type Notification struct {
	ChatID     int64  `json:"chat_id"`
	UserID     int64  `json:"user_id"`
	ReporterID int64  `json:"reporter_id"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}

type verification struct {
	Challenge string `json:"challenge"`
}

// NotificationHandler consumes verified notifications.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n Notification) error
}

type Server struct {
	logger  *slog.Logger
	secret  string
	handler NotificationHandler
	server  *http.Server
}

func NewServer(logger *slog.Logger, addr, secret string, handler NotificationHandler) *Server {
	s := &Server{
		logger:  logger,
		secret:  secret,
		handler: handler,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvent)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Listen() error {
	s.logger.Info("Events server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// The signature covers the raw bytes, so read before any decoding.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		metrics.IncWebhookRejection("body_read")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	messageID := r.Header.Get(HeaderMessageID)
	timestamp := r.Header.Get(HeaderTimestamp)
	signature := r.Header.Get(HeaderSignature)

	if !security.Validate(messageID, timestamp, body, signature, s.secret) {
		s.logger.Warn("Rejected event push", "message_id", messageID)
		metrics.IncWebhookRejection("signature")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	switch r.Header.Get(HeaderMessageType) {
	case TypeVerification:
		var v verification
		if err := json.Unmarshal(body, &v); err != nil {
			metrics.IncWebhookRejection("malformed")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		if _, err := w.Write([]byte(v.Challenge)); err != nil {
			s.logger.Error("Failed to write verification challenge", "error", err)
		}
	case TypeNotification:
		var n Notification
		if err := json.Unmarshal(body, &n); err != nil {
			metrics.IncWebhookRejection("malformed")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := s.handler.HandleNotification(r.Context(), n); err != nil {
			s.logger.Error("Failed to handle notification", "message_id", messageID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case TypeRevocation:
		s.logger.Warn("Event subscription revoked", "message_id", messageID)
		w.WriteHeader(http.StatusNoContent)
	default:
		metrics.IncWebhookRejection("unknown_type")
		w.WriteHeader(http.StatusBadRequest)
	}
}
