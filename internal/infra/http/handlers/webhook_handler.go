package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xavierca1/mrk-crm/internal/usecase"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookHandler receives Meta lead forms and WhatsApp bot conversations.
// Both routes are unauthenticated; Meta requests are signed when AppSecret
// is configured.
type WebhookHandler struct {
	Ingest    *usecase.IngestLeadUseCase
	AppSecret string
	Logger    *slog.Logger
}

func NewWebhookHandler(ingest *usecase.IngestLeadUseCase, appSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{Ingest: ingest, AppSecret: appSecret, Logger: logger}
}

// Meta (POST /webhooks/meta)
func (h *WebhookHandler) Meta(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if h.AppSecret != "" && !validSignature(h.AppSecret, raw, r.Header.Get(signatureHeader)) {
		h.Logger.Warn("meta webhook signature mismatch", "remote", r.RemoteAddr)
		writeErrorResponse(w, http.StatusUnauthorized, "invalid_signature", "signature does not match payload")
		return
	}

	payload, ok := decodePayload(w, raw)
	if !ok {
		return
	}

	out, err := h.Ingest.IngestMeta(r.Context(), payload)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("meta lead ingested", "lead_id", out.LeadID, "status", out.Status)
	writeJSON(w, http.StatusOK, out)
}

// WhatsApp (POST /webhooks/whatsapp)
func (h *WebhookHandler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readBody(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, raw)
	if !ok {
		return
	}

	out, err := h.Ingest.IngestWhatsApp(r.Context(), payload, json.RawMessage(raw))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("whatsapp conversation ingested", "lead_id", out.LeadID, "status", out.Status)
	writeJSON(w, http.StatusOK, out)
}

func (h *WebhookHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_json", err.Error())
		return nil, false
	}
	return bytes.TrimSpace(raw), true
}

// decodePayload accepts only a JSON object.
func decodePayload(w http.ResponseWriter, raw []byte) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_json", "body must be a JSON object")
		return nil, false
	}
	return payload, true
}

// validSignature checks a "sha256=<hex>" header against the HMAC of body.
func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
