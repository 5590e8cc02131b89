package research

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/researchclip/service-api-go/internal/auth"
	"github.com/researchclip/service-api-go/internal/config"
	"github.com/researchclip/service-api-go/internal/upstream"
)

// Handler persists research payloads captured by the browser extension.
type Handler struct {
	api    upstream.ContactAPI
	fields config.FieldIDs
	logger *zap.SugaredLogger
}

func NewHandler(api upstream.ContactAPI, fields config.FieldIDs, logger *zap.SugaredLogger) *Handler {
	return &Handler{api: api, fields: fields, logger: logger}
}

// Save stores the request body verbatim into the contact's research custom
// field. No schema is enforced on the payload; any valid JSON is accepted.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	contactID, err := auth.ContactIDFromRequest(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}

	contact, err := h.api.UpdateResearchData(r.Context(), contactID, payload)
	if errors.Is(err, upstream.ErrNotFound) {
		h.fail(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.logger.Errorw("research save failed", "contact_id", contactID, "err", err)
		h.fail(w, http.StatusInternalServerError, "failed to save research data")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    auth.ViewOf(contact, h.fields.Plan),
	})
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
