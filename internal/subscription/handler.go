package subscription

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/researchclip/service-api-go/internal/auth"
	"github.com/researchclip/service-api-go/internal/config"
	"github.com/researchclip/service-api-go/internal/upstream"
)

// Handler answers entitlement checks from the extension.
type Handler struct {
	api    upstream.ContactAPI
	fields config.FieldIDs
	logger *zap.SugaredLogger
}

func NewHandler(api upstream.ContactAPI, fields config.FieldIDs, logger *zap.SugaredLogger) *Handler {
	return &Handler{api: api, fields: fields, logger: logger}
}

// Check reads the contact's plan custom field. A missing value means the
// default "Individual" tier; only the literal "Expired" makes the
// subscription invalid.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	contactID, err := auth.ContactIDFromRequest(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	contact, err := h.api.GetByID(r.Context(), contactID)
	if errors.Is(err, upstream.ErrNotFound) {
		h.fail(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.logger.Errorw("subscription lookup failed", "contact_id", contactID, "err", err)
		h.fail(w, http.StatusInternalServerError, "subscription check failed")
		return
	}

	tier := contact.Field(h.fields.Plan)
	if tier == "" {
		tier = "Individual"
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"valid":   tier != "Expired",
		"tier":    tier,
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
