package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/researchclip/service-api-go/internal/config"
	"github.com/researchclip/service-api-go/internal/upstream"
)

// Handler exposes the authentication endpoints (login / signup / verify).
type Handler struct {
	api    upstream.ContactAPI
	fields config.FieldIDs
	logger *zap.SugaredLogger
}

func NewHandler(api upstream.ContactAPI, fields config.FieldIDs, logger *zap.SugaredLogger) *Handler {
	return &Handler{api: api, fields: fields, logger: logger}
}

// UserView is the user summary returned to the frontend.
type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
}

// ViewOf projects a contact into the response shape shared by all routes.
func ViewOf(c *upstream.Contact, planFieldID string) UserView {
	tier := c.Field(planFieldID)
	if tier == "" {
		tier = "Individual"
	}
	return UserView{
		ID:           c.ID,
		Email:        c.Email,
		Name:         c.DisplayName(),
		Subscription: tier,
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by email. An unknown email creates a contact on the
// fly (find-or-create); a known one is logged straight in. The submitted
// password is stored on creation but never compared against the stored
// value afterwards (see DESIGN.md).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Email = Sanitize(req.Email)
	if !ValidEmail(req.Email) {
		h.fail(w, http.StatusBadRequest, "invalid email")
		return
	}
	if !ValidPassword(req.Password) {
		h.fail(w, http.StatusBadRequest, "password must be 6-128 characters")
		return
	}

	contact, err := h.api.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, upstream.ErrNotFound) {
		contact, err = h.api.Create(r.Context(), upstream.CreateParams{
			Email:    req.Email,
			Password: req.Password,
		})
	}
	if err != nil {
		h.logger.Errorw("login failed", "email", req.Email, "err", err)
		h.fail(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   EncodeToken(contact.ID),
		"user":    ViewOf(contact, h.fields.Plan),
	})
}

// SignupRequest is the signup payload. All four fields are required.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Plan      string `json:"plan"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Email = Sanitize(req.Email)
	req.FirstName = Sanitize(req.FirstName)
	req.LastName = Sanitize(req.LastName)

	if !ValidEmail(req.Email) {
		h.fail(w, http.StatusBadRequest, "invalid email")
		return
	}
	if !ValidPassword(req.Password) {
		h.fail(w, http.StatusBadRequest, "password must be 6-128 characters")
		return
	}
	if len(req.FirstName) < 2 {
		h.fail(w, http.StatusBadRequest, "firstName must be at least 2 characters")
		return
	}
	if len(req.LastName) < 2 {
		h.fail(w, http.StatusBadRequest, "lastName must be at least 2 characters")
		return
	}

	_, err := h.api.FindByEmail(r.Context(), req.Email)
	if err == nil {
		h.fail(w, http.StatusConflict, "email already registered")
		return
	}
	if !errors.Is(err, upstream.ErrNotFound) {
		h.logger.Errorw("signup lookup failed", "email", req.Email, "err", err)
		h.fail(w, http.StatusInternalServerError, "signup failed")
		return
	}

	contact, err := h.api.Create(r.Context(), upstream.CreateParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Plan:      req.Plan,
	})
	if err != nil {
		h.logger.Errorw("signup create failed", "email", req.Email, "err", err)
		h.fail(w, http.StatusInternalServerError, "signup failed")
		return
	}

	// no token on signup; the client logs in separately
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    ViewOf(contact, h.fields.Plan),
	})
}

// Verify resolves the bearer token to a contact and returns the profile.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	contactID, err := ContactIDFromRequest(r)
	if err != nil {
		h.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	contact, err := h.api.GetByID(r.Context(), contactID)
	if errors.Is(err, upstream.ErrNotFound) {
		h.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		h.logger.Errorw("verify lookup failed", "contact_id", contactID, "err", err)
		h.fail(w, http.StatusInternalServerError, "verification failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    ViewOf(contact, h.fields.Plan),
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
