package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/researchclip/service-api-go/internal/config"
	"github.com/researchclip/service-api-go/internal/upstream"
)

// --- helpers ---

var testFields = config.FieldIDs{
	Password:   "cf_password",
	Plan:       "cf_plan",
	Research:   "cf_research_data",
	ResearchAt: "cf_research_at",
}

type fakeContactAPI struct {
	findOut   *upstream.Contact
	findErr   error
	createOut *upstream.Contact
	createErr error
	getOut    *upstream.Contact
	getErr    error

	createCalls []upstream.CreateParams
	calls       int
}

func (f *fakeContactAPI) FindByEmail(ctx context.Context, email string) (*upstream.Contact, error) {
	f.calls++
	return f.findOut, f.findErr
}

func (f *fakeContactAPI) Create(ctx context.Context, p upstream.CreateParams) (*upstream.Contact, error) {
	f.calls++
	f.createCalls = append(f.createCalls, p)
	return f.createOut, f.createErr
}

func (f *fakeContactAPI) GetByID(ctx context.Context, id string) (*upstream.Contact, error) {
	f.calls++
	return f.getOut, f.getErr
}

func (f *fakeContactAPI) UpdateResearchData(ctx context.Context, id string, data any) (*upstream.Contact, error) {
	f.calls++
	return nil, errors.New("not used in auth tests")
}

func newHandler(api upstream.ContactAPI) *Handler {
	return NewHandler(api, testFields, zap.NewNop().Sugar())
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, r)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

// --- login ---

func TestLoginRejectsBadEmail(t *testing.T) {
	api := &fakeContactAPI{}
	h := newHandler(api)
	for _, email := range []string{"no-at-sign.com", "user@nodot", ""} {
		body, _ := json.Marshal(LoginRequest{Email: email, Password: "secret1"})
		w, out := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, out["success"])
		assert.Contains(t, out["message"], "email")
	}
	assert.Zero(t, api.calls, "invalid input must not reach the upstream")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	api := &fakeContactAPI{}
	h := newHandler(api)
	for _, pw := range []string{"", "12345", strings.Repeat("x", 129)} {
		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: pw})
		w, _ := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, api.calls)
}

func TestLoginPasswordBoundaryAccepted(t *testing.T) {
	api := &fakeContactAPI{findOut: &upstream.Contact{ID: "7", Email: "user@example.com"}}
	h := newHandler(api)
	for _, pw := range []string{"123456", strings.Repeat("x", 128)} {
		body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: pw})
		w, _ := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestLoginCreatesContactWhenAbsent(t *testing.T) {
	created := &upstream.Contact{
		ID:        "abc123",
		Email:     "new@example.com",
		FirstName: "new",
		CustomFields: []upstream.CustomField{
			{ID: testFields.Plan, Value: "Individual"},
		},
	}
	api := &fakeContactAPI{findErr: upstream.ErrNotFound, createOut: created}
	h := newHandler(api)

	body, _ := json.Marshal(LoginRequest{Email: "new@example.com", Password: "secret1"})
	w, out := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])

	require.Len(t, api.createCalls, 1)
	assert.Equal(t, "new@example.com", api.createCalls[0].Email)
	assert.Equal(t, "secret1", api.createCalls[0].Password)

	token, _ := out["token"].(string)
	id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	user, _ := out["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "abc123", user["id"])
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, "Individual", user["subscription"])
}

func TestLoginExistingContactSkipsCreate(t *testing.T) {
	api := &fakeContactAPI{findOut: &upstream.Contact{ID: "9", Email: "old@example.com", FirstName: "Old", LastName: "Hand"}}
	h := newHandler(api)

	body, _ := json.Marshal(LoginRequest{Email: "old@example.com", Password: "whatever-works"})
	w, out := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, api.createCalls)
	user, _ := out["user"].(map[string]any)
	assert.Equal(t, "Old Hand", user["name"])
}

func TestLoginUpstreamFailure(t *testing.T) {
	api := &fakeContactAPI{findErr: errors.New("upstream down")}
	h := newHandler(api)
	body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "secret1"})
	w, out := doJSON(t, h.Login, "POST", "/api/auth/login", string(body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, out["success"])
}

// --- signup ---

func validSignup() SignupRequest {
	return SignupRequest{
		Email:     "new@example.com",
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestSignupRequiresNames(t *testing.T) {
	api := &fakeContactAPI{}
	h := newHandler(api)

	req := validSignup()
	req.FirstName = "A"
	body, _ := json.Marshal(req)
	w, out := doJSON(t, h.Signup, "POST", "/api/auth/signup", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["message"], "firstName")

	req = validSignup()
	req.LastName = ""
	body, _ = json.Marshal(req)
	w, out = doJSON(t, h.Signup, "POST", "/api/auth/signup", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["message"], "lastName")

	assert.Zero(t, api.calls)
}

func TestSignupSanitizesNames(t *testing.T) {
	created := &upstream.Contact{ID: "5", Email: "new@example.com", FirstName: "Ada", LastName: "Lovelace"}
	api := &fakeContactAPI{findErr: upstream.ErrNotFound, createOut: created}
	h := newHandler(api)

	req := validSignup()
	req.FirstName = " <Ada> "
	body, _ := json.Marshal(req)
	w, _ := doJSON(t, h.Signup, "POST", "/api/auth/signup", string(body))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, api.createCalls, 1)
	assert.Equal(t, "Ada", api.createCalls[0].FirstName)
}

func TestSignupDuplicateEmail(t *testing.T) {
	api := &fakeContactAPI{findOut: &upstream.Contact{ID: "1", Email: "new@example.com"}}
	h := newHandler(api)
	body, _ := json.Marshal(validSignup())
	w, out := doJSON(t, h.Signup, "POST", "/api/auth/signup", string(body))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, out["success"])
	assert.Empty(t, api.createCalls)
}

func TestSignupDoesNotIssueToken(t *testing.T) {
	created := &upstream.Contact{ID: "5", Email: "new@example.com", FirstName: "Ada", LastName: "Lovelace"}
	api := &fakeContactAPI{findErr: upstream.ErrNotFound, createOut: created}
	h := newHandler(api)
	body, _ := json.Marshal(validSignup())
	w, out := doJSON(t, h.Signup, "POST", "/api/auth/signup", string(body))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, out, "token")
}

// --- verify ---

func TestVerifyWithoutAuthorization(t *testing.T) {
	api := &fakeContactAPI{}
	h := newHandler(api)

	r := httptest.NewRequest("GET", "/api/auth/verify", nil)
	w := httptest.NewRecorder()
	h.Verify(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest("GET", "/api/auth/verify", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w = httptest.NewRecorder()
	h.Verify(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, api.calls, "auth failures must not reach the upstream")
}

func TestVerifyUnknownContact(t *testing.T) {
	api := &fakeContactAPI{getErr: upstream.ErrNotFound}
	h := newHandler(api)
	r := httptest.NewRequest("GET", "/api/auth/verify", nil)
	r.Header.Set("Authorization", "Bearer "+EncodeToken("gone"))
	w := httptest.NewRecorder()
	h.Verify(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyReturnsProfile(t *testing.T) {
	api := &fakeContactAPI{getOut: &upstream.Contact{
		ID: "7", Email: "user@example.com", FirstName: "Ada",
		CustomFields: []upstream.CustomField{{ID: testFields.Plan, Value: "Team"}},
	}}
	h := newHandler(api)
	r := httptest.NewRequest("GET", "/api/auth/verify", nil)
	r.Header.Set("Authorization", "Bearer "+EncodeToken("7"))
	w := httptest.NewRecorder()
	h.Verify(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	user, _ := out["user"].(map[string]any)
	assert.Equal(t, "Ada", user["name"])
	assert.Equal(t, "Team", user["subscription"])
}
