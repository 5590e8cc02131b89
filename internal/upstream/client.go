package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/researchclip/service-api-go/internal/config"
	"github.com/researchclip/service-api-go/pkg/utilities"
)

// ErrNotFound reports that no contact matched the lookup. It is distinct
// from transport or upstream failures, which surface as ordinary errors.
var ErrNotFound = errors.New("contact not found")

// ContactAPI is the set of CRM operations the handlers depend on.
type ContactAPI interface {
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	Create(ctx context.Context, p CreateParams) (*Contact, error)
	GetByID(ctx context.Context, id string) (*Contact, error)
	UpdateResearchData(ctx context.Context, id string, data any) (*Contact, error)
}

// CreateParams are the inputs for contact creation. Plan defaults to
// "Individual" and FirstName to the email local part when empty.
type CreateParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Plan      string
}

// Client talks to the CRM's contact resource. Every call is a single shot:
// no retries, no backoff, no circuit breaking. The CRM is the sole store
// this service has.
type Client struct {
	baseURL string
	apiKey  string
	fields  config.FieldIDs
	http    *http.Client
	logger  *zap.SugaredLogger
}

var _ ContactAPI = (*Client)(nil)

func NewClient(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: cfg.UpstreamBaseURL,
		apiKey:  cfg.UpstreamAPIKey,
		fields:  cfg.Fields,
		http:    &http.Client{Timeout: cfg.UpstreamTimeout},
		logger:  logger,
	}
}

// FindByEmail searches the contact resource and returns the first match,
// or ErrNotFound when the query comes back empty.
func (c *Client) FindByEmail(ctx context.Context, email string) (*Contact, error) {
	var out struct {
		Contacts []Contact `json:"contacts"`
	}
	q := url.Values{"email": {email}}
	if err := c.do(ctx, http.MethodGet, "/contacts/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Contacts) == 0 {
		return nil, ErrNotFound
	}
	return &out.Contacts[0], nil
}

// Create registers a new contact carrying the password and plan custom
// fields. The upstream is trusted to enforce email uniqueness.
func (c *Client) Create(ctx context.Context, p CreateParams) (*Contact, error) {
	if p.Plan == "" {
		p.Plan = "Individual"
	}
	if p.FirstName == "" {
		p.FirstName = localPart(p.Email)
	}
	body := Contact{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		CustomFields: []CustomField{
			{ID: c.fields.Password, Value: p.Password},
			{ID: c.fields.Plan, Value: p.Plan},
		},
	}
	var out Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*Contact, error) {
	var out Contact
	if err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateResearchData serializes data verbatim into the research custom
// field and stamps the research-at field with the current UTC time.
func (c *Client) UpdateResearchData(ctx context.Context, id string, data any) (*Contact, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("serialize research data: %w", err)
	}
	body := struct {
		CustomFields []CustomField `json:"customFields"`
	}{
		CustomFields: []CustomField{
			{ID: c.fields.Research, Value: string(blob)},
			{ID: c.fields.ResearchAt, Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}
	var out Contact
	if err := c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one authenticated request against the CRM and decodes the
// JSON response into out. A 404 maps to ErrNotFound; any other non-2xx
// status becomes an error carrying the status code only, never the body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	corrID := utilities.NewCorrelationID()
	req.Header.Set("X-Correlation-ID", corrID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Errorw("upstream call failed", "method", method, "path", path, "correlation_id", corrID, "err", err)
		return fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Errorw("upstream returned error status", "method", method, "path", path,
			"correlation_id", corrID, "status", resp.StatusCode)
		return fmt.Errorf("upstream %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode upstream response: %w", err)
		}
	}
	return nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
