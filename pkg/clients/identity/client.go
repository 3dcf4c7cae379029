package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/waterfall-project/authcore/pkg/auth"
	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/waterfall-project/authcore/pkg/clients/identity"

// ErrNotFound is returned by [Client.GetUser] when the identity collaborator
// reports no such user.
var ErrNotFound = errors.New("identity: not found")

// User is a user profile as reported by the identity collaborator.
type User struct {
	// ID identifies the user.
	ID uuid.UUID `json:"id"`

	// Email is the user's email address.
	Email string `json:"email"`

	// FirstName and LastName form the user's display name.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// CompanyID is the user's tenant, empty when the profile carries none.
	// Kept as a string so a profile without a tenant round-trips cleanly.
	CompanyID string `json:"company_id"`

	// IsActive reports whether the account is enabled.
	IsActive bool `json:"is_active"`
}

// CompanyHierarchy describes a tenant's position in the tenant tree.
type CompanyHierarchy struct {
	// CompanyID is the tenant this hierarchy describes.
	CompanyID uuid.UUID `json:"company_id"`

	// ParentID is the direct parent tenant, nil at the root.
	ParentID *uuid.UUID `json:"parent_id"`

	// ChildrenIDs lists the direct child tenants.
	ChildrenIDs []uuid.UUID `json:"children_ids"`

	// Depth is the tenant's distance from the root.
	Depth int `json:"depth"`

	// Path is the ancestor chain from the root down to this tenant,
	// inclusive. Membership in Path is what the top-down access rule
	// tests.
	Path []uuid.UUID `json:"path"`
}

// Client is the HTTP client for the identity collaborator. It implements
// [auth.CompanyAccessValidator].
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cfg    Config
	http   HTTPClient
	tracer trace.Tracer
}

var _ auth.CompanyAccessValidator = (*Client)(nil)

// NewClient creates a Client from the given configuration. When no HTTP
// client is configured, the default client forwards the caller's session
// cookies on every request via [auth.ForwardingRoundTripper].
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: auth.NewForwardingRoundTripper(nil),
		}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// GetUser fetches a user profile. The optional companyID scopes the lookup
// to a tenant. Returns [ErrNotFound] when the collaborator reports no such
// user.
func (c *Client) GetUser(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*User, error) {
	url := fmt.Sprintf("%s/users/%s", c.cfg.BaseURL, userID)
	if companyID != nil {
		url += "?company_id=" + companyID.String()
	}

	var user User
	err := c.getJSON(ctx, "GetUser", url, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCompanyHierarchy fetches a tenant's position in the tenant tree.
// Returns [ErrNotFound] when the collaborator reports no such tenant.
func (c *Client) GetCompanyHierarchy(ctx context.Context, companyID uuid.UUID) (*CompanyHierarchy, error) {
	url := fmt.Sprintf("%s/companies/%s/hierarchy", c.cfg.BaseURL, companyID)

	var hierarchy CompanyHierarchy
	err := c.getJSON(ctx, "GetCompanyHierarchy", url, &hierarchy)
	if err != nil {
		return nil, err
	}
	return &hierarchy, nil
}

// getJSON performs a traced GET with the per-call timeout and decodes the
// response body into out.
func (c *Client) getJSON(ctx context.Context, operationName, url string, out any) error {
	ctx, span := c.startSpan(ctx, operationName, url)
	var err error
	defer func() { finishSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = autherr.Wrap(err, autherr.CodeInternal, "identity: build request")
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		err = autherr.Wrap(err, autherr.CodeInternal, "identity: request failed")
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		err = ErrNotFound
		return err
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		err = autherr.Newf(autherr.CodeInternal,
			"identity: unexpected status %d", resp.StatusCode)
		return err
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		err = autherr.Wrap(err, autherr.CodeInternal, "identity: decode response")
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tenant access rule
// ---------------------------------------------------------------------------

// ValidateCompanyAccess decides whether userID may act within companyID
// using the top-down tenant rule:
//
//  1. The user must exist — any lookup failure denies.
//  2. The user must be active.
//  3. The user must belong to some tenant.
//  4. Same tenant: allowed.
//  5. Otherwise the target tenant's ancestor path is fetched; an
//     unavailable hierarchy denies (fail closed).
//  6. The user's tenant appearing in the target's ancestor path allows.
//  7. Everything else is an insufficient-permissions denial.
//
// The decision never carries an error: inability to decide is a denial.
func (c *Client) ValidateCompanyAccess(ctx context.Context, userID, companyID uuid.UUID) auth.AccessDecision {
	ctx, span := c.tracer.Start(ctx, "identity.ValidateCompanyAccess",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("auth.user_id", userID.String()),
		attribute.String("auth.company_id", companyID.String()),
	)
	defer span.End()

	decision := c.validateCompanyAccess(ctx, userID, companyID)
	// A denial is a valid outcome of the rule, not a span error.
	span.SetAttributes(
		attribute.Bool("auth.access_granted", decision.Granted),
		attribute.String("auth.reason", decision.Reason),
	)
	span.SetStatus(codes.Ok, "")
	return decision
}

func (c *Client) validateCompanyAccess(ctx context.Context, userID, companyID uuid.UUID) auth.AccessDecision {
	user, err := c.GetUser(ctx, userID, nil)
	if err != nil {
		slog.WarnContext(ctx, "identity: user lookup failed during access check",
			"user_id", userID,
			"error", err,
		)
		return auth.Deny(auth.ReasonUserNotFound, "user not found")
	}

	if !user.IsActive {
		return auth.Deny(auth.ReasonUserInactive, "user account is inactive")
	}

	if user.CompanyID == "" {
		return auth.Deny(auth.ReasonNoCompanyAssigned, "user has no company assigned")
	}

	userCompanyID, err := uuid.Parse(user.CompanyID)
	if err != nil {
		slog.WarnContext(ctx, "identity: user profile carries malformed company id",
			"user_id", userID,
			"error", err,
		)
		return auth.Deny(auth.ReasonNoCompanyAssigned, "user has no company assigned")
	}

	if userCompanyID == companyID {
		return auth.Grant("", "same company access")
	}

	hierarchy, err := c.GetCompanyHierarchy(ctx, companyID)
	if err != nil {
		slog.WarnContext(ctx, "identity: hierarchy lookup failed during access check",
			"company_id", companyID,
			"error", err,
		)
		return auth.Deny(auth.ReasonHierarchyUnavailable,
			"company hierarchy unavailable")
	}

	for _, ancestorID := range hierarchy.Path {
		if ancestorID == userCompanyID {
			return auth.Grant("", "parent company access")
		}
	}

	return auth.Deny(auth.ReasonInsufficientPermissions,
		"user company is not in the target company's hierarchy")
}

// ---------------------------------------------------------------------------
// Tracing helpers
// ---------------------------------------------------------------------------

func (c *Client) startSpan(ctx context.Context, operationName, url string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "identity."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.url", url),
	)
	return ctx, span
}

// finishSpan records an error on the span (if any) and ends it. If err is
// nil, the span status is set to OK.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
