package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/waterfall-project/authcore/pkg/auth"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/waterfall-project/authcore/pkg/clients/policy"

// Operation is a CRUD-style action a permission check is asked about.
type Operation string

const (
	OperationList   Operation = "LIST"
	OperationCreate Operation = "CREATE"
	OperationRead   Operation = "READ"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// Valid reports whether the operation is one of the recognized actions.
func (o Operation) Valid() bool {
	switch o {
	case OperationList, OperationCreate, OperationRead, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// ScopeType describes how a permission applies to its subject.
type ScopeType string

const (
	// ScopeDirect grants on the named subject only.
	ScopeDirect ScopeType = "direct"

	// ScopeHierarchical grants on the named subject and its descendants.
	ScopeHierarchical ScopeType = "hierarchical"
)

// PermissionEntry is one granted permission as reported by the policy
// collaborator.
type PermissionEntry struct {
	// Permission is the grant key, "service:resource:OPERATION".
	Permission string `json:"permission"`

	// ProjectID scopes the grant to a single project; nil means the grant
	// is company-wide.
	ProjectID *uuid.UUID `json:"project_id"`

	// ScopeType describes how the grant applies.
	ScopeType ScopeType `json:"scope_type"`

	// RoleName is the role the grant was derived from.
	RoleName string `json:"role_name"`
}

// Client is the HTTP client for the policy collaborator.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cfg    Config
	http   HTTPClient
	tracer trace.Tracer
}

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

// checkRequest is the body sent to the collaborator's check endpoint. The
// Context map carries optional narrowing detail such as project_id or
// target_company_id.
type checkRequest struct {
	UserID    uuid.UUID      `json:"user_id"`
	CompanyID uuid.UUID      `json:"company_id"`
	Service   string         `json:"service"`
	Resource  string         `json:"resource"`
	Operation Operation      `json:"operation"`
	Context   map[string]any `json:"context"`
}

// CheckAccess asks the policy collaborator whether the user may perform the
// operation on the service's resource. The extra map narrows the check
// (e.g. a project_id); nil means no narrowing.
//
// Outcomes:
//   - enforcement disabled → allow, reason policy_disabled
//   - timeout → deny, reason policy_timeout
//   - transport error or non-2xx answer → deny, reason policy_error
//   - otherwise the collaborator's own decision is returned verbatim
//
// Timeouts and other failures are deliberately distinct reasons: a timeout
// is a capacity signal, an error answer is a correctness signal, and
// operators alert on them differently.
func (c *Client) CheckAccess(ctx context.Context, userID, companyID uuid.UUID, service, resource string, op Operation, extra map[string]any) auth.AccessDecision {
	ctx, span := c.tracer.Start(ctx, "policy.CheckAccess",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("auth.user_id", userID.String()),
		attribute.String("policy.service", service),
		attribute.String("policy.resource", resource),
		attribute.String("policy.operation", string(op)),
	)
	defer span.End()

	decision := c.checkAccess(ctx, userID, companyID, service, resource, op, extra)
	span.SetAttributes(
		attribute.Bool("auth.access_granted", decision.Granted),
		attribute.String("auth.reason", decision.Reason),
	)
	span.SetStatus(codes.Ok, "")
	return decision
}

func (c *Client) checkAccess(ctx context.Context, userID, companyID uuid.UUID, service, resource string, op Operation, extra map[string]any) auth.AccessDecision {
	if !c.cfg.Enabled {
		return auth.Grant(auth.ReasonPolicyDisabled, "policy enforcement is disabled")
	}

	if extra == nil {
		extra = map[string]any{}
	}
	body := checkRequest{
		UserID:    userID,
		CompanyID: companyID,
		Service:   service,
		Resource:  resource,
		Operation: op,
		Context:   extra,
	}

	var decision auth.AccessDecision
	err := c.postJSON(ctx, c.cfg.BaseURL+"/check-access", body, &decision)
	if err != nil {
		if isTimeout(err) {
			slog.WarnContext(ctx, "policy: check timed out",
				"user_id", userID,
				"operation", op,
				"error", err,
			)
			return auth.Deny(auth.ReasonPolicyTimeout, "policy service unavailable")
		}
		slog.WarnContext(ctx, "policy: check failed",
			"user_id", userID,
			"operation", op,
			"error", err,
		)
		return auth.Deny(auth.ReasonPolicyError,
			fmt.Sprintf("policy check failed: %v", err))
	}
	return decision
}

// ListPermissions fetches every permission granted to the user within the
// company. On any failure it returns an empty list: listings shape what a
// caller sees, never what a caller may do, so degrading to empty is safe.
func (c *Client) ListPermissions(ctx context.Context, userID, companyID uuid.UUID) []PermissionEntry {
	ctx, span := c.tracer.Start(ctx, "policy.ListPermissions",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(attribute.String("auth.user_id", userID.String()))
	defer span.End()

	if !c.cfg.Enabled {
		span.SetStatus(codes.Ok, "")
		return []PermissionEntry{}
	}

	url := fmt.Sprintf("%s/users/%s/permissions?company_id=%s",
		c.cfg.BaseURL, userID, companyID)

	var listing struct {
		Permissions []PermissionEntry `json:"permissions"`
	}
	if err := c.getJSON(ctx, url, &listing); err != nil {
		slog.WarnContext(ctx, "policy: permission listing failed, returning empty",
			"user_id", userID,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return []PermissionEntry{}
	}

	span.SetAttributes(attribute.Int("policy.permission_count", len(listing.Permissions)))
	span.SetStatus(codes.Ok, "")
	if listing.Permissions == nil {
		return []PermissionEntry{}
	}
	return listing.Permissions
}

// PartitionProjectAccess splits a permission listing for one
// service/resource/operation into its company-wide part and its
// project-scoped part. Entries whose permission key does not match
// exactly "service:resource:OPERATION" are ignored.
func PartitionProjectAccess(entries []PermissionEntry, service, resource string, op Operation) (companyWide bool, projectIDs []uuid.UUID) {
	want := fmt.Sprintf("%s:%s:%s", service, resource, op)
	projectIDs = []uuid.UUID{}

	for _, entry := range entries {
		if entry.Permission != want {
			continue
		}
		if entry.ProjectID == nil {
			companyWide = true
			continue
		}
		projectIDs = append(projectIDs, *entry.ProjectID)
	}
	return companyWide, projectIDs
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("policy: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("policy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("policy: build request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("policy: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("policy: decode response: %w", err)
	}
	return nil
}

// isTimeout reports whether the error is a deadline expiry, either from the
// per-call context or from the transport.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
