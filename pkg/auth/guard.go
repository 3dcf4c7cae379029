// Package auth implements the request-time authorization pipeline: credential
// extraction and verification, claims validation, user context construction,
// and the guard that composes them with the tenant hierarchy check.
//
// The pipeline is stateless and deterministic: two identical requests
// arriving at the same instant receive identical outcomes, and no per-request
// decision is ever cached or persisted.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/waterfall-project/authcore/pkg/auth"

// CompanyAccessValidator adjudicates whether a user may act within a target
// tenant. Implemented by the identity client's hierarchy resolver.
type CompanyAccessValidator interface {
	// ValidateCompanyAccess decides whether userID may access companyID.
	// The decision is advisory prose plus a machine reason; it never
	// returns an error — inability to decide is itself a denial.
	ValidateCompanyAccess(ctx context.Context, userID, companyID uuid.UUID) AccessDecision
}

// Guard runs the full authorization pipeline against incoming requests.
//
// A Guard is safe for concurrent use by multiple goroutines, and its
// verdicts are idempotent: checking the same request twice yields the same
// outcome with no accumulated state.
type Guard struct {
	cfg     Config
	decoder *TokenDecoder
	access  CompanyAccessValidator
	tracer  trace.Tracer

	mockUserID    uuid.UUID
	mockCompanyID uuid.UUID
}

// NewGuard creates a Guard from the given configuration. The access
// validator may be nil, in which case the tenant hierarchy check is skipped
// and the token's own company claim is trusted as-is.
func NewGuard(cfg Config, access CompanyAccessValidator) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Guard{
		cfg:    cfg,
		access: access,
		tracer: otel.Tracer(tracerName),
	}

	if cfg.IdentityEnabled {
		g.decoder = NewTokenDecoder(cfg.SigningSecret, cfg.SigningAlgorithm)
	} else {
		// Validate() guarantees these parse.
		g.mockUserID = uuid.MustParse(cfg.MockUserID)
		g.mockCompanyID = uuid.MustParse(cfg.MockCompanyID)
	}

	return g, nil
}

// Check runs the pipeline against the request: extract the credential,
// verify it, validate the mandatory claims, build the user context, then
// adjudicate tenant access for the token's own company claim.
//
// On rejection the returned *errors.Error carries the stable code and the
// HTTP status the transport layer should use.
func (g *Guard) Check(r *http.Request) (*UserContext, *autherr.Error) {
	ctx, span := g.tracer.Start(r.Context(), "auth.Check",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	uc, rejection := g.check(ctx, r)
	if rejection != nil {
		span.RecordError(rejection)
		span.SetStatus(codes.Error, rejection.Message)
		if g.cfg.AuditLog {
			slog.DebugContext(ctx, "auth: request rejected",
				"code", rejection.Code,
				"message", rejection.Message,
				"path", r.URL.Path,
			)
		}
		return nil, rejection
	}

	span.SetAttributes(
		attribute.String("auth.user_id", uc.UserID.String()),
		attribute.String("auth.company_id", uc.CompanyID.String()),
	)
	span.SetStatus(codes.Ok, "")
	if g.cfg.AuditLog {
		slog.DebugContext(ctx, "auth: request authorized",
			"user_id", uc.UserID,
			"company_id", uc.CompanyID,
			"path", r.URL.Path,
		)
	}
	return uc, nil
}

func (g *Guard) check(ctx context.Context, r *http.Request) (*UserContext, *autherr.Error) {
	if !g.cfg.IdentityEnabled {
		// Mock mode: fixed identity, no verification, no hierarchy check.
		return &UserContext{
			UserID:    g.mockUserID,
			CompanyID: g.mockCompanyID,
			Roles:     []string{},
		}, nil
	}

	tokenStr, rejection := ExtractToken(r)
	if rejection != nil {
		return nil, rejection
	}

	claims, rejection := g.decoder.Decode(tokenStr)
	if rejection != nil {
		return nil, rejection
	}

	if rejection := ValidateClaims(claims); rejection != nil {
		return nil, rejection
	}

	uc := NewUserContext(claims)

	if g.access != nil {
		// The validator's remote lookups must carry the caller's session
		// proof, so the cookies are attached here, not only in Middleware.
		ctx = ContextWithRequestCookies(ctx, r.Cookies())
		decision := g.access.ValidateCompanyAccess(ctx, uc.UserID, uc.CompanyID)
		if !decision.Granted {
			return nil, autherr.New(autherr.CodeAccessDenied, decision.Message).
				WithDetail("reason", decision.Reason)
		}
	}

	return uc, nil
}
