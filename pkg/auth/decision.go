package auth

// Denial and grant reason codes shared by the tenant hierarchy resolver and
// the policy client. Reasons are stable machine codes; the accompanying
// message is free-form and may be reworded.
const (
	// ReasonUserNotFound: the acting user could not be fetched from the
	// identity collaborator.
	ReasonUserNotFound = "user_not_found"

	// ReasonUserInactive: the user profile exists but is deactivated.
	ReasonUserInactive = "user_inactive"

	// ReasonNoCompanyAssigned: the user profile carries no tenant.
	ReasonNoCompanyAssigned = "no_company_assigned"

	// ReasonHierarchyUnavailable: the tenant hierarchy could not be
	// fetched. Inability to prove a parent relationship never grants
	// access, so this is always a denial.
	ReasonHierarchyUnavailable = "hierarchy_unavailable"

	// ReasonInsufficientPermissions: the user's tenant is neither the
	// target tenant nor one of its ancestors.
	ReasonInsufficientPermissions = "insufficient_permissions"

	// ReasonPolicyDisabled: the policy collaborator is administratively
	// disabled. This is a grant: "not configured" is not the same as
	// "configured but unreachable".
	ReasonPolicyDisabled = "policy_disabled"

	// ReasonPolicyTimeout: the policy collaborator did not answer within
	// the configured timeout. Always a denial.
	ReasonPolicyTimeout = "policy_timeout"

	// ReasonPolicyError: the policy collaborator answered with an error.
	// Always a denial; the message carries the error detail.
	ReasonPolicyError = "policy_error"
)

// AccessDecision is the result of a single adjudication step: a tenant
// hierarchy check or a policy check. It is a pure value, never persisted.
type AccessDecision struct {
	// Granted reports whether access is allowed.
	Granted bool `json:"access_granted"`

	// Reason is a stable machine code explaining the decision. Empty on a
	// plain grant (e.g., same-tenant access).
	Reason string `json:"reason"`

	// Message is the human-readable explanation.
	Message string `json:"message"`
}

// Grant returns an allowing decision with the given reason and message.
// Use an empty reason for unconditional grants such as same-tenant access.
func Grant(reason, message string) AccessDecision {
	return AccessDecision{Granted: true, Reason: reason, Message: message}
}

// Deny returns a denying decision with the given reason and message.
func Deny(reason, message string) AccessDecision {
	return AccessDecision{Granted: false, Reason: reason, Message: message}
}
