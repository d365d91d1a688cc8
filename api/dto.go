/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Policy:
    PolicyDTO (wraps factory.PolicyJSON), CreatePolicyRequest

  Assignment:
    AssignRequest, ScheduleDTO

  Grants:
    GrantDTO

VALIDATION:
  Policy bodies are validated by the factory (struct tags) and the
  policy rule tables; handlers only check the URL/body shape.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"time"

	"github.com/warp/vacation-engine/factory"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PolicyDTO represents a policy in API responses.
type PolicyDTO struct {
	ID          string             `json:"id"`
	Config      factory.PolicyJSON `json:"config"`
	Description string             `json:"description,omitempty"`
	CreatedAt   string             `json:"created_at,omitempty"`
}

// CreatePolicyRequest is the request to create a policy.
type CreatePolicyRequest struct {
	Config factory.PolicyJSON `json:"config"`
}

// AssignRequest assigns a repeat-grant policy to an employee.
type AssignRequest struct {
	EmployeeID string `json:"employee_id"`
	PolicyID   string `json:"policy_id"`
}

// ScheduleDTO represents a grant schedule row.
type ScheduleDTO struct {
	EmployeeID    string  `json:"employee_id"`
	PolicyID      string  `json:"policy_id"`
	State         string  `json:"state"`
	LastGrantedAt *string `json:"last_granted_at,omitempty"`
	NextGrantDate *string `json:"next_grant_date,omitempty"`
	GrantCount    int     `json:"grant_count"`
}

// GrantDTO represents an emitted grant.
type GrantDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	PolicyID    string `json:"policy_id"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
	EffectiveAt string `json:"effective_at"`
	ExpiresAt   string `json:"expires_at"`
	GrantedAt   string `json:"granted_at"`
	Reason      string `json:"reason,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Rule    string `json:"rule,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toScheduleDTO(row *vacation.GrantSchedule, today vacation.TimePoint) ScheduleDTO {
	dto := ScheduleDTO{
		EmployeeID: string(row.EmployeeID),
		PolicyID:   string(row.PolicyID),
		State:      string(row.State(today)),
		GrantCount: row.GrantCount,
	}
	if row.LastGrantedAt != nil {
		s := row.LastGrantedAt.Time.Format(time.RFC3339)
		dto.LastGrantedAt = &s
	}
	if row.NextGrantDate != nil {
		s := row.NextGrantDate.Time.Format("2006-01-02")
		dto.NextGrantDate = &s
	}
	return dto
}

func toGrantDTO(g vacation.Grant) GrantDTO {
	return GrantDTO{
		ID:          string(g.ID),
		EmployeeID:  string(g.EmployeeID),
		PolicyID:    string(g.PolicyID),
		Amount:      g.Amount.Days.String(),
		Display:     g.Amount.DisplayString(),
		EffectiveAt: g.EffectiveAt.Time.Format(time.RFC3339),
		ExpiresAt:   g.ExpiresAt.Time.Format(time.RFC3339),
		GrantedAt:   g.GrantedAt.Time.Format(time.RFC3339),
		Reason:      g.Reason,
	}
}
