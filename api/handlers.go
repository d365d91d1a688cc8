/*
handlers.go - HTTP API handlers for the vacation policy engine

PURPOSE:
  Exposes the policy engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Policies:
    GET    /api/policies                    List live policies
    POST   /api/policies                    Create policy from JSON
    GET    /api/policies/{id}               Get policy
    DELETE /api/policies/{id}               Soft-delete policy
    GET    /api/policies/{id}/description   Rendered rule sentence

  Assignments:
    POST   /api/assignments                 Assign repeat-grant policy
    DELETE /api/assignments                 Unassign (soft-delete row)
    GET    /api/employees/{id}/schedules/{policyID}  Tracker row state

  Grants:
    GET    /api/employees/{id}/grants       Grant history

  Admin:
    POST   /api/admin/pass                  Run a scheduler pass now
    GET    /api/admin/schedules/due         Rows the next pass would evaluate

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, shape validation failures
  - 404: Policy or schedule not found
  - 409: Duplicate name/schedule, concurrent modification
  - 422: Policy rule violations (rule name echoed verbatim)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/warp/vacation-engine/factory"
	"github.com/warp/vacation-engine/scheduler"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Policies  vacation.PolicyStore
	Grants    vacation.GrantLog
	Evaluator *vacation.Evaluator
	Scheduler *scheduler.Scheduler

	PolicyFactory *factory.PolicyFactory
	Renderer      vacation.DescriptionRenderer
}

// NewHandler creates a handler with the default factory and renderer.
func NewHandler(policies vacation.PolicyStore, grants vacation.GrantLog, ev *vacation.Evaluator, sch *scheduler.Scheduler) *Handler {
	return &Handler{
		Policies:      policies,
		Grants:        grants,
		Evaluator:     ev,
		Scheduler:     sch,
		PolicyFactory: factory.NewPolicyFactory(),
		Renderer:      vacation.EnglishRenderer{},
	}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all live policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Policies.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, len(policies))
	for i, p := range policies {
		dtos[i] = h.toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy validates and stores a policy definition.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Config.ID == "" {
		req.Config.ID = uuid.NewString()
	}

	policy, err := h.PolicyFactory.FromJSON(req.Config)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	policy.CreatedAt = vacation.Now()

	// Name uniqueness is enforced at the store; check first for a
	// friendlier 409 than the raw constraint error.
	if existing, _ := h.Policies.GetByName(r.Context(), policy.Name); existing != nil {
		writeError(w, http.StatusConflict, "A live policy with this name already exists", nil)
		return
	}
	if err := h.Policies.Save(r.Context(), policy); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toPolicyDTO(policy))
}

// GetPolicy returns a single policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Policies.Get(r.Context(), vacation.PolicyID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPolicyDTO(policy))
}

// DeletePolicy soft-deletes a policy. Existing grants are unaffected.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.Policies.SoftDelete(r.Context(), vacation.PolicyID(chi.URLParam(r, "id")), vacation.Now()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DescribePolicy returns the human-readable rule sentence.
func (h *Handler) DescribePolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Policies.Get(r.Context(), vacation.PolicyID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          string(policy.ID),
		"description": h.Renderer.Describe(policy),
	})
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// CreateAssignment creates a tracker row for an employee under a
// repeat-grant policy.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.PolicyID == "" {
		writeError(w, http.StatusBadRequest, "employee_id and policy_id are required", nil)
		return
	}

	policy, err := h.Policies.Get(r.Context(), vacation.PolicyID(req.PolicyID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !policy.IsScheduled() {
		writeError(w, http.StatusBadRequest, "Policy is not a repeat-grant policy", nil)
		return
	}

	row, err := h.Evaluator.Initialize(r.Context(), vacation.EmployeeID(req.EmployeeID), policy, vacation.Today())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(row, vacation.Today()))
}

// DeleteAssignment soft-deletes the tracker row.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Evaluator.Unassign(r.Context(), vacation.EmployeeID(req.EmployeeID), vacation.PolicyID(req.PolicyID)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule returns one tracker row with its computed state.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	employeeID := vacation.EmployeeID(chi.URLParam(r, "id"))
	policyID := vacation.PolicyID(chi.URLParam(r, "policyID"))

	row, err := h.Evaluator.Schedules.Get(r.Context(), employeeID, policyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(row, vacation.Today()))
}

// =============================================================================
// GRANT HANDLERS
// =============================================================================

// ListGrants returns the grant history for an employee.
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.Grants.ListByEmployee(r.Context(), vacation.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list grants", err)
		return
	}

	dtos := make([]GrantDTO, len(grants))
	for i, g := range grants {
		dtos[i] = toGrantDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunPass triggers one scheduler pass immediately.
func (h *Handler) RunPass(w http.ResponseWriter, r *http.Request) {
	summary := h.Scheduler.RunPass(r.Context())
	writeJSON(w, http.StatusOK, summary)
}

// ListDueSchedules shows the rows the next pass would evaluate. An
// optional ?date=YYYY-MM-DD overrides today for dry runs.
func (h *Handler) ListDueSchedules(w http.ResponseWriter, r *http.Request) {
	today := vacation.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD", err)
			return
		}
		today = vacation.NewTimePoint(parsed.Year(), parsed.Month(), parsed.Day())
	}

	rows, err := h.Evaluator.Schedules.ListDue(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list due schedules", err)
		return
	}

	dtos := make([]ScheduleDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toScheduleDTO(row, today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) toPolicyDTO(p *vacation.VacationPolicy) PolicyDTO {
	return PolicyDTO{
		ID:          string(p.ID),
		Config:      h.PolicyFactory.ToJSON(p),
		Description: h.Renderer.Describe(p),
		CreatedAt:   p.CreatedAt.Time.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to HTTP statuses. Rule violations
// echo the exported rule name so admin UIs can localize them.
func writeDomainError(w http.ResponseWriter, err error) {
	var rule *vacation.RuleViolationError
	if errors.As(err, &rule) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: rule.Message,
			Rule:  rule.Rule,
		})
		return
	}

	switch {
	case vacation.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, vacation.ErrDuplicatePolicyName),
		errors.Is(err, vacation.ErrDuplicateSchedule),
		errors.Is(err, vacation.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "Conflict", err)
	case vacation.IsInvariantViolation(err):
		writeError(w, http.StatusInternalServerError, "Internal invariant violation", err)
	default:
		writeError(w, http.StatusBadRequest, "Invalid policy definition", err)
	}
}
