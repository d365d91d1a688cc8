package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/factory"
	"github.com/warp/vacation-engine/scheduler"
	"github.com/warp/vacation-engine/vacation"
	"github.com/warp/vacation-engine/vacation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router http.Handler
	mem    *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	ev := vacation.NewEvaluator(mem.Schedules(), mem.Grants())
	sch := scheduler.New(mem.Policies(), ev)
	h := api.NewHandler(mem.Policies(), mem.Grants(), ev, sch)
	return &testServer{router: api.NewRouter(h), mem: mem}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func createPolicyBody(configJSON string) string {
	return `{"config": ` + configJSON + `}`
}

// =============================================================================
// POLICY ENDPOINTS
// =============================================================================

func TestAPI_CreateAndGetPolicy(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/policies",
		createPolicyBody(factory.StandardAnnualJSON("annual-std", "Standard Annual Leave", 15)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created api.PolicyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "annual-std", created.ID)
	assert.Contains(t, created.Description, "every year on January 1")

	rec = ts.do(t, http.MethodGet, "/api/policies/annual-std", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/policies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []api.PolicyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestAPI_CreatePolicy_RuleViolation_Returns422(t *testing.T) {
	// GIVEN: A shape-valid policy violating the unit x timing coherence rule
	// THEN: 422 with the rule name echoed for the admin UI

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/policies", createPolicyBody(`{
		"id": "bad", "name": "Bad Pairing",
		"grant_method": "REPEAT_GRANT", "grant_amount": "15",
		"recurrence": {
			"repeat_unit": "MONTHLY", "repeat_interval": 1,
			"grant_timing": "QUARTER_END", "is_recurring": true
		}
	}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, vacation.RuleUnitTimingMismatch, resp.Rule)
}

func TestAPI_CreatePolicy_BadShape_Returns400(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/policies", createPolicyBody(`{
		"name": "Bad", "grant_method": "SOMETIMES"
	}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CreatePolicy_DuplicateName_Returns409(t *testing.T) {
	ts := newTestServer(t)
	body := createPolicyBody(factory.StandardAnnualJSON("a-1", "Annual", 15))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	body = createPolicyBody(factory.StandardAnnualJSON("a-2", "Annual", 20))
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/policies", body).Code)
}

func TestAPI_GetPolicy_NotFound(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/policies/ghost", "").Code)
}

func TestAPI_DeletePolicy(t *testing.T) {
	ts := newTestServer(t)
	body := createPolicyBody(factory.StandardAnnualJSON("a-1", "Annual", 15))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/policies/a-1", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/policies/a-1", "").Code)
}

func TestAPI_DescribePolicy(t *testing.T) {
	ts := newTestServer(t)
	body := createPolicyBody(factory.WeddingLeaveJSON("wed-5", "Wedding Leave", 5, 3, 1))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	rec := ts.do(t, http.MethodGet, "/api/policies/wed-5/description", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "3 months after grant"), rec.Body.String())
}

// =============================================================================
// ASSIGNMENT + GRANT ENDPOINTS
// =============================================================================

func TestAPI_AssignmentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	body := createPolicyBody(factory.StandardAnnualJSON("a-1", "Annual", 15))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	rec := ts.do(t, http.MethodPost, "/api/assignments", `{"employee_id": "emp-1", "policy_id": "a-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sched api.ScheduleDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Equal(t, "emp-1", sched.EmployeeID)
	require.NotNil(t, sched.NextGrantDate)
	assert.Equal(t, 0, sched.GrantCount)

	// Duplicate assignment conflicts.
	rec = ts.do(t, http.MethodPost, "/api/assignments", `{"employee_id": "emp-1", "policy_id": "a-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/schedules/a-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/assignments", `{"employee_id": "emp-1", "policy_id": "a-1"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/emp-1/schedules/a-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Assignment_NonRepeatPolicy_Rejected(t *testing.T) {
	ts := newTestServer(t)
	body := createPolicyBody(factory.WeddingLeaveJSON("wed-5", "Wedding Leave", 5, 3, 1))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)

	rec := ts.do(t, http.MethodPost, "/api/assignments", `{"employee_id": "emp-1", "policy_id": "wed-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListGrants_EmptyForNewEmployee(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/employees/emp-1/grants", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var grants []api.GrantDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grants))
	assert.Empty(t, grants)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAPI_AdminPass_RunsScheduler(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/admin/pass", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary scheduler.PassSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.Evaluated)
}

func TestAPI_AdminDueSchedules_DryRunDate(t *testing.T) {
	// A far-future ?date shows the assignment as due without firing it.
	ts := newTestServer(t)
	body := createPolicyBody(factory.StandardAnnualJSON("a-1", "Annual", 15))
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/policies", body).Code)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/assignments", `{"employee_id": "emp-1", "policy_id": "a-1"}`).Code)

	rec := ts.do(t, http.MethodGet, "/api/admin/schedules/due?date=2099-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var due []api.ScheduleDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &due))
	require.Len(t, due, 1)
	assert.Equal(t, "DUE", due[0].State)

	rec = ts.do(t, http.MethodGet, "/api/admin/schedules/due?date=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
