// Package store provides in-memory implementations of the vacation
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sync"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY - Shared in-memory state behind the three store facades
// =============================================================================

// Memory holds policies, schedule rows and the grant log under one
// mutex so the transactional facade can commit across them atomically.
type Memory struct {
	mu        sync.RWMutex
	policies  map[vacation.PolicyID]*vacation.VacationPolicy
	schedules map[scheduleKey]*vacation.GrantSchedule
	grants    []vacation.Grant
	grantKeys map[string]bool
}

type scheduleKey struct {
	EmployeeID vacation.EmployeeID
	PolicyID   vacation.PolicyID
}

func NewMemory() *Memory {
	return &Memory{
		policies:  make(map[vacation.PolicyID]*vacation.VacationPolicy),
		schedules: make(map[scheduleKey]*vacation.GrantSchedule),
		grantKeys: make(map[string]bool),
	}
}

// Facade accessors. PolicyStore and ScheduleStore share method names
// (Get, SoftDelete), so each interface gets its own view of the state.
func (m *Memory) Policies() vacation.PolicyStore   { return &policyMemory{m} }
func (m *Memory) Schedules() vacation.ScheduleStore { return &scheduleMemory{m} }
func (m *Memory) Grants() vacation.GrantLog        { return &grantMemory{m} }

// =============================================================================
// POLICY STORE
// =============================================================================

type policyMemory struct{ m *Memory }

var _ vacation.PolicyStore = (*policyMemory)(nil)

func (s *policyMemory) Save(_ context.Context, policy *vacation.VacationPolicy) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, existing := range s.m.policies {
		if existing.Name == policy.Name && !existing.IsDeleted() {
			return vacation.ErrDuplicatePolicyName
		}
	}

	cp := *policy
	s.m.policies[policy.ID] = &cp
	return nil
}

func (s *policyMemory) Get(_ context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	p, ok := s.m.policies[id]
	if !ok || p.IsDeleted() {
		return nil, vacation.ErrPolicyNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *policyMemory) GetByName(_ context.Context, name string) (*vacation.VacationPolicy, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, p := range s.m.policies {
		if p.Name == name && !p.IsDeleted() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, vacation.ErrPolicyNotFound
}

func (s *policyMemory) List(_ context.Context) ([]*vacation.VacationPolicy, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var out []*vacation.VacationPolicy
	for _, p := range s.m.policies {
		if !p.IsDeleted() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *policyMemory) SoftDelete(_ context.Context, id vacation.PolicyID, at vacation.TimePoint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.m.policies[id]
	if !ok || p.IsDeleted() {
		return vacation.ErrPolicyNotFound
	}
	p.DeletedAt = &at
	return nil
}

// =============================================================================
// SCHEDULE STORE - Version-checked updates, transactional commit
// =============================================================================

type scheduleMemory struct{ m *Memory }

var (
	_ vacation.ScheduleStore = (*scheduleMemory)(nil)
	_ vacation.TxStore       = (*scheduleMemory)(nil)
)

func (s *scheduleMemory) Create(_ context.Context, row *vacation.GrantSchedule) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	k := scheduleKey{EmployeeID: row.EmployeeID, PolicyID: row.PolicyID}
	if existing, ok := s.m.schedules[k]; ok && !existing.IsDeleted() {
		return vacation.ErrDuplicateSchedule
	}

	cp := *row
	cp.Version = 1
	s.m.schedules[k] = &cp
	row.Version = 1
	return nil
}

func (s *scheduleMemory) Get(_ context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID) (*vacation.GrantSchedule, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	row, ok := s.m.schedules[scheduleKey{EmployeeID: employeeID, PolicyID: policyID}]
	if !ok || row.IsDeleted() {
		return nil, vacation.ErrScheduleNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *scheduleMemory) ListDue(_ context.Context, today vacation.TimePoint) ([]*vacation.GrantSchedule, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var due []*vacation.GrantSchedule
	for _, row := range s.m.schedules {
		if row.IsDeleted() || row.NextGrantDate == nil {
			continue
		}
		if today.AfterOrEqual(*row.NextGrantDate) {
			cp := *row
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (s *scheduleMemory) Update(_ context.Context, row *vacation.GrantSchedule) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.updateScheduleLocked(row)
}

func (s *scheduleMemory) SoftDelete(_ context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID, at vacation.TimePoint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	row, ok := s.m.schedules[scheduleKey{EmployeeID: employeeID, PolicyID: policyID}]
	if !ok || row.IsDeleted() {
		return vacation.ErrScheduleNotFound
	}
	row.DeletedAt = &at
	return nil
}

// WithTx commits a schedule update and grant append atomically:
// snapshot, run, rollback on error. The whole transaction runs under
// the write lock, which also serializes racing evaluators.
func (s *scheduleMemory) WithTx(_ context.Context, fn func(vacation.ScheduleStore, vacation.GrantLog) error) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	snap := s.m.snapshot()
	view := &txView{m: s.m}
	if err := fn(view, view); err != nil {
		s.m.restore(snap)
		return err
	}
	return nil
}

func (m *Memory) updateScheduleLocked(row *vacation.GrantSchedule) error {
	k := scheduleKey{EmployeeID: row.EmployeeID, PolicyID: row.PolicyID}
	existing, ok := m.schedules[k]
	if !ok || existing.IsDeleted() {
		return vacation.ErrScheduleNotFound
	}
	if existing.Version != row.Version {
		return vacation.ErrConcurrentModification
	}

	cp := *row
	cp.Version = existing.Version + 1
	m.schedules[k] = &cp
	row.Version = cp.Version
	return nil
}

func (m *Memory) appendGrantLocked(grant vacation.Grant) error {
	if grant.IdempotencyKey != "" && m.grantKeys[grant.IdempotencyKey] {
		return vacation.ErrDuplicateGrant
	}
	m.grants = append(m.grants, grant)
	if grant.IdempotencyKey != "" {
		m.grantKeys[grant.IdempotencyKey] = true
	}
	return nil
}

// =============================================================================
// TRANSACTION SNAPSHOT
// =============================================================================

type memorySnapshot struct {
	schedules map[scheduleKey]*vacation.GrantSchedule
	grants    []vacation.Grant
	grantKeys map[string]bool
}

func (m *Memory) snapshot() memorySnapshot {
	scheds := make(map[scheduleKey]*vacation.GrantSchedule, len(m.schedules))
	for k, v := range m.schedules {
		cp := *v
		scheds[k] = &cp
	}
	keys := make(map[string]bool, len(m.grantKeys))
	for k, v := range m.grantKeys {
		keys[k] = v
	}
	return memorySnapshot{
		schedules: scheds,
		grants:    append([]vacation.Grant{}, m.grants...),
		grantKeys: keys,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.schedules = s.schedules
	m.grants = s.grants
	m.grantKeys = s.grantKeys
}

// txView operates on already-locked state inside WithTx.
type txView struct{ m *Memory }

func (v *txView) Create(_ context.Context, row *vacation.GrantSchedule) error {
	k := scheduleKey{EmployeeID: row.EmployeeID, PolicyID: row.PolicyID}
	if existing, ok := v.m.schedules[k]; ok && !existing.IsDeleted() {
		return vacation.ErrDuplicateSchedule
	}
	cp := *row
	cp.Version = 1
	v.m.schedules[k] = &cp
	row.Version = 1
	return nil
}

func (v *txView) Get(_ context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID) (*vacation.GrantSchedule, error) {
	row, ok := v.m.schedules[scheduleKey{EmployeeID: employeeID, PolicyID: policyID}]
	if !ok || row.IsDeleted() {
		return nil, vacation.ErrScheduleNotFound
	}
	cp := *row
	return &cp, nil
}

func (v *txView) ListDue(_ context.Context, today vacation.TimePoint) ([]*vacation.GrantSchedule, error) {
	var due []*vacation.GrantSchedule
	for _, row := range v.m.schedules {
		if row.IsDeleted() || row.NextGrantDate == nil {
			continue
		}
		if today.AfterOrEqual(*row.NextGrantDate) {
			cp := *row
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (v *txView) Update(_ context.Context, row *vacation.GrantSchedule) error {
	return v.m.updateScheduleLocked(row)
}

func (v *txView) SoftDelete(_ context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID, at vacation.TimePoint) error {
	row, ok := v.m.schedules[scheduleKey{EmployeeID: employeeID, PolicyID: policyID}]
	if !ok || row.IsDeleted() {
		return vacation.ErrScheduleNotFound
	}
	row.DeletedAt = &at
	return nil
}

func (v *txView) Append(_ context.Context, grant vacation.Grant) error {
	return v.m.appendGrantLocked(grant)
}

func (v *txView) ListByEmployee(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.Grant, error) {
	var out []vacation.Grant
	for _, g := range v.m.grants {
		if g.EmployeeID == employeeID {
			out = append(out, g)
		}
	}
	return out, nil
}

// =============================================================================
// GRANT LOG
// =============================================================================

type grantMemory struct{ m *Memory }

var _ vacation.GrantLog = (*grantMemory)(nil)

func (s *grantMemory) Append(_ context.Context, grant vacation.Grant) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.appendGrantLocked(grant)
}

func (s *grantMemory) ListByEmployee(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.Grant, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var out []vacation.Grant
	for _, g := range s.m.grants {
		if g.EmployeeID == employeeID {
			out = append(out, g)
		}
	}
	return out, nil
}
