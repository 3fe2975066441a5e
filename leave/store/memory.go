// Package store provides leave.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	categories map[leave.CategoryID]leave.Category
	balances   map[leave.BalanceID]leave.Balance
	requests   map[leave.RequestID]leave.Request
	audit      []leave.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		categories: make(map[leave.CategoryID]leave.Category),
		balances:   make(map[leave.BalanceID]leave.Balance),
		requests:   make(map[leave.RequestID]leave.Request),
	}
}

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

func (m *Memory) SaveCategory(_ context.Context, c leave.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) GetCategory(_ context.Context, id leave.CategoryID) (*leave.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]leave.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]leave.Category, 0, len(m.categories))
	for _, c := range m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// -----------------------------------------------------------------------------
// Balances
// -----------------------------------------------------------------------------

func (m *Memory) InsertBalance(_ context.Context, b leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[b.ID] = b
	return nil
}

func (m *Memory) GetBalance(_ context.Context, userID leave.UserID, categoryID leave.CategoryID, year int) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.balances {
		if b.UserID == userID && b.CategoryID == categoryID && b.Year == year {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetBalanceByID(_ context.Context, id leave.BalanceID) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *Memory) ListBalances(_ context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.Balance
	for _, b := range m.balances {
		if b.UserID == userID && b.Year == year {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result, nil
}

func (m *Memory) UpdateBalanceCounters(_ context.Context, id leave.BalanceID, used, pending decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[id]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	b.UsedDays = used
	b.PendingDays = pending
	m.balances[id] = b
	return nil
}

func (m *Memory) UpdateBalanceTotal(_ context.Context, id leave.BalanceID, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[id]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	b.TotalDays = total
	m.balances[id] = b
	return nil
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

func (m *Memory) InsertRequest(_ context.Context, r leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) UpdateRequestStatus(_ context.Context, r leave.Request, from leave.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[r.ID]
	if !ok || current.Status != from {
		return false, nil
	}
	m.requests[r.ID] = r
	return true, nil
}

func (m *Memory) ListActiveRequests(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.Request
	for _, r := range m.requests {
		if r.UserID == userID && (r.Status == leave.StatusPending || r.Status == leave.StatusApproved) {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (m *Memory) ListRequestsByUser(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.Request
	for _, r := range m.requests {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (m *Memory) ListRequestsByStatus(_ context.Context, status leave.RequestStatus) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.Request
	for _, r := range m.requests {
		if r.Status == status {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (m *Memory) ListRequestsByYear(_ context.Context, year int) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.Request
	for _, r := range m.requests {
		if r.StartDate.Year() == year {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func sortByCreated(rs []leave.Request) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}

// -----------------------------------------------------------------------------
// Audit
// -----------------------------------------------------------------------------

func (m *Memory) AppendAudit(_ context.Context, e leave.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, requestID leave.RequestID) ([]leave.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []leave.AuditEntry
	for _, e := range m.audit {
		if e.RequestID == requestID {
			result = append(result, e)
		}
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
// WithTx holds the write lock for the whole function, serializing writers the
// same way the SQLite store does, and rolls back via snapshot on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	view := &txMemoryView{parent: tm.Memory}
	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	categories map[leave.CategoryID]leave.Category
	balances   map[leave.BalanceID]leave.Balance
	requests   map[leave.RequestID]leave.Request
	audit      []leave.AuditEntry
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		categories: make(map[leave.CategoryID]leave.Category, len(tm.categories)),
		balances:   make(map[leave.BalanceID]leave.Balance, len(tm.balances)),
		requests:   make(map[leave.RequestID]leave.Request, len(tm.requests)),
		audit:      append([]leave.AuditEntry{}, tm.audit...),
	}
	for k, v := range tm.categories {
		s.categories[k] = v
	}
	for k, v := range tm.balances {
		s.balances[k] = v
	}
	for k, v := range tm.requests {
		s.requests[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.categories = s.categories
	tm.balances = s.balances
	tm.requests = s.requests
	tm.audit = s.audit
}

// txMemoryView accesses the parent's maps directly; the parent's lock is
// already held by WithTx, so these methods must not lock again.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveCategory(_ context.Context, c leave.Category) error {
	tv.parent.categories[c.ID] = c
	return nil
}

func (tv *txMemoryView) GetCategory(_ context.Context, id leave.CategoryID) (*leave.Category, error) {
	if c, ok := tv.parent.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListCategories(_ context.Context) ([]leave.Category, error) {
	result := make([]leave.Category, 0, len(tv.parent.categories))
	for _, c := range tv.parent.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txMemoryView) InsertBalance(_ context.Context, b leave.Balance) error {
	tv.parent.balances[b.ID] = b
	return nil
}

func (tv *txMemoryView) GetBalance(_ context.Context, userID leave.UserID, categoryID leave.CategoryID, year int) (*leave.Balance, error) {
	for _, b := range tv.parent.balances {
		if b.UserID == userID && b.CategoryID == categoryID && b.Year == year {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (tv *txMemoryView) GetBalanceByID(_ context.Context, id leave.BalanceID) (*leave.Balance, error) {
	if b, ok := tv.parent.balances[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListBalances(_ context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	var result []leave.Balance
	for _, b := range tv.parent.balances {
		if b.UserID == userID && b.Year == year {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result, nil
}

func (tv *txMemoryView) UpdateBalanceCounters(_ context.Context, id leave.BalanceID, used, pending decimal.Decimal) error {
	b, ok := tv.parent.balances[id]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	b.UsedDays = used
	b.PendingDays = pending
	tv.parent.balances[id] = b
	return nil
}

func (tv *txMemoryView) UpdateBalanceTotal(_ context.Context, id leave.BalanceID, total decimal.Decimal) error {
	b, ok := tv.parent.balances[id]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	b.TotalDays = total
	tv.parent.balances[id] = b
	return nil
}

func (tv *txMemoryView) InsertRequest(_ context.Context, r leave.Request) error {
	tv.parent.requests[r.ID] = r
	return nil
}

func (tv *txMemoryView) GetRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	if r, ok := tv.parent.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (tv *txMemoryView) UpdateRequestStatus(_ context.Context, r leave.Request, from leave.RequestStatus) (bool, error) {
	current, ok := tv.parent.requests[r.ID]
	if !ok || current.Status != from {
		return false, nil
	}
	tv.parent.requests[r.ID] = r
	return true, nil
}

func (tv *txMemoryView) ListActiveRequests(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	var result []leave.Request
	for _, r := range tv.parent.requests {
		if r.UserID == userID && (r.Status == leave.StatusPending || r.Status == leave.StatusApproved) {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (tv *txMemoryView) ListRequestsByUser(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	var result []leave.Request
	for _, r := range tv.parent.requests {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (tv *txMemoryView) ListRequestsByStatus(_ context.Context, status leave.RequestStatus) ([]leave.Request, error) {
	var result []leave.Request
	for _, r := range tv.parent.requests {
		if r.Status == status {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (tv *txMemoryView) ListRequestsByYear(_ context.Context, year int) ([]leave.Request, error) {
	var result []leave.Request
	for _, r := range tv.parent.requests {
		if r.StartDate.Year() == year {
			result = append(result, r)
		}
	}
	sortByCreated(result)
	return result, nil
}

func (tv *txMemoryView) AppendAudit(_ context.Context, e leave.AuditEntry) error {
	tv.parent.audit = append(tv.parent.audit, e)
	return nil
}

func (tv *txMemoryView) ListAudit(_ context.Context, requestID leave.RequestID) ([]leave.AuditEntry, error) {
	var result []leave.AuditEntry
	for _, e := range tv.parent.audit {
		if e.RequestID == requestID {
			result = append(result, e)
		}
	}
	return result, nil
}
