// Package memory は社員と異動申請を 1 プロセス内に保持するストアです。
// ローカル実行とテストで PostgreSQL の代わりに使います。
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

var errUpgradeReadOnly = errors.New("memory: read-write transaction requested inside read-only transaction")

type employeeRecord struct {
	employee employee.Employee
	seq      uint64
}

type transferRecord struct {
	transfer transfer.Transfer
	seq      uint64
}

// Store は両テーブルを 1 つのロックで保護します。
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	employees map[string]employeeRecord
	transfers map[string]transferRecord
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{
		employees: make(map[string]employeeRecord),
		transfers: make(map[string]transferRecord),
	}
}

type txContextKey struct{}

type txState struct {
	store    *Store
	readOnly bool
}

func (s *Store) txFromContext(ctx context.Context) (*txState, bool) {
	if ctx == nil {
		return nil, false
	}
	st, ok := ctx.Value(txContextKey{}).(*txState)
	if !ok || st.store != s {
		return nil, false
	}
	return st, true
}

// view はトランザクション外なら読み取りロックを取って fn を実行します。
func (s *Store) view(ctx context.Context, fn func() error) error {
	if _, ok := s.txFromContext(ctx); ok {
		return fn()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// update はトランザクション外なら書き込みロックを取って fn を実行します。
func (s *Store) update(ctx context.Context, fn func() error) error {
	if st, ok := s.txFromContext(ctx); ok {
		if st.readOnly {
			return errUpgradeReadOnly
		}
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

type snapshot struct {
	seq       uint64
	employees map[string]employeeRecord
	transfers map[string]transferRecord
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		seq:       s.seq,
		employees: maps.Clone(s.employees),
		transfers: maps.Clone(s.transfers),
	}
}

func (s *Store) restore(snap snapshot) {
	s.seq = snap.seq
	s.employees = snap.employees
	s.transfers = snap.transfers
}
