package memory

import (
	"context"
	"fmt"
)

// TransactionManager は Store 全体のロックでトランザクションを表現します。
// 読み書きトランザクションは開始時点の内容を保持し、fn が失敗すると書き戻します。
type TransactionManager struct {
	store *Store
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

// WithinReadOnly は読み取りロックを保持したまま fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if _, ok := m.store.txFromContext(ctx); ok {
		return fn(ctx)
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	return fn(context.WithValue(ctx, txContextKey{}, &txState{store: m.store, readOnly: true}))
}

// WithinReadWrite は書き込みロックを保持したまま fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) (err error) {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if st, ok := m.store.txFromContext(ctx); ok {
		if st.readOnly {
			return errUpgradeReadOnly
		}
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	committed := false
	defer func() {
		if !committed {
			m.store.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, &txState{store: m.store})); err != nil {
		return err
	}

	committed = true
	return nil
}
