package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

// TransferRepository は Store 上の transfer.Repository 実装です。
type TransferRepository struct {
	store *Store
}

// NewTransferRepository は TransferRepository を生成します。
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

var _ transfer.Repository = (*TransferRepository)(nil)

// Create は異動申請を保存します。参照先の社員が無い場合は employee.ErrEmployeeNotFound を返します。
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := r.store.update(ctx, func() error {
		if _, ok := r.store.employees[t.EmployeeRef]; !ok {
			return employee.ErrEmployeeNotFound
		}

		rec := transferRecord{transfer: *t, seq: r.store.nextSeq()}
		rec.transfer.ID = uuid.NewString()
		r.store.transfers[rec.transfer.ID] = rec

		clone := rec.transfer
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID は ID で異動申請を取得します。
func (r *TransferRepository) FindByID(ctx context.Context, id string) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := r.store.view(ctx, func() error {
		rec, ok := r.store.transfers[id]
		if !ok {
			return transfer.ErrTransferNotFound
		}
		clone := rec.transfer
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LockByID は FindByID と同じです。
func (r *TransferRepository) LockByID(ctx context.Context, id string) (*transfer.Transfer, error) {
	return r.FindByID(ctx, id)
}

// UpdateStatus は状態が from の場合に限り to へ更新します。
func (r *TransferRepository) UpdateStatus(ctx context.Context, id string, from, to transfer.Status, updatedAt time.Time) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := r.store.update(ctx, func() error {
		rec, ok := r.store.transfers[id]
		if !ok {
			return transfer.ErrTransferNotFound
		}
		if rec.transfer.Status != from {
			return transfer.ErrStatusConflict
		}
		rec.transfer.Status = to
		rec.transfer.UpdatedAt = updatedAt
		r.store.transfers[id] = rec

		clone := rec.transfer
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete は異動申請を削除します。
func (r *TransferRepository) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, func() error {
		if _, ok := r.store.transfers[id]; !ok {
			return transfer.ErrTransferNotFound
		}
		delete(r.store.transfers, id)
		return nil
	})
}

// DeleteByEmployee は社員を参照する異動申請をすべて削除します。
func (r *TransferRepository) DeleteByEmployee(ctx context.Context, employeeRef string) (int, error) {
	removed := 0
	err := r.store.update(ctx, func() error {
		for id, rec := range r.store.transfers {
			if rec.transfer.EmployeeRef == employeeRef {
				delete(r.store.transfers, id)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListWithEmployee は異動申請を新しい順に返し、社員の現在の要約を添えます。
func (r *TransferRepository) ListWithEmployee(ctx context.Context) ([]*transfer.Entry, error) {
	type row struct {
		rec     transferRecord
		summary *employee.Summary
	}

	var rows []row
	err := r.store.view(ctx, func() error {
		rows = make([]row, 0, len(r.store.transfers))
		for _, rec := range r.store.transfers {
			item := row{rec: rec}
			if emp, ok := r.store.employees[rec.transfer.EmployeeRef]; ok {
				summary := emp.employee.Summary()
				item.summary = &summary
			}
			rows = append(rows, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].rec, rows[j].rec
		if !a.transfer.CreatedAt.Equal(b.transfer.CreatedAt) {
			return a.transfer.CreatedAt.After(b.transfer.CreatedAt)
		}
		return a.seq > b.seq
	})

	entries := make([]*transfer.Entry, 0, len(rows))
	for _, item := range rows {
		clone := item.rec.transfer
		entries = append(entries, &transfer.Entry{Transfer: &clone, Employee: item.summary})
	}
	return entries, nil
}
