package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
)

// EmployeeRepository は Store 上の employee.Repository 実装です。
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

var _ employee.Repository = (*EmployeeRepository)(nil)

// Create は社員を保存します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.store.update(ctx, func() error {
		if err := r.checkUnique(e, ""); err != nil {
			return err
		}

		rec := employeeRecord{employee: *e, seq: r.store.nextSeq()}
		rec.employee.ID = uuid.NewString()
		r.store.employees[rec.employee.ID] = rec

		clone := rec.employee
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update は社員を更新します。ID と作成日時は変更しません。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.store.update(ctx, func() error {
		rec, ok := r.store.employees[e.ID]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		if err := r.checkUnique(e, e.ID); err != nil {
			return err
		}

		createdAt := rec.employee.CreatedAt
		rec.employee = *e
		rec.employee.CreatedAt = createdAt
		r.store.employees[e.ID] = rec

		clone := rec.employee
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePosting は配属先を書き換えます。
func (r *EmployeeRepository) UpdatePosting(ctx context.Context, id string, posting employee.Posting, updatedAt time.Time) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.store.update(ctx, func() error {
		rec, ok := r.store.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		rec.employee.Zone = posting.Zone
		rec.employee.Division = posting.Division
		rec.employee.UpdatedAt = updatedAt
		r.store.employees[id] = rec

		clone := rec.employee
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete は社員を削除します。異動から参照されている場合は削除しません。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, func() error {
		if _, ok := r.store.employees[id]; !ok {
			return employee.ErrEmployeeNotFound
		}
		for _, t := range r.store.transfers {
			if t.transfer.EmployeeRef == id {
				return employee.ErrHasTransfers
			}
		}
		delete(r.store.employees, id)
		return nil
	})
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.store.view(ctx, func() error {
		rec, ok := r.store.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		clone := rec.employee
		out = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LockByID は FindByID と同じです。排他はトランザクションの書き込みロックが担います。
func (r *EmployeeRepository) LockByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.FindByID(ctx, id)
}

// FindByEmployeeID は社員番号で社員を取得します。
func (r *EmployeeRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*employee.Employee, error) {
	return r.findFirst(ctx, func(e *employee.Employee) bool { return e.EmployeeID == employeeID })
}

// FindByEmail はメールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.findFirst(ctx, func(e *employee.Employee) bool { return strings.EqualFold(e.Email, email) })
}

// Search は検索語に部分一致する社員を作成日時の降順で返します。2 つ目の戻り値は総件数です。
func (r *EmployeeRepository) Search(ctx context.Context, filter employee.SearchFilter) ([]*employee.Employee, int, error) {
	term := strings.ToLower(strings.TrimSpace(filter.Term))

	var matched []employeeRecord
	err := r.store.view(ctx, func() error {
		for _, rec := range r.store.employees {
			if term == "" || matchesTerm(&rec.employee, term) {
				matched = append(matched, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.employee.CreatedAt.Equal(b.employee.CreatedAt) {
			return a.employee.CreatedAt.After(b.employee.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*employee.Employee, 0, end-start)
	for _, rec := range matched[start:end] {
		clone := rec.employee
		page = append(page, &clone)
	}
	return page, total, nil
}

// ListSummaries は全社員の要約を氏名順に返します。
func (r *EmployeeRepository) ListSummaries(ctx context.Context) ([]employee.Summary, error) {
	var summaries []employee.Summary
	err := r.store.view(ctx, func() error {
		summaries = make([]employee.Summary, 0, len(r.store.employees))
		for _, rec := range r.store.employees {
			summaries = append(summaries, rec.employee.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.ID < b.ID
	})
	return summaries, nil
}

func (r *EmployeeRepository) findFirst(ctx context.Context, match func(*employee.Employee) bool) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.store.view(ctx, func() error {
		for _, rec := range r.store.employees {
			if match(&rec.employee) {
				clone := rec.employee
				out = &clone
				return nil
			}
		}
		return employee.ErrEmployeeNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkUnique はストア側の一意制約を再現します。呼び出し側がロックを保持している必要があります。
func (r *EmployeeRepository) checkUnique(e *employee.Employee, selfID string) error {
	for id, rec := range r.store.employees {
		if id == selfID {
			continue
		}
		if rec.employee.EmployeeID == e.EmployeeID {
			return employee.ErrEmployeeIDAlreadyExists
		}
		if strings.EqualFold(rec.employee.Email, e.Email) {
			return employee.ErrEmailAlreadyExists
		}
	}
	return nil
}

func matchesTerm(e *employee.Employee, term string) bool {
	for _, field := range []string{e.FirstName, e.LastName, e.EmployeeID, e.Designation, e.Department} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
