package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
	pgdb "github.com/ogurasousui/personnel-ledger/internal/platform/db/postgres"
)

const (
	transferEmployeeForeignKey = "transfers_employee_id_fkey"
	transferStatusConstraint   = "transfers_status_check"
)

const transferColumns = `id, employee_id, from_zone, from_division, to_zone, to_division,
               transfer_order_date, status, created_at, updated_at`

// TransferRepository は PostgreSQL を利用した異動申請の永続化です。
type TransferRepository struct {
	pool pgdb.Queryer
}

// NewTransferRepository は TransferRepository を生成します。
func NewTransferRepository(pool pgdb.Queryer) *TransferRepository {
	return &TransferRepository{pool: pool}
}

var _ transfer.Repository = (*TransferRepository)(nil)

// Create は異動申請を作成します。
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) (*transfer.Transfer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO transfers (employee_id, from_zone, from_division, to_zone, to_division,
                               transfer_order_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+transferColumns,
		t.EmployeeRef,
		t.FromZone,
		t.FromDivision,
		t.ToZone,
		t.ToDivision,
		t.OrderDate,
		string(t.Status),
		t.CreatedAt,
		t.UpdatedAt,
	)

	created, err := scanTransfer(row)
	if err != nil {
		return nil, translateTransferPgError(err)
	}
	return created, nil
}

// FindByID は ID で異動申請を取得します。
func (r *TransferRepository) FindByID(ctx context.Context, id string) (*transfer.Transfer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanTransfer(exec.QueryRow(ctx, `SELECT `+transferColumns+`
          FROM transfers
         WHERE id = $1`, id))
	if err != nil {
		return nil, translateTransferPgError(err)
	}
	return found, nil
}

// LockByID は異動行を FOR UPDATE で取得します。
func (r *TransferRepository) LockByID(ctx context.Context, id string) (*transfer.Transfer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanTransfer(exec.QueryRow(ctx, `SELECT `+transferColumns+`
          FROM transfers
         WHERE id = $1
           FOR UPDATE`, id))
	if err != nil {
		return nil, translateTransferPgError(err)
	}
	return found, nil
}

// UpdateStatus は現在の状態が from の行だけを更新します。
func (r *TransferRepository) UpdateStatus(ctx context.Context, id string, from, to transfer.Status, updatedAt time.Time) (*transfer.Transfer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE transfers
           SET status = $1,
               updated_at = $2
         WHERE id = $3 AND status = $4
        RETURNING `+transferColumns,
		string(to),
		updatedAt,
		id,
		string(from),
	)

	updated, err := scanTransfer(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, transfer.ErrTransferNotFound) {
		return nil, translateTransferPgError(err)
	}

	// 0 行更新は行が無いか状態が変わっている。
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, transfer.ErrStatusConflict
}

// Delete は異動申請を削除します。
func (r *TransferRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return translateTransferPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound
	}
	return nil
}

// DeleteByEmployee は社員を参照する異動申請をすべて削除します。
func (r *TransferRepository) DeleteByEmployee(ctx context.Context, employeeRef string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM transfers WHERE employee_id = $1`, employeeRef)
	if err != nil {
		return 0, translateTransferPgError(err)
	}
	return int(tag.RowsAffected()), nil
}

// ListWithEmployee は異動申請を新しい順に返し、社員の現在の要約を結合します。
func (r *TransferRepository) ListWithEmployee(ctx context.Context) ([]*transfer.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT t.id, t.employee_id, t.from_zone, t.from_division, t.to_zone, t.to_division,
               t.transfer_order_date, t.status, t.created_at, t.updated_at,
               e.id, e.employee_id, e.first_name, e.last_name, e.zone, e.division
          FROM transfers t
          LEFT JOIN employees e ON e.id = t.employee_id
         ORDER BY t.created_at DESC, t.id DESC
    `)
	if err != nil {
		return nil, translateTransferPgError(err)
	}
	defer rows.Close()

	entries := make([]*transfer.Entry, 0)
	for rows.Next() {
		var (
			t          transfer.Transfer
			status     string
			empID      *string
			employeeID *string
			firstName  *string
			lastName   *string
			zone       *string
			division   *string
		)
		if err := rows.Scan(
			&t.ID,
			&t.EmployeeRef,
			&t.FromZone,
			&t.FromDivision,
			&t.ToZone,
			&t.ToDivision,
			&t.OrderDate,
			&status,
			&t.CreatedAt,
			&t.UpdatedAt,
			&empID,
			&employeeID,
			&firstName,
			&lastName,
			&zone,
			&division,
		); err != nil {
			return nil, err
		}
		t.Status = transfer.Status(status)
		t.OrderDate = employee.NormalizeDate(t.OrderDate)

		entry := &transfer.Entry{Transfer: &t}
		if empID != nil {
			entry.Employee = &employee.Summary{
				ID:         *empID,
				EmployeeID: deref(employeeID),
				FirstName:  deref(firstName),
				LastName:   deref(lastName),
				Zone:       deref(zone),
				Division:   deref(division),
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanTransfer(row pgx.Row) (*transfer.Transfer, error) {
	var (
		t      transfer.Transfer
		status string
	)
	if err := row.Scan(
		&t.ID,
		&t.EmployeeRef,
		&t.FromZone,
		&t.FromDivision,
		&t.ToZone,
		&t.ToDivision,
		&t.OrderDate,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound
		}
		return nil, err
	}

	t.Status = transfer.Status(status)
	t.OrderDate = employee.NormalizeDate(t.OrderDate)
	return &t, nil
}

func translateTransferPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return transfer.ErrTransferNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == transferEmployeeForeignKey {
				return employee.ErrEmployeeNotFound
			}
		case checkViolationCode:
			if pgErr.ConstraintName == transferStatusConstraint {
				return transfer.ErrInvalidStatus
			}
		case invalidTextCode:
			return transfer.ErrTransferNotFound
		}
	}

	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
