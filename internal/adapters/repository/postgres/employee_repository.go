package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	pgdb "github.com/ogurasousui/personnel-ledger/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	invalidTextCode         = "22P02"

	employeeIDUniqueConstraint = "employees_employee_id_key"
	emailUniqueConstraint      = "employees_email_key"
	employeeDatesConstraint    = "employees_dates_check"
)

const employeeColumns = `id, employee_id, first_name, last_name, date_of_birth, date_of_joining,
               designation, department, zone, division, pay_level, contact_number, email, address,
               created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

var _ employee.Repository = (*EmployeeRepository)(nil)

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (employee_id, first_name, last_name, date_of_birth, date_of_joining,
                               designation, department, zone, division, pay_level, contact_number, email, address,
                               created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING `+employeeColumns,
		e.EmployeeID,
		e.FirstName,
		e.LastName,
		e.DateOfBirth,
		e.DateOfJoining,
		e.Designation,
		e.Department,
		e.Zone,
		e.Division,
		e.PayLevel,
		e.ContactNumber,
		e.Email,
		e.Address,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET employee_id = $1,
               first_name = $2,
               last_name = $3,
               date_of_birth = $4,
               date_of_joining = $5,
               designation = $6,
               department = $7,
               zone = $8,
               division = $9,
               pay_level = $10,
               contact_number = $11,
               email = $12,
               address = $13,
               updated_at = $14
         WHERE id = $15
        RETURNING `+employeeColumns,
		e.EmployeeID,
		e.FirstName,
		e.LastName,
		e.DateOfBirth,
		e.DateOfJoining,
		e.Designation,
		e.Department,
		e.Zone,
		e.Division,
		e.PayLevel,
		e.ContactNumber,
		e.Email,
		e.Address,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// UpdatePosting は配属先だけを更新します。
func (r *EmployeeRepository) UpdatePosting(ctx context.Context, id string, posting employee.Posting, updatedAt time.Time) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET zone = $1,
               division = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+employeeColumns,
		posting.Zone,
		posting.Division,
		updatedAt,
		id,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。異動が残っている場合は外部キー制約で失敗します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1`, id)
}

// LockByID は社員行を FOR UPDATE で取得します。トランザクション内で呼び出してください。
func (r *EmployeeRepository) LockByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
           FOR UPDATE`, id)
}

// FindByEmployeeID は社員番号で検索します。
func (r *EmployeeRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+`
          FROM employees
         WHERE employee_id = $1
         LIMIT 1`, employeeID)
}

// FindByEmail はメールアドレスで検索します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+`
          FROM employees
         WHERE email = LOWER($1)
         LIMIT 1`, email)
}

// Search は氏名・社員番号・職名・部署のいずれかに検索語を含む社員を返します。
func (r *EmployeeRepository) Search(ctx context.Context, filter employee.SearchFilter) ([]*employee.Employee, int, error) {
	args := make([]any, 0, 3)
	whereClause := ""

	if term := strings.TrimSpace(filter.Term); term != "" {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		p := "$" + strconv.Itoa(len(args))
		conditions := make([]string, 0, 5)
		for _, column := range []string{"first_name", "last_name", "employee_id", "designation", "department"} {
			conditions = append(conditions, column+" ILIKE "+p+` ESCAPE '\'`)
		}
		whereClause = " WHERE " + strings.Join(conditions, " OR ")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	if total == 0 {
		return []*employee.Employee{}, 0, nil
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	return employees, total, nil
}

// ListSummaries は全社員の要約を氏名順に返します。
func (r *EmployeeRepository) ListSummaries(ctx context.Context) ([]employee.Summary, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, first_name, last_name, zone, division
          FROM employees
         ORDER BY first_name, last_name, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]employee.Summary, 0)
	for rows.Next() {
		var s employee.Summary
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.FirstName, &s.LastName, &s.Zone, &s.Division); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *EmployeeRepository) findOne(ctx context.Context, query string, arg any) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEmployee(exec.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var e employee.Employee
	if err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&e.FirstName,
		&e.LastName,
		&e.DateOfBirth,
		&e.DateOfJoining,
		&e.Designation,
		&e.Department,
		&e.Zone,
		&e.Division,
		&e.PayLevel,
		&e.ContactNumber,
		&e.Email,
		&e.Address,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.DateOfBirth = employee.NormalizeDate(e.DateOfBirth)
	e.DateOfJoining = employee.NormalizeDate(e.DateOfJoining)
	return &e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			switch pgErr.ConstraintName {
			case employeeIDUniqueConstraint:
				return employee.ErrEmployeeIDAlreadyExists
			case emailUniqueConstraint:
				return employee.ErrEmailAlreadyExists
			}
		case foreignKeyViolationCode:
			return employee.ErrHasTransfers
		case checkViolationCode:
			if pgErr.ConstraintName == employeeDatesConstraint {
				return employee.ErrInvalidDateRange
			}
		case invalidTextCode:
			return employee.ErrEmployeeNotFound
		}
	}

	return err
}
