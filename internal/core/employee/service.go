package employee

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const maxEmployeeIDLength = 64

var contactNumberPattern = regexp.MustCompile(`^\+?[0-9][0-9 -]{5,19}$`)

// Service は社員に関するユースケースをまとめます。
// 社員の削除は異動記録の連鎖削除を伴うため relocation.Coordinator が担います。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	EmployeeID    string
	FirstName     string
	LastName      string
	DateOfBirth   *time.Time
	DateOfJoining *time.Time
	Designation   string
	Department    string
	Zone          string
	Division      string
	PayLevel      string
	ContactNumber string
	Email         string
	Address       string
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更しません。
type UpdateEmployeeInput struct {
	ID            string
	EmployeeID    *string
	FirstName     *string
	LastName      *string
	DateOfBirth   *time.Time
	DateOfJoining *time.Time
	Designation   *string
	Department    *string
	Zone          *string
	Division      *string
	PayLevel      *string
	ContactNumber *string
	Email         *string
	Address       *string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	emp := &Employee{
		EmployeeID:    in.EmployeeID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Designation:   in.Designation,
		Department:    in.Department,
		Zone:          in.Zone,
		Division:      in.Division,
		PayLevel:      in.PayLevel,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
		Address:       in.Address,
	}
	if in.DateOfBirth != nil {
		emp.DateOfBirth = *in.DateOfBirth
	}
	if in.DateOfJoining != nil {
		emp.DateOfJoining = *in.DateOfJoining
	}

	if err := normalizeEmployee(emp); err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeIDNotExists(txCtx, emp.EmployeeID); err != nil {
			return err
		}
		if err := s.ensureEmailNotExists(txCtx, emp.Email); err != nil {
			return err
		}

		now := s.clock.Now()
		emp.CreatedAt = now
		emp.UpdatedAt = now

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は社員情報を更新します。更新後のレコード全体を再検証します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, strings.TrimSpace(in.ID))
		if err != nil {
			return err
		}

		previousEmployeeID := existing.EmployeeID
		previousEmail := existing.Email

		applyString(&existing.EmployeeID, in.EmployeeID)
		applyString(&existing.FirstName, in.FirstName)
		applyString(&existing.LastName, in.LastName)
		applyString(&existing.Designation, in.Designation)
		applyString(&existing.Department, in.Department)
		applyString(&existing.Zone, in.Zone)
		applyString(&existing.Division, in.Division)
		applyString(&existing.PayLevel, in.PayLevel)
		applyString(&existing.ContactNumber, in.ContactNumber)
		applyString(&existing.Email, in.Email)
		applyString(&existing.Address, in.Address)
		if in.DateOfBirth != nil {
			existing.DateOfBirth = *in.DateOfBirth
		}
		if in.DateOfJoining != nil {
			existing.DateOfJoining = *in.DateOfJoining
		}

		if err := normalizeEmployee(existing); err != nil {
			return err
		}

		if existing.EmployeeID != previousEmployeeID {
			if err := s.ensureEmployeeIDNotExists(txCtx, existing.EmployeeID); err != nil {
				return err
			}
		}
		if existing.Email != previousEmail {
			if err := s.ensureEmailNotExists(txCtx, existing.Email); err != nil {
				return err
			}
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, strings.TrimSpace(in.ID))
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) ensureEmployeeIDNotExists(ctx context.Context, employeeID string) error {
	emp, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmployeeIDAlreadyExists
	}
	return nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	emp, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

// normalizeEmployee は入力を正規化し、必須項目と形式を検証します。
func normalizeEmployee(e *Employee) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"employeeId", &e.EmployeeID},
		{"firstName", &e.FirstName},
		{"lastName", &e.LastName},
		{"designation", &e.Designation},
		{"department", &e.Department},
		{"zone", &e.Zone},
		{"division", &e.Division},
		{"payLevel", &e.PayLevel},
		{"contactNumber", &e.ContactNumber},
		{"email", &e.Email},
		{"address", &e.Address},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return requiredFieldError(f.name)
		}
	}

	if len(e.EmployeeID) > maxEmployeeIDLength || strings.ContainsAny(e.EmployeeID, " \t\n") {
		return ErrInvalidEmployeeID
	}

	email, err := normalizeEmail(e.Email)
	if err != nil {
		return err
	}
	e.Email = email

	if !contactNumberPattern.MatchString(e.ContactNumber) {
		return ErrInvalidContactNumber
	}

	if e.DateOfBirth.IsZero() {
		return requiredFieldError("dateOfBirth")
	}
	if e.DateOfJoining.IsZero() {
		return requiredFieldError("dateOfJoining")
	}
	e.DateOfBirth = NormalizeDate(e.DateOfBirth)
	e.DateOfJoining = NormalizeDate(e.DateOfJoining)
	if e.DateOfJoining.Before(e.DateOfBirth) {
		return ErrInvalidDateRange
	}

	return nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// NormalizeDate は時刻を UTC の日付に丸めます。
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
