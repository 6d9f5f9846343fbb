// Package directory は社員と異動申請の読み取り専用ビューを提供します。
package directory

import (
	"context"
	"math"
	"strings"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrInvalidPage  = domainerr.NewField(domainerr.CodeValidation, "page", "directory: page must be positive")
	ErrInvalidLimit = domainerr.NewField(domainerr.CodeValidation, "limit", "directory: limit must be between 1 and 100")
)

// EmployeeReader は検索に必要な社員ストアの操作です。
type EmployeeReader interface {
	Search(ctx context.Context, filter employee.SearchFilter) ([]*employee.Employee, int, error)
	ListSummaries(ctx context.Context) ([]employee.Summary, error)
}

// TransferReader は異動一覧に必要な操作です。
type TransferReader interface {
	ListWithEmployee(ctx context.Context) ([]*transfer.Entry, error)
}

// TransactionManager は読み取りトランザクションを提供します。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// UseCase は参照系ユースケースの公開インターフェースです。
type UseCase interface {
	SearchEmployees(ctx context.Context, in SearchEmployeesInput) (*EmployeePage, error)
	ListEmployeeSummaries(ctx context.Context) ([]employee.Summary, error)
	ListTransfers(ctx context.Context) ([]*transfer.Entry, error)
}

// Service は参照系ユースケースの実装です。
type Service struct {
	employees EmployeeReader
	transfers TransferReader
	tx        TransactionManager
}

// NewService は Service を生成します。
func NewService(employees EmployeeReader, transfers TransferReader, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{employees: employees, transfers: transfers, tx: tx}
}

// SearchEmployeesInput は社員検索の入力です。Page と Limit の 0 は既定値を意味します。
type SearchEmployeesInput struct {
	Search string
	Page   int
	Limit  int
}

// EmployeePage は検索結果の 1 ページです。
type EmployeePage struct {
	Employees    []*employee.Employee
	TotalPages   int
	CurrentPage  int
	TotalRecords int
}

// SearchEmployees は社員を検索し、ページ単位で返します。
// 範囲外のページは空の一覧と正しい総数を返します。
func (s *Service) SearchEmployees(ctx context.Context, in SearchEmployeesInput) (*EmployeePage, error) {
	page, limit, err := normalizePaging(in.Page, in.Limit)
	if err != nil {
		return nil, err
	}

	var (
		found []*employee.Employee
		total int
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		found, total, err = s.employees.Search(txCtx, employee.SearchFilter{
			Term:   strings.TrimSpace(in.Search),
			Limit:  limit,
			Offset: pageOffset(page, limit),
		})
		return err
	}); err != nil {
		return nil, err
	}

	if found == nil {
		found = []*employee.Employee{}
	}
	return &EmployeePage{
		Employees:    found,
		TotalPages:   (total + limit - 1) / limit,
		CurrentPage:  page,
		TotalRecords: total,
	}, nil
}

// ListEmployeeSummaries は全社員の要約を返します。
func (s *Service) ListEmployeeSummaries(ctx context.Context) ([]employee.Summary, error) {
	var summaries []employee.Summary
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		summaries, err = s.employees.ListSummaries(txCtx)
		return err
	}); err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []employee.Summary{}
	}
	return summaries, nil
}

// ListTransfers は異動申請を新しい順に返します。社員の要約は読み取り時点のものです。
func (s *Service) ListTransfers(ctx context.Context) ([]*transfer.Entry, error) {
	var entries []*transfer.Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		entries, err = s.transfers.ListWithEmployee(txCtx)
		return err
	}); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*transfer.Entry{}
	}
	return entries, nil
}

// pageOffset は読み飛ばす件数を返します。桁あふれする場合は math.MaxInt に丸め、空のページとして扱います。
func pageOffset(page, limit int) int {
	if page-1 > (math.MaxInt-limit)/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func normalizePaging(page, limit int) (int, int, error) {
	switch {
	case page < 0:
		return 0, 0, ErrInvalidPage
	case page == 0:
		page = DefaultPage
	}
	switch {
	case limit < 0 || limit > MaxLimit:
		return 0, 0, ErrInvalidLimit
	case limit == 0:
		limit = DefaultLimit
	}
	return page, limit, nil
}
