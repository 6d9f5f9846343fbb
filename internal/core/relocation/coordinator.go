// Package relocation は社員と異動申請の両方を書き換える操作をまとめ、
// それぞれを単一のトランザクションとして実行します。
package relocation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

const tracerName = "github.com/ogurasousui/personnel-ledger/internal/core/relocation"

// EmployeeRepository は Coordinator が必要とする社員ストアの操作です。
type EmployeeRepository interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	LockByID(ctx context.Context, id string) (*employee.Employee, error)
	UpdatePosting(ctx context.Context, id string, posting employee.Posting, updatedAt time.Time) (*employee.Employee, error)
	Delete(ctx context.Context, id string) error
}

// TransferRepository は Coordinator が必要とする異動ストアの操作です。
type TransferRepository interface {
	Create(ctx context.Context, t *transfer.Transfer) (*transfer.Transfer, error)
	FindByID(ctx context.Context, id string) (*transfer.Transfer, error)
	LockByID(ctx context.Context, id string) (*transfer.Transfer, error)
	UpdateStatus(ctx context.Context, id string, from, to transfer.Status, updatedAt time.Time) (*transfer.Transfer, error)
	DeleteByEmployee(ctx context.Context, employeeRef string) (int, error)
}

// TransactionManager は読み書きトランザクションを提供します。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Metrics は複合操作の結果を記録します。
type Metrics interface {
	TransferCreated()
	TransferStatusChanged(from, to string, forced bool)
	EmployeeDeleted(removedTransfers int)
	ConsistencyFailure(operation string)
}

type noopMetrics struct{}

func (noopMetrics) TransferCreated() {}

func (noopMetrics) TransferStatusChanged(string, string, bool) {}

func (noopMetrics) EmployeeDeleted(int) {}

func (noopMetrics) ConsistencyFailure(string) {}

// UseCase は Coordinator の公開インターフェースです。
type UseCase interface {
	CreateTransfer(ctx context.Context, in CreateTransferInput) (*transfer.Transfer, error)
	UpdateTransferStatus(ctx context.Context, in UpdateTransferStatusInput) (*transfer.Transfer, error)
	CompleteTransfer(ctx context.Context, id string) (*transfer.Transfer, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) (*DeleteEmployeeResult, error)
}

// Coordinator は社員ストアと異動ストアにまたがる操作を原子的に実行します。
type Coordinator struct {
	employees EmployeeRepository
	transfers TransferRepository
	tx        TransactionManager
	clock     Clock
	logger    *slog.Logger
	metrics   Metrics
	tracer    trace.Tracer
}

// Option は Coordinator の任意設定です。
type Option func(*Coordinator)

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics はメトリクスの記録先を設定します。
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock は時刻の取得元を差し替えます。
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New は Coordinator を生成します。
func New(employees EmployeeRepository, transfers TransferRepository, tx TransactionManager, opts ...Option) *Coordinator {
	c := &Coordinator{
		employees: employees,
		transfers: transfers,
		tx:        tx,
		clock:     realClock{},
		logger:    slog.New(slog.DiscardHandler),
		metrics:   noopMetrics{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTransferInput は異動申請作成時の入力です。
type CreateTransferInput struct {
	EmployeeRef string
	ToZone      string
	ToDivision  string
	OrderDate   *time.Time
}

// UpdateTransferStatusInput は異動状態変更時の入力です。
// Force は遷移表を無視する手動訂正用の経路です。
type UpdateTransferStatusInput struct {
	ID     string
	Status transfer.Status
	Force  bool
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// DeleteEmployeeResult は社員削除の結果です。
type DeleteEmployeeResult struct {
	RemovedTransfers int
}

// CreateTransfer は社員の現在の配属を異動元として写し取り、異動申請を作成します。
// 社員が存在しない場合は何も書き込みません。
func (c *Coordinator) CreateTransfer(ctx context.Context, in CreateTransferInput) (*transfer.Transfer, error) {
	ctx, span := c.tracer.Start(ctx, "relocation.CreateTransfer")
	defer span.End()

	ref := strings.TrimSpace(in.EmployeeRef)
	toZone := strings.TrimSpace(in.ToZone)
	toDivision := strings.TrimSpace(in.ToDivision)
	switch {
	case ref == "":
		return nil, requiredFieldError("employeeId")
	case toZone == "":
		return nil, requiredFieldError("toZone")
	case toDivision == "":
		return nil, requiredFieldError("toDivision")
	case in.OrderDate == nil || in.OrderDate.IsZero():
		return nil, requiredFieldError("transferOrderDate")
	}
	span.SetAttributes(attribute.String("employee.id", ref))

	var created *transfer.Transfer
	err := c.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := c.employees.FindByID(txCtx, ref)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		result, err := c.transfers.Create(txCtx, &transfer.Transfer{
			EmployeeRef:  emp.ID,
			FromZone:     emp.Zone,
			FromDivision: emp.Division,
			ToZone:       toZone,
			ToDivision:   toDivision,
			OrderDate:    employee.NormalizeDate(*in.OrderDate),
			Status:       transfer.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	})
	if err != nil {
		return nil, c.fail(ctx, span, "create_transfer", err)
	}

	c.metrics.TransferCreated()
	c.logger.InfoContext(ctx, "transfer created",
		"transfer_id", created.ID,
		"employee_id", created.EmployeeRef,
		"from", created.FromZone+"/"+created.FromDivision,
		"to", created.ToZone+"/"+created.ToDivision,
	)
	return created, nil
}

// CompleteTransfer は異動を完了させ、社員の配属を異動先へ書き換えます。
func (c *Coordinator) CompleteTransfer(ctx context.Context, id string) (*transfer.Transfer, error) {
	return c.UpdateTransferStatus(ctx, UpdateTransferStatusInput{ID: id, Status: transfer.StatusCompleted})
}

// UpdateTransferStatus は異動の状態を遷移させます。
// Completed への遷移では状態と社員の配属を同じトランザクションで更新します。
// ロックは常に社員、異動の順に取得します。
func (c *Coordinator) UpdateTransferStatus(ctx context.Context, in UpdateTransferStatusInput) (*transfer.Transfer, error) {
	ctx, span := c.tracer.Start(ctx, "relocation.UpdateTransferStatus")
	defer span.End()

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", transfer.ErrInvalidID)
	}
	if !in.Status.IsValid() {
		return nil, transfer.ErrInvalidStatus
	}
	span.SetAttributes(
		attribute.String("transfer.id", id),
		attribute.String("transfer.status", string(in.Status)),
		attribute.Bool("transfer.force", in.Force),
	)

	var (
		updated   *transfer.Transfer
		previous  transfer.Status
		relocated bool
	)
	err := c.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := c.transfers.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		emp, err := c.employees.LockByID(txCtx, current.EmployeeRef)
		if err != nil {
			return err
		}

		locked, err := c.transfers.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		previous = locked.Status

		if !locked.Status.CanTransitionTo(in.Status) {
			if !in.Force || locked.Status == in.Status {
				return fmt.Errorf("%s -> %s: %w", locked.Status, in.Status, transfer.ErrInvalidTransition)
			}
		}

		now := c.clock.Now()
		result, err := c.transfers.UpdateStatus(txCtx, id, locked.Status, in.Status, now)
		if err != nil {
			return err
		}

		if in.Status == transfer.StatusCompleted {
			if _, err := c.employees.UpdatePosting(txCtx, emp.ID, locked.Target(), now); err != nil {
				return err
			}
			relocated = true
		}

		updated = result
		return nil
	})
	if err != nil {
		return nil, c.fail(ctx, span, "update_transfer_status", err)
	}

	forced := !previous.CanTransitionTo(updated.Status)
	c.metrics.TransferStatusChanged(string(previous), string(updated.Status), forced)

	attrs := []any{
		"transfer_id", updated.ID,
		"employee_id", updated.EmployeeRef,
		"from_status", string(previous),
		"to_status", string(updated.Status),
		"relocated", relocated,
	}
	if forced {
		c.logger.WarnContext(ctx, "transfer status overridden", attrs...)
	} else {
		c.logger.InfoContext(ctx, "transfer status changed", attrs...)
	}
	return updated, nil
}

// DeleteEmployee は社員と、その社員を参照する異動申請をまとめて削除します。
func (c *Coordinator) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) (*DeleteEmployeeResult, error) {
	ctx, span := c.tracer.Start(ctx, "relocation.DeleteEmployee")
	defer span.End()

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", employee.ErrInvalidID)
	}
	span.SetAttributes(attribute.String("employee.id", id))

	var removed int
	err := c.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := c.employees.LockByID(txCtx, id); err != nil {
			return err
		}

		n, err := c.transfers.DeleteByEmployee(txCtx, id)
		if err != nil {
			return err
		}

		if err := c.employees.Delete(txCtx, id); err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		return nil, c.fail(ctx, span, "delete_employee", err)
	}

	span.SetAttributes(attribute.Int("transfers.removed", removed))
	c.metrics.EmployeeDeleted(removed)
	c.logger.InfoContext(ctx, "employee deleted", "employee_id", id, "removed_transfers", removed)
	return &DeleteEmployeeResult{RemovedTransfers: removed}, nil
}

// fail はドメインエラーをそのまま返し、それ以外を整合性エラーとして包みます。
// トランザクションは呼び出し時点でロールバック済みです。
func (c *Coordinator) fail(ctx context.Context, span trace.Span, op string, err error) error {
	if domainerr.CodeOf(err) != domainerr.CodeInternal {
		span.SetAttributes(attribute.String("error.code", string(domainerr.CodeOf(err))))
		return err
	}

	span.RecordError(err)
	span.SetStatus(otelcodes.Error, op+" failed")
	c.metrics.ConsistencyFailure(op)
	c.logger.ErrorContext(ctx, "compound update rolled back", "operation", op, "error", err)
	return domainerr.Wrap(err, domainerr.CodeConsistencyFailure, "relocation: "+op+" failed")
}

func requiredFieldError(field string) error {
	return domainerr.NewField(domainerr.CodeValidation, field, "relocation: "+field+" is required")
}
