package relocation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/personnel-ledger/internal/adapters/repository/memory"
	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type countingMetrics struct {
	mu       sync.Mutex
	created  int
	changes  []string
	forced   int
	deleted  int
	failures []string
}

func (m *countingMetrics) TransferCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *countingMetrics) TransferStatusChanged(from, to string, forced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, from+"->"+to)
	if forced {
		m.forced++
	}
}

func (m *countingMetrics) EmployeeDeleted(removed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted += removed
}

func (m *countingMetrics) ConsistencyFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, op)
}

// failingEmployees は指定した操作だけを失敗させます。
type failingEmployees struct {
	*memory.EmployeeRepository
	updatePostingErr error
	deleteErr        error
}

func (f *failingEmployees) UpdatePosting(ctx context.Context, id string, posting employee.Posting, updatedAt time.Time) (*employee.Employee, error) {
	if f.updatePostingErr != nil {
		return nil, f.updatePostingErr
	}
	return f.EmployeeRepository.UpdatePosting(ctx, id, posting, updatedAt)
}

func (f *failingEmployees) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.EmployeeRepository.Delete(ctx, id)
}

type fixture struct {
	employees   *failingEmployees
	transfers   *memory.TransferRepository
	metrics     *countingMetrics
	coordinator *relocation.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		employees: &failingEmployees{EmployeeRepository: memory.NewEmployeeRepository(store)},
		transfers: memory.NewTransferRepository(store),
		metrics:   &countingMetrics{},
	}
	f.coordinator = relocation.New(f.employees, f.transfers, memory.NewTransactionManager(store),
		relocation.WithMetrics(f.metrics),
		relocation.WithClock(&tickingClock{now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}),
	)
	return f
}

func (f *fixture) seedEmployee(t *testing.T, code, zone, division string) *employee.Employee {
	t.Helper()

	created, err := f.employees.Create(context.Background(), &employee.Employee{
		EmployeeID: code,
		FirstName:  "First" + code,
		LastName:   "Last" + code,
		Zone:       zone,
		Division:   division,
		Email:      code + "@example.com",
	})
	if err != nil {
		t.Fatalf("seed employee %s: %v", code, err)
	}
	return created
}

func (f *fixture) createTransfer(t *testing.T, ref, zone, division string) *transfer.Transfer {
	t.Helper()

	order := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	created, err := f.coordinator.CreateTransfer(context.Background(), relocation.CreateTransferInput{
		EmployeeRef: ref,
		ToZone:      zone,
		ToDivision:  division,
		OrderDate:   &order,
	})
	if err != nil {
		t.Fatalf("CreateTransfer returned error: %v", err)
	}
	return created
}

func (f *fixture) setStatus(t *testing.T, id string, status transfer.Status) *transfer.Transfer {
	t.Helper()

	updated, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{ID: id, Status: status})
	if err != nil {
		t.Fatalf("UpdateTransferStatus(%s) returned error: %v", status, err)
	}
	return updated
}

func (f *fixture) posting(t *testing.T, id string) employee.Posting {
	t.Helper()

	emp, err := f.employees.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	return emp.Posting()
}

func (f *fixture) status(t *testing.T, id string) transfer.Status {
	t.Helper()

	tr, err := f.transfers.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	return tr.Status
}

func TestCoordinator_CreateTransferSnapshotsPosting(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")

	created := f.createTransfer(t, emp.ID, "NR", "Delhi")
	if created.FromZone != "WR" || created.FromDivision != "Mumbai" {
		t.Fatalf("unexpected snapshot %s/%s", created.FromZone, created.FromDivision)
	}
	if created.Status != transfer.StatusPending {
		t.Fatalf("expected Pending, got %s", created.Status)
	}
	if !created.OrderDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected order date %v", created.OrderDate)
	}

	if _, err := f.employees.UpdatePosting(context.Background(), emp.ID, employee.Posting{Zone: "SR", Division: "Chennai"}, time.Now()); err != nil {
		t.Fatalf("UpdatePosting returned error: %v", err)
	}

	stored, err := f.transfers.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.FromZone != "WR" || stored.FromDivision != "Mumbai" {
		t.Fatalf("snapshot must not follow the employee, got %s/%s", stored.FromZone, stored.FromDivision)
	}
	if f.metrics.created != 1 {
		t.Fatalf("expected one created transfer metric, got %d", f.metrics.created)
	}
}

func TestCoordinator_CreateTransferUnknownEmployee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := time.Now()

	_, err := f.coordinator.CreateTransfer(context.Background(), relocation.CreateTransferInput{
		EmployeeRef: "00000000-0000-0000-0000-000000000000",
		ToZone:      "NR",
		ToDivision:  "Delhi",
		OrderDate:   &order,
	})
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	entries, err := f.transfers.ListWithEmployee(context.Background())
	if err != nil {
		t.Fatalf("ListWithEmployee returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no transfers, got %d", len(entries))
	}
}

func TestCoordinator_CreateTransferValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	order := time.Now()

	cases := []struct {
		name  string
		in    relocation.CreateTransferInput
		field string
	}{
		{"missing employee", relocation.CreateTransferInput{ToZone: "NR", ToDivision: "Delhi", OrderDate: &order}, "employeeId"},
		{"missing zone", relocation.CreateTransferInput{EmployeeRef: emp.ID, ToZone: " ", ToDivision: "Delhi", OrderDate: &order}, "toZone"},
		{"missing division", relocation.CreateTransferInput{EmployeeRef: emp.ID, ToZone: "NR", OrderDate: &order}, "toDivision"},
		{"missing order date", relocation.CreateTransferInput{EmployeeRef: emp.ID, ToZone: "NR", ToDivision: "Delhi"}, "transferOrderDate"},
	}

	for _, tc := range cases {
		_, err := f.coordinator.CreateTransfer(context.Background(), tc.in)
		if !domainerr.HasCode(err, domainerr.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if domainerr.FieldOf(err) != tc.field {
			t.Fatalf("%s: expected field %s, got %s", tc.name, tc.field, domainerr.FieldOf(err))
		}
	}
}

func TestCoordinator_CompleteTransferRelocatesEmployee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	tr := f.createTransfer(t, emp.ID, "NR", "Delhi")
	f.setStatus(t, tr.ID, transfer.StatusApproved)

	if got := f.posting(t, emp.ID); got.Zone != "WR" {
		t.Fatalf("approval must not move the employee, got %+v", got)
	}

	completed, err := f.coordinator.CompleteTransfer(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("CompleteTransfer returned error: %v", err)
	}
	if completed.Status != transfer.StatusCompleted {
		t.Fatalf("expected Completed, got %s", completed.Status)
	}
	if completed.FromZone != "WR" || completed.FromDivision != "Mumbai" {
		t.Fatalf("snapshot must survive completion, got %s/%s", completed.FromZone, completed.FromDivision)
	}
	if got := f.posting(t, emp.ID); got != (employee.Posting{Zone: "NR", Division: "Delhi"}) {
		t.Fatalf("expected NR/Delhi, got %+v", got)
	}
	if len(f.metrics.changes) != 2 || f.metrics.changes[1] != "Approved->Completed" {
		t.Fatalf("unexpected status metrics %v", f.metrics.changes)
	}
}

func TestCoordinator_RejectsForbiddenTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		path   []transfer.Status
		target transfer.Status
	}{
		{"pending to completed", nil, transfer.StatusCompleted},
		{"pending to pending", nil, transfer.StatusPending},
		{"approved to pending", []transfer.Status{transfer.StatusApproved}, transfer.StatusPending},
		{"cancelled to completed", []transfer.Status{transfer.StatusCancelled}, transfer.StatusCompleted},
		{"cancelled to approved", []transfer.Status{transfer.StatusCancelled}, transfer.StatusApproved},
		{"completed to cancelled", []transfer.Status{transfer.StatusApproved, transfer.StatusCompleted}, transfer.StatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
			tr := f.createTransfer(t, emp.ID, "NR", "Delhi")
			for _, step := range tc.path {
				f.setStatus(t, tr.ID, step)
			}
			before := f.posting(t, emp.ID)
			current := f.status(t, tr.ID)

			_, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{ID: tr.ID, Status: tc.target})
			if !errors.Is(err, transfer.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if got := f.status(t, tr.ID); got != current {
				t.Fatalf("status changed to %s", got)
			}
			if got := f.posting(t, emp.ID); got != before {
				t.Fatalf("posting changed to %+v", got)
			}
		})
	}
}

func TestCoordinator_UpdateTransferStatusInputErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{Status: transfer.StatusApproved}); !errors.Is(err, transfer.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{ID: "tr", Status: "Archived"}); !errors.Is(err, transfer.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.coordinator.CompleteTransfer(context.Background(), "missing"); !errors.Is(err, transfer.ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
}

func TestCoordinator_ForceOverridesTransitionTable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	tr := f.createTransfer(t, emp.ID, "NR", "Delhi")
	f.setStatus(t, tr.ID, transfer.StatusApproved)
	f.setStatus(t, tr.ID, transfer.StatusCompleted)

	updated, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{
		ID:     tr.ID,
		Status: transfer.StatusCancelled,
		Force:  true,
	})
	if err != nil {
		t.Fatalf("forced update returned error: %v", err)
	}
	if updated.Status != transfer.StatusCancelled {
		t.Fatalf("expected Cancelled, got %s", updated.Status)
	}
	if got := f.posting(t, emp.ID); got != (employee.Posting{Zone: "NR", Division: "Delhi"}) {
		t.Fatalf("forced cancel must not revert the posting, got %+v", got)
	}
	if f.metrics.forced != 1 {
		t.Fatalf("expected one forced transition, got %d", f.metrics.forced)
	}

	_, err = f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{
		ID:     tr.ID,
		Status: transfer.StatusCancelled,
		Force:  true,
	})
	if !errors.Is(err, transfer.ErrInvalidTransition) {
		t.Fatalf("same-state update must be rejected even when forced, got %v", err)
	}
}

func TestCoordinator_ForcedCompletionRelocates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	tr := f.createTransfer(t, emp.ID, "NR", "Delhi")

	if _, err := f.coordinator.UpdateTransferStatus(context.Background(), relocation.UpdateTransferStatusInput{
		ID:     tr.ID,
		Status: transfer.StatusCompleted,
		Force:  true,
	}); err != nil {
		t.Fatalf("forced completion returned error: %v", err)
	}
	if got := f.posting(t, emp.ID); got.Zone != "NR" {
		t.Fatalf("expected relocation on forced completion, got %+v", got)
	}
}

func TestCoordinator_CompleteRollsBackWhenPostingWriteFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	tr := f.createTransfer(t, emp.ID, "NR", "Delhi")
	f.setStatus(t, tr.ID, transfer.StatusApproved)

	cause := errors.New("disk full")
	f.employees.updatePostingErr = cause

	_, err := f.coordinator.CompleteTransfer(context.Background(), tr.ID)
	if !domainerr.HasCode(err, domainerr.CodeConsistencyFailure) {
		t.Fatalf("expected consistency failure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if got := f.status(t, tr.ID); got != transfer.StatusApproved {
		t.Fatalf("status must roll back, got %s", got)
	}
	if got := f.posting(t, emp.ID); got.Zone != "WR" {
		t.Fatalf("posting must be unchanged, got %+v", got)
	}
	if len(f.metrics.failures) != 1 || f.metrics.failures[0] != "update_transfer_status" {
		t.Fatalf("unexpected failure metrics %v", f.metrics.failures)
	}
}

func TestCoordinator_DeleteEmployeeCascades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	e := f.seedEmployee(t, "E001", "WR", "Mumbai")
	other := f.seedEmployee(t, "E002", "ER", "Kolkata")
	f.createTransfer(t, e.ID, "NR", "Delhi")
	f.createTransfer(t, e.ID, "SR", "Chennai")
	kept := f.createTransfer(t, other.ID, "NR", "Delhi")

	result, err := f.coordinator.DeleteEmployee(context.Background(), relocation.DeleteEmployeeInput{ID: e.ID})
	if err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}
	if result.RemovedTransfers != 2 {
		t.Fatalf("expected 2 removed transfers, got %d", result.RemovedTransfers)
	}

	if _, err := f.employees.FindByID(context.Background(), e.ID); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected employee to be gone, got %v", err)
	}
	entries, err := f.transfers.ListWithEmployee(context.Background())
	if err != nil {
		t.Fatalf("ListWithEmployee returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Transfer.ID != kept.ID {
		t.Fatalf("expected only %s to remain, got %d entries", kept.ID, len(entries))
	}
}

func TestCoordinator_DeleteEmployeeRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	f.createTransfer(t, emp.ID, "NR", "Delhi")
	f.employees.deleteErr = errors.New("connection reset")

	_, err := f.coordinator.DeleteEmployee(context.Background(), relocation.DeleteEmployeeInput{ID: emp.ID})
	if !domainerr.HasCode(err, domainerr.CodeConsistencyFailure) {
		t.Fatalf("expected consistency failure, got %v", err)
	}

	if _, err := f.employees.FindByID(context.Background(), emp.ID); err != nil {
		t.Fatalf("employee must survive, got %v", err)
	}
	entries, err := f.transfers.ListWithEmployee(context.Background())
	if err != nil {
		t.Fatalf("ListWithEmployee returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("transfers must be restored, got %d", len(entries))
	}
}

func TestCoordinator_DeleteEmployeeNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.coordinator.DeleteEmployee(context.Background(), relocation.DeleteEmployeeInput{ID: "missing"}); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if _, err := f.coordinator.DeleteEmployee(context.Background(), relocation.DeleteEmployeeInput{ID: " "}); !errors.Is(err, employee.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if f.metrics.deleted != 0 {
		t.Fatalf("no deletion must be recorded")
	}
}

func TestCoordinator_ConcurrentCompletionsForOneEmployee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emp := f.seedEmployee(t, "E001", "WR", "Mumbai")
	targets := []employee.Posting{{Zone: "NR", Division: "Delhi"}, {Zone: "SR", Division: "Chennai"}}

	ids := make([]string, 0, len(targets))
	for _, target := range targets {
		tr := f.createTransfer(t, emp.ID, target.Zone, target.Division)
		f.setStatus(t, tr.ID, transfer.StatusApproved)
		ids = append(ids, tr.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.coordinator.CompleteTransfer(context.Background(), id)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("completion %d returned error: %v", i, err)
		}
		if got := f.status(t, ids[i]); got != transfer.StatusCompleted {
			t.Fatalf("transfer %d ended in %s", i, got)
		}
	}

	got := f.posting(t, emp.ID)
	if got != targets[0] && got != targets[1] {
		t.Fatalf("posting %+v matches neither target", got)
	}
}
