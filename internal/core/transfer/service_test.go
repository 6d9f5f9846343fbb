package transfer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTransferRepo struct {
	transfers map[string]*Transfer
}

func newFakeTransferRepo(seed ...*Transfer) *fakeTransferRepo {
	r := &fakeTransferRepo{transfers: make(map[string]*Transfer)}
	for _, t := range seed {
		clone := *t
		r.transfers[t.ID] = &clone
	}
	return r
}

func (r *fakeTransferRepo) Create(_ context.Context, t *Transfer) (*Transfer, error) {
	clone := *t
	r.transfers[t.ID] = &clone
	return &clone, nil
}

func (r *fakeTransferRepo) FindByID(_ context.Context, id string) (*Transfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, ErrTransferNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTransferRepo) LockByID(ctx context.Context, id string) (*Transfer, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTransferRepo) UpdateStatus(_ context.Context, id string, from, to Status, updatedAt time.Time) (*Transfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, ErrTransferNotFound
	}
	if t.Status != from {
		return nil, ErrStatusConflict
	}
	t.Status = to
	t.UpdatedAt = updatedAt
	clone := *t
	return &clone, nil
}

func (r *fakeTransferRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.transfers[id]; !ok {
		return ErrTransferNotFound
	}
	delete(r.transfers, id)
	return nil
}

func (r *fakeTransferRepo) DeleteByEmployee(_ context.Context, employeeRef string) (int, error) {
	removed := 0
	for id, t := range r.transfers {
		if t.EmployeeRef == employeeRef {
			delete(r.transfers, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeTransferRepo) ListWithEmployee(_ context.Context) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(r.transfers))
	for _, t := range r.transfers {
		clone := *t
		entries = append(entries, &Entry{Transfer: &clone})
	}
	return entries, nil
}

func TestService_GetTransfer(t *testing.T) {
	t.Parallel()

	repo := newFakeTransferRepo(&Transfer{ID: "tr-1", EmployeeRef: "emp-1", Status: StatusPending})
	svc := NewService(repo, nil)

	found, err := svc.GetTransfer(context.Background(), GetTransferInput{ID: " tr-1 "})
	if err != nil {
		t.Fatalf("GetTransfer returned error: %v", err)
	}
	if found.EmployeeRef != "emp-1" {
		t.Fatalf("unexpected transfer %+v", found)
	}

	if _, err := svc.GetTransfer(context.Background(), GetTransferInput{ID: "tr-404"}); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
	if _, err := svc.GetTransfer(context.Background(), GetTransferInput{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestService_DeleteTransfer(t *testing.T) {
	t.Parallel()

	repo := newFakeTransferRepo(
		&Transfer{ID: "tr-1", EmployeeRef: "emp-1", Status: StatusPending},
		&Transfer{ID: "tr-2", EmployeeRef: "emp-1", Status: StatusApproved},
	)
	svc := NewService(repo, nil)

	if err := svc.DeleteTransfer(context.Background(), DeleteTransferInput{ID: "tr-1"}); err != nil {
		t.Fatalf("DeleteTransfer returned error: %v", err)
	}
	if _, ok := repo.transfers["tr-1"]; ok {
		t.Fatalf("expected tr-1 to be removed")
	}
	if _, ok := repo.transfers["tr-2"]; !ok {
		t.Fatalf("expected tr-2 to survive")
	}

	if err := svc.DeleteTransfer(context.Background(), DeleteTransferInput{ID: "tr-1"}); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound on second delete, got %v", err)
	}
}
