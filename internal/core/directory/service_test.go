package directory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

type fakeEmployeeReader struct {
	employees []*employee.Employee
	lastTerm  string
}

func (r *fakeEmployeeReader) Search(_ context.Context, filter employee.SearchFilter) ([]*employee.Employee, int, error) {
	r.lastTerm = filter.Term
	term := strings.ToLower(filter.Term)

	var matched []*employee.Employee
	for _, e := range r.employees {
		if term == "" || strings.Contains(strings.ToLower(e.FirstName+" "+e.LastName), term) {
			matched = append(matched, e)
		}
	}

	start := min(filter.Offset, len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func (r *fakeEmployeeReader) ListSummaries(context.Context) ([]employee.Summary, error) {
	out := make([]employee.Summary, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, e.Summary())
	}
	return out, nil
}

type fakeTransferReader struct {
	entries []*transfer.Entry
	err     error
}

func (r *fakeTransferReader) ListWithEmployee(context.Context) ([]*transfer.Entry, error) {
	return r.entries, r.err
}

func seedEmployees(n int) *fakeEmployeeReader {
	r := &fakeEmployeeReader{}
	for i := range n {
		r.employees = append(r.employees, &employee.Employee{
			ID:         fmt.Sprintf("emp-%02d", i),
			EmployeeID: fmt.Sprintf("E%02d", i),
			FirstName:  "Name",
			LastName:   fmt.Sprintf("Last%02d", i),
		})
	}
	return r
}

func TestService_SearchEmployeesPaging(t *testing.T) {
	t.Parallel()

	svc := NewService(seedEmployees(23), &fakeTransferReader{}, nil)

	cases := []struct {
		page      int
		wantItems int
	}{
		{1, 10},
		{3, 3},
		{4, 0},
		{922337203685477582, 0},
		{math.MaxInt, 0},
	}
	for _, tc := range cases {
		got, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Page: tc.page, Limit: 10})
		if err != nil {
			t.Fatalf("page %d: unexpected error %v", tc.page, err)
		}
		if got.TotalPages != 3 || got.TotalRecords != 23 || got.CurrentPage != tc.page {
			t.Fatalf("page %d: unexpected totals %+v", tc.page, got)
		}
		if len(got.Employees) != tc.wantItems {
			t.Fatalf("page %d: expected %d items, got %d", tc.page, tc.wantItems, len(got.Employees))
		}
	}
}

func TestPageOffset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		page, limit, want int
	}{
		{1, 10, 0},
		{3, 10, 20},
		{math.MaxInt / 100, 100, (math.MaxInt/100 - 1) * 100},
		{math.MaxInt/100 + 2, 100, math.MaxInt},
		{math.MaxInt, 1, math.MaxInt - 1},
		{math.MaxInt, 2, math.MaxInt},
	}
	for _, tc := range cases {
		if got := pageOffset(tc.page, tc.limit); got != tc.want {
			t.Fatalf("pageOffset(%d, %d) = %d, want %d", tc.page, tc.limit, got, tc.want)
		}
	}
}

func TestService_SearchEmployeesDefaults(t *testing.T) {
	t.Parallel()

	reader := seedEmployees(15)
	svc := NewService(reader, &fakeTransferReader{}, nil)

	got, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Search: "  "})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.CurrentPage != DefaultPage || len(got.Employees) != DefaultLimit || got.TotalPages != 2 {
		t.Fatalf("unexpected page %+v", got)
	}
	if reader.lastTerm != "" {
		t.Fatalf("expected trimmed term, got %q", reader.lastTerm)
	}
}

func TestService_SearchEmployeesEmptyResult(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeEmployeeReader{}, &fakeTransferReader{}, nil)

	got, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Search: "nobody"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Employees == nil || len(got.Employees) != 0 || got.TotalPages != 0 || got.TotalRecords != 0 {
		t.Fatalf("unexpected page %+v", got)
	}
}

func TestService_SearchEmployeesCaseInsensitive(t *testing.T) {
	t.Parallel()

	reader := seedEmployees(3)
	reader.employees = append(reader.employees, &employee.Employee{ID: "emp-x", FirstName: "Ravi", LastName: "SINGH"})
	svc := NewService(reader, &fakeTransferReader{}, nil)

	got, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Search: "singh"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.TotalRecords != 1 || got.Employees[0].ID != "emp-x" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestService_SearchEmployeesRejectsBadPaging(t *testing.T) {
	t.Parallel()

	svc := NewService(seedEmployees(1), &fakeTransferReader{}, nil)

	if _, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Page: -1}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if _, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Limit: -5}); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := svc.SearchEmployees(context.Background(), SearchEmployeesInput{Limit: MaxLimit + 1}); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestService_ListTransfers(t *testing.T) {
	t.Parallel()

	summary := employee.Summary{ID: "emp-1", FirstName: "Asha"}
	reader := &fakeTransferReader{entries: []*transfer.Entry{
		{Transfer: &transfer.Transfer{ID: "tr-2", CreatedAt: time.Unix(2, 0)}, Employee: &summary},
		{Transfer: &transfer.Transfer{ID: "tr-1", CreatedAt: time.Unix(1, 0)}},
	}}
	svc := NewService(&fakeEmployeeReader{}, reader, nil)

	entries, err := svc.ListTransfers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(entries) != 2 || entries[0].Employee.FirstName != "Asha" || entries[1].Employee != nil {
		t.Fatalf("unexpected entries %+v", entries)
	}

	reader.err = errors.New("boom")
	if _, err := svc.ListTransfers(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_ListEmployeeSummariesNeverNil(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeEmployeeReader{}, &fakeTransferReader{}, nil)

	summaries, err := svc.ListEmployeeSummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if summaries == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}
