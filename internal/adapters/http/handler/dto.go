package handler

import (
	"strings"
	"time"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

const dateLayout = "2006-01-02"

type employeeRequest struct {
	EmployeeID    *string `json:"employeeId"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	DateOfBirth   *string `json:"dateOfBirth"`
	DateOfJoining *string `json:"dateOfJoining"`
	Designation   *string `json:"designation"`
	Department    *string `json:"department"`
	Zone          *string `json:"zone"`
	Division      *string `json:"division"`
	PayLevel      *string `json:"payLevel"`
	ContactNumber *string `json:"contactNumber"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
}

func (r employeeRequest) toCreateInput() (employee.CreateEmployeeInput, error) {
	dob, err := parseDate("dateOfBirth", r.DateOfBirth)
	if err != nil {
		return employee.CreateEmployeeInput{}, err
	}
	doj, err := parseDate("dateOfJoining", r.DateOfJoining)
	if err != nil {
		return employee.CreateEmployeeInput{}, err
	}

	return employee.CreateEmployeeInput{
		EmployeeID:    value(r.EmployeeID),
		FirstName:     value(r.FirstName),
		LastName:      value(r.LastName),
		DateOfBirth:   dob,
		DateOfJoining: doj,
		Designation:   value(r.Designation),
		Department:    value(r.Department),
		Zone:          value(r.Zone),
		Division:      value(r.Division),
		PayLevel:      value(r.PayLevel),
		ContactNumber: value(r.ContactNumber),
		Email:         value(r.Email),
		Address:       value(r.Address),
	}, nil
}

func (r employeeRequest) toUpdateInput(id string) (employee.UpdateEmployeeInput, error) {
	dob, err := parseDate("dateOfBirth", r.DateOfBirth)
	if err != nil {
		return employee.UpdateEmployeeInput{}, err
	}
	doj, err := parseDate("dateOfJoining", r.DateOfJoining)
	if err != nil {
		return employee.UpdateEmployeeInput{}, err
	}

	return employee.UpdateEmployeeInput{
		ID:            id,
		EmployeeID:    r.EmployeeID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		DateOfBirth:   dob,
		DateOfJoining: doj,
		Designation:   r.Designation,
		Department:    r.Department,
		Zone:          r.Zone,
		Division:      r.Division,
		PayLevel:      r.PayLevel,
		ContactNumber: r.ContactNumber,
		Email:         r.Email,
		Address:       r.Address,
	}, nil
}

type employeeResponse struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DateOfBirth   string    `json:"dateOfBirth"`
	DateOfJoining string    `json:"dateOfJoining"`
	Designation   string    `json:"designation"`
	Department    string    `json:"department"`
	Zone          string    `json:"zone"`
	Division      string    `json:"division"`
	PayLevel      string    `json:"payLevel"`
	ContactNumber string    `json:"contactNumber"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		DateOfBirth:   e.DateOfBirth.Format(dateLayout),
		DateOfJoining: e.DateOfJoining.Format(dateLayout),
		Designation:   e.Designation,
		Department:    e.Department,
		Zone:          e.Zone,
		Division:      e.Division,
		PayLevel:      e.PayLevel,
		ContactNumber: e.ContactNumber,
		Email:         e.Email,
		Address:       e.Address,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type employeePageResponse struct {
	Employees    []employeeResponse `json:"employees"`
	TotalPages   int                `json:"totalPages"`
	CurrentPage  int                `json:"currentPage"`
	TotalRecords int                `json:"totalRecords"`
}

type summaryResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Zone       string `json:"zone"`
	Division   string `json:"division"`
}

func newSummaryResponse(s employee.Summary) summaryResponse {
	return summaryResponse(s)
}

type createTransferRequest struct {
	EmployeeID        string  `json:"employeeId"`
	ToZone            string  `json:"toZone"`
	ToDivision        string  `json:"toDivision"`
	TransferOrderDate *string `json:"transferOrderDate"`
}

type updateTransferStatusRequest struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
}

type transferResponse struct {
	ID                string           `json:"id"`
	EmployeeRef       string           `json:"employeeRef"`
	Employee          *summaryResponse `json:"employee,omitempty"`
	FromZone          string           `json:"fromZone"`
	FromDivision      string           `json:"fromDivision"`
	ToZone            string           `json:"toZone"`
	ToDivision        string           `json:"toDivision"`
	TransferOrderDate string           `json:"transferOrderDate"`
	Status            transfer.Status  `json:"status"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func newTransferResponse(t *transfer.Transfer, summary *employee.Summary) transferResponse {
	resp := transferResponse{
		ID:                t.ID,
		EmployeeRef:       t.EmployeeRef,
		FromZone:          t.FromZone,
		FromDivision:      t.FromDivision,
		ToZone:            t.ToZone,
		ToDivision:        t.ToDivision,
		TransferOrderDate: t.OrderDate.Format(dateLayout),
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if summary != nil {
		s := newSummaryResponse(*summary)
		resp.Employee = &s
	}
	return resp
}

type messageResponse struct {
	Message          string `json:"message"`
	RemovedTransfers *int   `json:"removedTransfers,omitempty"`
}

type errorResponse struct {
	Code    domainerr.Code `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
}

// parseDate は YYYY-MM-DD と RFC 3339 を受け付けます。未指定なら nil を返します。
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, domainerr.NewField(domainerr.CodeValidation, field, field+" is required")
	}
	for _, layout := range []string{dateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, domainerr.NewField(domainerr.CodeValidation, field, field+" must be a date (YYYY-MM-DD)")
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
