package employee

import "github.com/ogurasousui/personnel-ledger/internal/core/domainerr"

var (
	ErrInvalidID               = domainerr.NewField(domainerr.CodeValidation, "id", "employee: invalid id")
	ErrInvalidEmail            = domainerr.NewField(domainerr.CodeValidation, "email", "employee: invalid email")
	ErrInvalidContactNumber    = domainerr.NewField(domainerr.CodeValidation, "contactNumber", "employee: invalid contact number")
	ErrInvalidEmployeeID       = domainerr.NewField(domainerr.CodeValidation, "employeeId", "employee: invalid employee id")
	ErrInvalidDateRange        = domainerr.NewField(domainerr.CodeValidation, "dateOfJoining", "employee: date of joining precedes date of birth")
	ErrEmployeeNotFound        = domainerr.New(domainerr.CodeNotFound, "employee: not found")
	ErrEmployeeIDAlreadyExists = domainerr.NewField(domainerr.CodeDuplicateKey, "employeeId", "employee: employee id already exists")
	ErrEmailAlreadyExists      = domainerr.NewField(domainerr.CodeDuplicateKey, "email", "employee: email already exists")
	ErrHasTransfers            = domainerr.New(domainerr.CodeConflict, "employee: transfers still reference the employee")
)

func requiredFieldError(field string) error {
	return domainerr.NewField(domainerr.CodeValidation, field, "employee: "+field+" is required")
}
