package handler

import (
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

const dateLayout = "2006-01-02"

func invalidField(key, message string) error {
	return domainerr.NewField(domainerr.CodeValidation, key, key+": "+message)
}

// optionalString はキーが存在する場合のみ値を返します。
func optionalString(s *structpb.Struct, key string) (*string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	sv, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return nil, invalidField(key, "must be a string")
	}
	return &sv.StringValue, nil
}

func stringField(s *structpb.Struct, key string) (string, error) {
	p, err := optionalString(s, key)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func dateField(s *structpb.Struct, key string) (*time.Time, error) {
	p, err := optionalString(s, key)
	if err != nil || p == nil {
		return nil, err
	}
	raw := strings.TrimSpace(*p)
	if raw == "" {
		return nil, invalidField(key, "is required")
	}
	for _, layout := range []string{dateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, invalidField(key, "invalid format, expected YYYY-MM-DD")
}

// intField は数値を整数として読み取ります。キーが無ければ 0 を返します。
func intField(s *structpb.Struct, key string, invalid error) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	nv, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, invalid
	}
	f := nv.NumberValue
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, invalid
	}
	return int(f), nil
}

func boolField(s *structpb.Struct, key string) (bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return false, nil
	}
	bv, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, invalidField(key, "must be a boolean")
	}
	return bv.BoolValue, nil
}

type employeeFields struct {
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

func readEmployeeFields(s *structpb.Struct) (employeeFields, error) {
	var f employeeFields
	targets := []struct {
		key string
		dst **string
	}{
		{"employee_id", &f.EmployeeID},
		{"first_name", &f.FirstName},
		{"last_name", &f.LastName},
		{"designation", &f.Designation},
		{"department", &f.Department},
		{"zone", &f.Zone},
		{"division", &f.Division},
		{"pay_level", &f.PayLevel},
		{"contact_number", &f.ContactNumber},
		{"email", &f.Email},
		{"address", &f.Address},
	}
	for _, t := range targets {
		v, err := optionalString(s, t.key)
		if err != nil {
			return employeeFields{}, err
		}
		*t.dst = v
	}

	var err error
	if f.DateOfBirth, err = dateField(s, "date_of_birth"); err != nil {
		return employeeFields{}, err
	}
	if f.DateOfJoining, err = dateField(s, "date_of_joining"); err != nil {
		return employeeFields{}, err
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (f employeeFields) toCreateInput() employee.CreateEmployeeInput {
	return employee.CreateEmployeeInput{
		EmployeeID:    deref(f.EmployeeID),
		FirstName:     deref(f.FirstName),
		LastName:      deref(f.LastName),
		DateOfBirth:   f.DateOfBirth,
		DateOfJoining: f.DateOfJoining,
		Designation:   deref(f.Designation),
		Department:    deref(f.Department),
		Zone:          deref(f.Zone),
		Division:      deref(f.Division),
		PayLevel:      deref(f.PayLevel),
		ContactNumber: deref(f.ContactNumber),
		Email:         deref(f.Email),
		Address:       deref(f.Address),
	}
}

func (f employeeFields) toUpdateInput(id string) employee.UpdateEmployeeInput {
	return employee.UpdateEmployeeInput{
		ID:            id,
		EmployeeID:    f.EmployeeID,
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		DateOfBirth:   f.DateOfBirth,
		DateOfJoining: f.DateOfJoining,
		Designation:   f.Designation,
		Department:    f.Department,
		Zone:          f.Zone,
		Division:      f.Division,
		PayLevel:      f.PayLevel,
		ContactNumber: f.ContactNumber,
		Email:         f.Email,
		Address:       f.Address,
	}
}

func employeeValue(e *employee.Employee) map[string]any {
	return map[string]any{
		"id":              e.ID,
		"employee_id":     e.EmployeeID,
		"first_name":      e.FirstName,
		"last_name":       e.LastName,
		"date_of_birth":   e.DateOfBirth.Format(dateLayout),
		"date_of_joining": e.DateOfJoining.Format(dateLayout),
		"designation":     e.Designation,
		"department":      e.Department,
		"zone":            e.Zone,
		"division":        e.Division,
		"pay_level":       e.PayLevel,
		"contact_number":  e.ContactNumber,
		"email":           e.Email,
		"address":         e.Address,
		"created_at":      e.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":      e.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func summaryValue(s employee.Summary) map[string]any {
	return map[string]any{
		"id":          s.ID,
		"employee_id": s.EmployeeID,
		"first_name":  s.FirstName,
		"last_name":   s.LastName,
		"zone":        s.Zone,
		"division":    s.Division,
	}
}

func transferValue(t *transfer.Transfer, summary *employee.Summary) map[string]any {
	v := map[string]any{
		"id":                  t.ID,
		"employee_ref":        t.EmployeeRef,
		"from_zone":           t.FromZone,
		"from_division":       t.FromDivision,
		"to_zone":             t.ToZone,
		"to_division":         t.ToDivision,
		"transfer_order_date": t.OrderDate.Format(dateLayout),
		"status":              string(t.Status),
		"created_at":          t.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":          t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if summary != nil {
		v["employee"] = summaryValue(*summary)
	}
	return v
}
