package transfer

import (
	"time"

	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
)

// Transfer は異動申請です。Status 以外は作成後に変更されません。
type Transfer struct {
	ID string
	// EmployeeRef は対象社員の ID です。所有関係ではなく参照です。
	EmployeeRef  string
	FromZone     string
	FromDivision string
	ToZone       string
	ToDivision   string
	OrderDate    time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Target は異動先の配属を返します。
func (t *Transfer) Target() employee.Posting {
	return employee.Posting{Zone: t.ToZone, Division: t.ToDivision}
}

// Entry は異動一覧の 1 行です。Employee は読み取り時点の社員要約で、参照先が無ければ nil です。
type Entry struct {
	Transfer *Transfer
	Employee *employee.Summary
}
