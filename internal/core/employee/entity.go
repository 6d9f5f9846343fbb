package employee

import "time"

// Employee は社員エンティティです。Zone と Division が現在の配属を表します。
type Employee struct {
	ID            string
	EmployeeID    string
	FirstName     string
	LastName      string
	DateOfBirth   time.Time
	DateOfJoining time.Time
	Designation   string
	Department    string
	Zone          string
	Division      string
	PayLevel      string
	ContactNumber string
	Email         string
	Address       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Posting は社員の配属先です。
type Posting struct {
	Zone     string
	Division string
}

// Posting は現在の配属先を返します。
func (e *Employee) Posting() Posting {
	return Posting{Zone: e.Zone, Division: e.Division}
}

// Summary は一覧や異動一覧に埋め込む社員の要約です。保存はされません。
type Summary struct {
	ID         string
	EmployeeID string
	FirstName  string
	LastName   string
	Zone       string
	Division   string
}

// Summary は社員の要約を返します。
func (e *Employee) Summary() Summary {
	return Summary{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Zone:       e.Zone,
		Division:   e.Division,
	}
}
