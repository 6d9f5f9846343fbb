package transfer

import "strings"

// Status は異動申請の状態を表します。
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// ParseStatus は大文字小文字を区別せずに状態名を解釈します。
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range []Status{StatusPending, StatusApproved, StatusCompleted, StatusCancelled} {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// IsValid は定義済みの状態かを返します。
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal は以降の遷移が許されない状態かを返します。
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo は s から next への遷移が許可されているかを返します。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
