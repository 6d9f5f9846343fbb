package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	// UpdatePosting は配属先だけを書き換えます。異動完了時にのみ使用します。
	UpdatePosting(ctx context.Context, id string, posting Posting, updatedAt time.Time) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	// LockByID はトランザクション終了まで社員行を排他ロックして取得します。
	LockByID(ctx context.Context, id string) (*Employee, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Employee, int, error)
	ListSummaries(ctx context.Context) ([]Summary, error)
}

// SearchFilter は検索条件です。Term が空なら全件が対象です。
type SearchFilter struct {
	Term   string
	Limit  int
	Offset int
}
