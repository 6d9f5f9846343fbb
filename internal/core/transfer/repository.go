package transfer

import (
	"context"
	"time"
)

// Repository は異動申請の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, transfer *Transfer) (*Transfer, error)
	FindByID(ctx context.Context, id string) (*Transfer, error)
	// LockByID はトランザクション終了まで異動行を排他ロックして取得します。
	LockByID(ctx context.Context, id string) (*Transfer, error)
	// UpdateStatus は現在の状態が from の場合に限り状態を to に更新します。
	// 一致しない場合は ErrStatusConflict を返します。
	UpdateStatus(ctx context.Context, id string, from, to Status, updatedAt time.Time) (*Transfer, error)
	Delete(ctx context.Context, id string) error
	// DeleteByEmployee は社員を参照する異動をすべて削除し、削除件数を返します。
	DeleteByEmployee(ctx context.Context, employeeRef string) (int, error)
	// ListWithEmployee は作成日時の降順で異動を返し、参照先社員の現在の要約を結合します。
	ListWithEmployee(ctx context.Context) ([]*Entry, error)
}
