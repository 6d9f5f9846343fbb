package transfer

import (
	"context"
	"fmt"
	"strings"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は異動申請単体に閉じたユースケースをまとめます。
// 作成と状態変更は社員を読み書きするため relocation.Coordinator が担います。
type Service struct {
	repo Repository
	tx   TransactionManager
}

// UseCase は異動申請ユースケースの公開インターフェースです。
type UseCase interface {
	GetTransfer(ctx context.Context, in GetTransferInput) (*Transfer, error)
	DeleteTransfer(ctx context.Context, in DeleteTransferInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, tx: tx}
}

// GetTransferInput は異動取得時の入力です。
type GetTransferInput struct {
	ID string
}

// DeleteTransferInput は異動削除時の入力です。
type DeleteTransferInput struct {
	ID string
}

// GetTransfer は異動申請を取得します。
func (s *Service) GetTransfer(ctx context.Context, in GetTransferInput) (*Transfer, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Transfer
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTransfer は異動申請を削除します。社員には影響しません。
func (s *Service) DeleteTransfer(ctx context.Context, in DeleteTransferInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
