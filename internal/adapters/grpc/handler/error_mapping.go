package handler

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
)

func codeFor(code domainerr.Code) codes.Code {
	switch code {
	case domainerr.CodeValidation:
		return codes.InvalidArgument
	case domainerr.CodeDuplicateKey:
		return codes.AlreadyExists
	case domainerr.CodeNotFound:
		return codes.NotFound
	case domainerr.CodeInvalidTransition:
		return codes.FailedPrecondition
	case domainerr.CodeConflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// toStatusError はドメインエラーを gRPC ステータスに変換します。
// Internal の場合は内部の詳細を返しません。
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	c := codeFor(domainerr.CodeOf(err))
	if c == codes.Internal {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(c, err.Error())
}
