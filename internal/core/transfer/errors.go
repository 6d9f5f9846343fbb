package transfer

import "github.com/ogurasousui/personnel-ledger/internal/core/domainerr"

var (
	ErrInvalidID         = domainerr.NewField(domainerr.CodeValidation, "id", "transfer: invalid id")
	ErrInvalidStatus     = domainerr.NewField(domainerr.CodeValidation, "status", "transfer: invalid status")
	ErrInvalidTransition = domainerr.NewField(domainerr.CodeInvalidTransition, "status", "transfer: status transition not permitted")
	ErrStatusConflict    = domainerr.New(domainerr.CodeConflict, "transfer: status changed concurrently")
	ErrTransferNotFound  = domainerr.New(domainerr.CodeNotFound, "transfer: not found")
)
