package handler

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/personnel-ledger/internal/core/directory"
	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

var errNilRequest = status.Error(codes.InvalidArgument, "request is required")

// PersonnelGrpcHandler は PersonnelService の gRPC 実装です。
type PersonnelGrpcHandler struct {
	employees  employee.UseCase
	transfers  transfer.UseCase
	directory  directory.UseCase
	relocation relocation.UseCase
	logger     *slog.Logger
}

var _ PersonnelServiceServer = (*PersonnelGrpcHandler)(nil)

// NewPersonnelGrpcHandler は PersonnelGrpcHandler を生成します。
func NewPersonnelGrpcHandler(
	employees employee.UseCase,
	transfers transfer.UseCase,
	dir directory.UseCase,
	reloc relocation.UseCase,
	logger *slog.Logger,
) *PersonnelGrpcHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PersonnelGrpcHandler{
		employees:  employees,
		transfers:  transfers,
		directory:  dir,
		relocation: reloc,
		logger:     logger,
	}
}

// CreateEmployee は社員を作成します。
func (h *PersonnelGrpcHandler) CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	fields, err := readEmployeeFields(req)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	created, err := h.employees.CreateEmployee(ctx, fields.toCreateInput())
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"employee": employeeValue(created)})
}

// GetEmployee は社員を取得します。
func (h *PersonnelGrpcHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	found, err := h.employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: id})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"employee": employeeValue(found)})
}

// UpdateEmployee は指定されたフィールドのみ社員情報を更新します。
func (h *PersonnelGrpcHandler) UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	fields, err := readEmployeeFields(req)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	updated, err := h.employees.UpdateEmployee(ctx, fields.toUpdateInput(id))
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"employee": employeeValue(updated)})
}

// DeleteEmployee は社員と紐づく異動記録を削除します。
func (h *PersonnelGrpcHandler) DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	result, err := h.relocation.DeleteEmployee(ctx, relocation.DeleteEmployeeInput{ID: id})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{
		"message":           "Employee and associated transfers deleted successfully.",
		"removed_transfers": result.RemovedTransfers,
	})
}

// SearchEmployees は社員を検索し、ページ単位で返します。
func (h *PersonnelGrpcHandler) SearchEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	search, err := stringField(req, "search")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	page, err := intField(req, "page", directory.ErrInvalidPage)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	limit, err := intField(req, "limit", directory.ErrInvalidLimit)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	result, err := h.directory.SearchEmployees(ctx, directory.SearchEmployeesInput{
		Search: search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	employees := make([]any, 0, len(result.Employees))
	for _, e := range result.Employees {
		employees = append(employees, employeeValue(e))
	}
	return h.respond(ctx, map[string]any{
		"employees":     employees,
		"total_pages":   result.TotalPages,
		"current_page":  result.CurrentPage,
		"total_records": result.TotalRecords,
	})
}

// ListEmployeeSummaries は選択肢向けの社員一覧を返します。
func (h *PersonnelGrpcHandler) ListEmployeeSummaries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	summaries, err := h.directory.ListEmployeeSummaries(ctx)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	items := make([]any, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, summaryValue(s))
	}
	return h.respond(ctx, map[string]any{"employees": items})
}

// CreateTransfer は社員の現在の配属を控えて異動申請を作成します。
func (h *PersonnelGrpcHandler) CreateTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	var in relocation.CreateTransferInput
	var err error
	if in.EmployeeRef, err = stringField(req, "employee_id"); err != nil {
		return nil, h.statusError(ctx, err)
	}
	if in.ToZone, err = stringField(req, "to_zone"); err != nil {
		return nil, h.statusError(ctx, err)
	}
	if in.ToDivision, err = stringField(req, "to_division"); err != nil {
		return nil, h.statusError(ctx, err)
	}
	if in.OrderDate, err = dateField(req, "transfer_order_date"); err != nil {
		return nil, h.statusError(ctx, err)
	}

	created, err := h.relocation.CreateTransfer(ctx, in)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"transfer": transferValue(created, nil)})
}

// GetTransfer は異動申請を取得します。
func (h *PersonnelGrpcHandler) GetTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	found, err := h.transfers.GetTransfer(ctx, transfer.GetTransferInput{ID: id})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"transfer": transferValue(found, nil)})
}

// ListTransfers は異動申請を社員の現在情報と合わせて返します。
func (h *PersonnelGrpcHandler) ListTransfers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	entries, err := h.directory.ListTransfers(ctx)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	items := make([]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, transferValue(e.Transfer, e.Employee))
	}
	return h.respond(ctx, map[string]any{"transfers": items})
}

// UpdateTransferStatus は異動申請の状態を変更します。
func (h *PersonnelGrpcHandler) UpdateTransferStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	rawStatus, err := stringField(req, "status")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	force, err := boolField(req, "force")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	next, err := transfer.ParseStatus(rawStatus)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	updated, err := h.relocation.UpdateTransferStatus(ctx, relocation.UpdateTransferStatusInput{
		ID:     id,
		Status: next,
		Force:  force,
	})
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"transfer": transferValue(updated, nil)})
}

// DeleteTransfer は異動申請を削除します。社員の配属は変更しません。
func (h *PersonnelGrpcHandler) DeleteTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, errNilRequest
	}

	id, err := stringField(req, "id")
	if err != nil {
		return nil, h.statusError(ctx, err)
	}

	if err := h.transfers.DeleteTransfer(ctx, transfer.DeleteTransferInput{ID: id}); err != nil {
		return nil, h.statusError(ctx, err)
	}
	return h.respond(ctx, map[string]any{"message": "Transfer record deleted successfully."})
}

func (h *PersonnelGrpcHandler) respond(ctx context.Context, body map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(body)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return out, nil
}

func (h *PersonnelGrpcHandler) statusError(ctx context.Context, err error) error {
	if codeFor(domainerr.CodeOf(err)) == codes.Internal {
		h.logger.ErrorContext(ctx, "grpc request failed", "error", err)
	}
	return toStatusError(err)
}
