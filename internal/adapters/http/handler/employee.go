package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/personnel-ledger/internal/core/directory"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
)

// EmployeeHandler は /api/employees 配下を扱います。
type EmployeeHandler struct {
	employees  employee.UseCase
	directory  directory.UseCase
	relocation relocation.UseCase
	logger     *slog.Logger
}

// Register はルートを登録します。
func (h *EmployeeHandler) Register(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.search)
		r.Get("/list", h.listSummaries)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *EmployeeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in, err := req.toCreateInput()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	created, err := h.employees.CreateEmployee(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "employee created", "employee_id", created.ID, "code", created.EmployeeID)
	writeJSON(w, http.StatusCreated, newEmployeeResponse(created))
}

func (h *EmployeeHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := parseQueryInt(q.Get("page"), directory.ErrInvalidPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit, err := parseQueryInt(q.Get("limit"), directory.ErrInvalidLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.directory.SearchEmployees(r.Context(), directory.SearchEmployeesInput{
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := employeePageResponse{
		Employees:    make([]employeeResponse, 0, len(result.Employees)),
		TotalPages:   result.TotalPages,
		CurrentPage:  result.CurrentPage,
		TotalRecords: result.TotalRecords,
	}
	for _, e := range result.Employees {
		resp.Employees = append(resp.Employees, newEmployeeResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EmployeeHandler) listSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.directory.ListEmployeeSummaries(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, newSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EmployeeHandler) get(w http.ResponseWriter, r *http.Request) {
	found, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newEmployeeResponse(found))
}

func (h *EmployeeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in, err := req.toUpdateInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.employees.UpdateEmployee(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newEmployeeResponse(updated))
}

func (h *EmployeeHandler) delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.relocation.DeleteEmployee(r.Context(), relocation.DeleteEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	removed := result.RemovedTransfers
	writeJSON(w, http.StatusOK, messageResponse{
		Message:          "Employee and associated transfers deleted successfully.",
		RemovedTransfers: &removed,
	})
}

// parseQueryInt は空文字を 0 として扱います。数値でなければ invalid を返します。
func parseQueryInt(raw string, invalid error) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid
	}
	return n, nil
}
