package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/personnel-ledger/internal/core/directory"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
)

// TransferHandler は /api/transfers 配下を扱います。
type TransferHandler struct {
	transfers  transfer.UseCase
	directory  directory.UseCase
	relocation relocation.UseCase
	logger     *slog.Logger
}

// Register はルートを登録します。
func (h *TransferHandler) Register(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.updateStatus)
		r.Delete("/{id}", h.delete)
	})
}

func (h *TransferHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	orderDate, err := parseDate("transferOrderDate", req.TransferOrderDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	created, err := h.relocation.CreateTransfer(r.Context(), relocation.CreateTransferInput{
		EmployeeRef: req.EmployeeID,
		ToZone:      req.ToZone,
		ToDivision:  req.ToDivision,
		OrderDate:   orderDate,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransferResponse(created, nil))
}

func (h *TransferHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.directory.ListTransfers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]transferResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, newTransferResponse(e.Transfer, e.Employee))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TransferHandler) get(w http.ResponseWriter, r *http.Request) {
	found, err := h.transfers.GetTransfer(r.Context(), transfer.GetTransferInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransferResponse(found, nil))
}

func (h *TransferHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateTransferStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status, err := transfer.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.relocation.UpdateTransferStatus(r.Context(), relocation.UpdateTransferStatusInput{
		ID:     chi.URLParam(r, "id"),
		Status: status,
		Force:  req.Force,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransferResponse(updated, nil))
}

func (h *TransferHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.transfers.DeleteTransfer(r.Context(), transfer.DeleteTransferInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Transfer record deleted successfully."})
}
