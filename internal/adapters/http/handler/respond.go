package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogurasousui/personnel-ledger/internal/core/domainerr"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = domainerr.New(domainerr.CodeValidation, "invalid request body")

func statusFor(code domainerr.Code) int {
	switch code {
	case domainerr.CodeValidation, domainerr.CodeInvalidTransition:
		return http.StatusBadRequest
	case domainerr.CodeNotFound:
		return http.StatusNotFound
	case domainerr.CodeDuplicateKey, domainerr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidBody
		}
		return domainerr.Wrap(err, domainerr.CodeValidation, errInvalidBody.Message)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError はドメインエラーの種別から HTTP ステータスを決めて書き出します。
// 500 系の詳細はログにのみ残します。
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domainerr.CodeOf(err)
	status := statusFor(code)

	resp := errorResponse{Code: code, Message: err.Error(), Field: domainerr.FieldOf(err)}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		resp.Message = "internal server error"
		resp.Field = ""
	}

	writeJSON(w, status, resp)
}
