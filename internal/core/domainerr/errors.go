// Package domainerr はコアパッケージ間で共有するエラー分類を定義します。
package domainerr

import "errors"

// Code はエラーの種別です。トランスポート層はこの値だけを見てレスポンスを決めます。
type Code string

const (
	CodeValidation         Code = "validation"
	CodeDuplicateKey       Code = "duplicate_key"
	CodeNotFound           Code = "not_found"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeConflict           Code = "conflict"
	CodeConsistencyFailure Code = "consistency_failure"
	CodeInternal           Code = "internal"
)

// Error は種別と対象フィールドを伴うドメインエラーです。
type Error struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は種別とメッセージからエラーを生成します。
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewField は特定フィールドに起因するエラーを生成します。
func NewField(code Code, field, message string) *Error {
	return &Error{Code: code, Field: field, Message: message}
}

// Wrap は下位のエラーを保持したまま種別を付与します。
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode は err の連鎖に code を持つドメインエラーが含まれるかを返します。
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf は最も外側のドメインエラーの種別を返します。ドメインエラーでなければ CodeInternal です。
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldOf はエラーの原因となったフィールド名を返します。
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
