// Package apperr はサービス層が返すエラー種別と、HTTP 境界でのステータス変換を提供します。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類です。
type Kind string

const (
	// KindValidation は入力値が不正な場合です。
	KindValidation Kind = "validation"
	// KindConflict は既存データと衝突した場合です。
	KindConflict Kind = "conflict"
	// KindAuth は認証に失敗した場合です。
	KindAuth Kind = "auth"
	// KindForbidden は認証済みだが権限がない場合です。
	KindForbidden Kind = "forbidden"
	// KindNotFound は対象が存在しない場合です。
	KindNotFound Kind = "not_found"
	// KindPersistence はストア層の失敗です。
	KindPersistence Kind = "persistence"
)

// クライアントに返すエラーコードです。
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error は分類付きのアプリケーションエラーです。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// Error はメッセージと原因をつないだ文字列を返します。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap は原因のエラーを返します。
func (e *Error) Unwrap() error {
	return e.Err
}

// New は Error を作成します。
func New(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

// Validation は入力エラー（INVALID_INPUT）を作成します。
func Validation(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message, nil)
}

// Conflict は重複エラー（USER_EXISTS）を作成します。
func Conflict(message string) *Error {
	return New(KindConflict, CodeUserExists, message, nil)
}

// Auth は指定コードの認証エラーを作成します。
func Auth(code, message string) *Error {
	return New(KindAuth, code, message, nil)
}

// Forbidden は権限エラー（FORBIDDEN）を作成します。
func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message, nil)
}

// NotFound は指定コードの未検出エラーを作成します。
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message, nil)
}

// Persistence はストア層の失敗を包みます。メッセージはクライアントへそのまま返しません。
func Persistence(op string, cause error) *Error {
	return New(KindPersistence, CodeInternal, op, cause)
}

// KindOf は err に含まれる Error の種別を返します。分類されていない場合は空文字です。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// CodeOf は err に含まれる Error のコードを返します。
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
