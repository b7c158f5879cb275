package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 失敗の種類。handler で HTTP ステータスに変換する
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "InvalidInput"
	KindUnauthorized ErrorKind = "Unauthorized"
	KindNotFound     ErrorKind = "NotFound"
	KindInvalidState ErrorKind = "InvalidState"
	KindStoreFailure ErrorKind = "StoreFailure"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// errors.Is(err, ErrNotFound) は Kind だけで比較する
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *AppError) Status() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrInvalidInput = &AppError{Kind: KindInvalidInput}
	ErrUnauthorized = &AppError{Kind: KindUnauthorized}
	ErrNotFound     = &AppError{Kind: KindNotFound}
	ErrInvalidState = &AppError{Kind: KindInvalidState}
	ErrStoreFailure = &AppError{Kind: KindStoreFailure}
)

func NewAppError(kind ErrorKind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

// ストア由来のエラーは中身を残してラップする
func storeFailure(err error) error {
	return &AppError{Kind: KindStoreFailure, Message: "db error", Err: err}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}
