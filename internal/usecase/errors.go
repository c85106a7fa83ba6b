package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "ebake/internal/repository"
)

// クライアントが見分けるためのエラー種別（固定文字列）
type ErrorKind string

const (
	KindForbiddenRole             ErrorKind = "FORBIDDEN_ROLE"
	KindInvalidDeliveryDate       ErrorKind = "INVALID_DELIVERY_DATE"
	KindCakeNotFound              ErrorKind = "CAKE_NOT_FOUND"
	KindCakeUnavailable           ErrorKind = "CAKE_UNAVAILABLE"
	KindWeightOptionUnavailable   ErrorKind = "WEIGHT_OPTION_UNAVAILABLE"
	KindPersistence               ErrorKind = "PERSISTENCE_ERROR"
	KindInvalidStatus             ErrorKind = "INVALID_STATUS"
	KindMissingCancellationReason ErrorKind = "MISSING_CANCELLATION_REASON"
	KindOrderNotFound             ErrorKind = "ORDER_NOT_FOUND"
	KindImageRequired             ErrorKind = "IMAGE_REQUIRED"
	KindFlavorRequired            ErrorKind = "FLAVOR_REQUIRED"
	KindValidationFailed          ErrorKind = "VALIDATION_FAILED"
	KindNotFound                  ErrorKind = "NOT_FOUND"
	KindForbidden                 ErrorKind = "FORBIDDEN"
	KindStoreUnavailable          ErrorKind = "STORE_UNAVAILABLE"
	KindTimeout                   ErrorKind = "TIMEOUT"
	KindUnauthorized              ErrorKind = "UNAUTHORIZED"
	KindInternal                  ErrorKind = "INTERNAL"
)

// 項目ごとの入力エラー
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Details []FieldError
	// ログ用。レスポンスには開発モードでのみ出す。
	Cause error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// ステータスから種別を決める簡易版
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kindForStatus(status),
		Message: message,
	}
}

func newKindError(status int, kind ErrorKind, message string) *HTTPError {
	return &HTTPError{Status: status, Kind: kind, Message: message}
}

func newValidationError(message string, details []FieldError) *HTTPError {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Kind:    KindValidationFailed,
		Message: message,
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidationFailed
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusServiceUnavailable:
		return KindStoreUnavailable
	case http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindInternal
	}
}

// repositoryのエラーを503/504/500に寄せる
func storeError(err error, message string) error {
	switch {
	case errors.Is(err, repo.ErrStoreTimeout):
		return &HTTPError{Status: http.StatusGatewayTimeout, Kind: KindTimeout, Message: "request timed out, please try again", Cause: err}
	case errors.Is(err, repo.ErrStoreUnavailable):
		return &HTTPError{Status: http.StatusServiceUnavailable, Kind: KindStoreUnavailable, Message: "service temporarily unavailable, please try again", Cause: err}
	default:
		return &HTTPError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: message, Cause: err}
	}
}
