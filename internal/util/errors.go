package util

import (
	"errors"
	"fmt"
)

// 错误分类，控制器据此映射 HTTP 状态码
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

// AppError 对外展示 Msg，同时通过 Unwrap 保留分类和底层错误
type AppError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *AppError) Error() string { return e.Msg }

func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewError(kind error, msg string) error {
	return &AppError{Kind: kind, Msg: msg}
}

func Errorf(kind error, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 消息为 "msg: err"，errors.As 仍可取到 err
func Wrap(kind, err error, msg string) error {
	return &AppError{Kind: kind, Msg: msg + ": " + err.Error(), Err: err}
}

var (
	ErrUserNotFound            = NewError(ErrNotFound, "user not found")
	ErrCourseNotFound          = NewError(ErrNotFound, "course not found")
	ErrEnrollmentNotFound      = NewError(ErrNotFound, "enrollment not found")
	ErrCertificateNotFound     = NewError(ErrNotFound, "certificate not found")
	ErrNFTNotFound             = NewError(ErrNotFound, "NFT not found")
	ErrEmailRequired           = NewError(ErrValidation, "email is required")
	ErrPasswordRequired        = NewError(ErrValidation, "password is required")
	ErrInvalidAddress          = NewError(ErrValidation, "invalid address")
	ErrInvalidCredentials      = NewError(ErrValidation, "invalid email or password")
	ErrPaymentRequired         = NewError(ErrValidation, "payment is required for this course: transactionHash and amount must be provided")
	ErrPaymentInvalid          = NewError(ErrValidation, "payment verification failed")
	ErrPaymentInsufficient     = NewError(ErrValidation, "insufficient payment")
	ErrAlreadyEnrolled         = NewError(ErrConflict, "already enrolled")
	ErrEmailAlreadyRegistered  = NewError(ErrConflict, "email already registered")
	ErrWalletAlreadyAssociated = NewError(ErrConflict, "wallet address already associated with another user")
	ErrNoWallet                = NewError(ErrValidation, "user has no wallet address")
	ErrChainUnavailable        = NewError(ErrUnavailable, "blockchain connection not available")
	ErrPinningNotConfigured    = NewError(ErrUnavailable, "metadata pinning credentials are not configured")
)
