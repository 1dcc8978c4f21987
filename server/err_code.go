package server

import (
	"fmt"

	"github.com/lmxdawn/ethwallet/engine"
	"github.com/pkg/errors"
)

// nolint: golint
var (
	OK                  = &Errno{Code: 0, Message: "OK"}
	InternalServerError = &Errno{Code: 10001, Message: "Internal server error"}
	ErrEngine           = &Errno{Code: 10007, Message: "Engine Not"}
	ErrNoSession        = &Errno{Code: 10009, Message: "没有钱包，请先创建或导入"}
	ErrNoPremission     = &Errno{Code: 10016, Message: "权限不允许"}

	// 与 engine 的错误分类一一对应
	ErrInvalidRequest     = &Errno{Code: 20001, Message: "请求无效"}
	ErrInvalidKeyMaterial = &Errno{Code: 20002, Message: "私钥无效"}
	ErrNetwork            = &Errno{Code: 20003, Message: "节点网络错误"}
	ErrInsufficientFunds  = &Errno{Code: 20004, Message: "余额不足"}
	ErrTransactionFailure = &Errno{Code: 20005, Message: "交易失败"}
)

// Errno ...
type Errno struct {
	Code    int
	Message string
}

func (err Errno) Error() string {
	return err.Message
}

// Err represents an error
type Err struct {
	Code    int
	Message string
	Err     error
}

func (err *Err) Error() string {
	return fmt.Sprintf("Err - code: %d, message: %s, error: %s", err.Code, err.Message, err.Err)
}

// DecodeErr ...
func DecodeErr(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Err:
		return typed.Code, typed.Message
	case *Errno:
		return typed.Code, typed.Message
	default:
	}

	if errno := taxonomyErrno(err); errno != nil {
		return errno.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

func taxonomyErrno(err error) *Errno {
	var (
		invalidReq *engine.InvalidRequestError
		invalidKM  *engine.InvalidKeyMaterialError
		netErr     *engine.NetworkError
		funds      *engine.InsufficientFundsError
		failure    *engine.TransactionFailureError
	)
	switch {
	case errors.As(err, &invalidReq):
		return ErrInvalidRequest
	case errors.As(err, &invalidKM):
		return ErrInvalidKeyMaterial
	case errors.As(err, &netErr):
		return ErrNetwork
	case errors.As(err, &funds):
		return ErrInsufficientFunds
	case errors.As(err, &failure):
		return ErrTransactionFailure
	}
	return nil
}
