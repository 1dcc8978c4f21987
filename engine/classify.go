package engine

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
)

// InvalidRequestError 本地校验失败（地址、金额、会话状态）
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// InvalidKeyMaterialError 存储的私钥无法还原
// Reason 永远不包含密钥内容
type InvalidKeyMaterialError struct {
	Reason string
	cause  error
}

func (e *InvalidKeyMaterialError) Error() string {
	return "invalid key material: " + e.Reason
}

func (e *InvalidKeyMaterialError) Unwrap() error {
	return e.cause
}

// NetworkError 节点传输层或 RPC 层失败
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	if e.Cause == nil {
		return "network error: " + e.Op
	}
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// InsufficientFundsError 余额不足以支付 value + gas*gasPrice
type InsufficientFundsError struct {
	RequiredWei *big.Int
	Message     string
}

func (e *InsufficientFundsError) Error() string {
	if e.RequiredWei == nil {
		return "insufficient funds"
	}
	return "insufficient funds: required " + e.RequiredWei.String() + " wei"
}

// TransactionFailureError 其余所有失败，保留原始诊断信息
type TransactionFailureError struct {
	Message string
}

func (e *TransactionFailureError) Error() string {
	return "transaction failed: " + e.Message
}

func invalidRequest(format string, args ...interface{}) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

func invalidKey(reason string, cause error) error {
	return &InvalidKeyMaterialError{Reason: reason, cause: cause}
}

func networkError(op string, cause error) error {
	return &NetworkError{Op: op, Cause: cause}
}

var (
	// geth: "insufficient funds for gas * price + value: address 0x.. have 0 want 1000"
	wantPattern         = regexp.MustCompile(`\bwant (\d+)\b`)
	insufficientPattern = regexp.MustCompile(`(?i)insufficient funds`)
)

// Classify 把任意错误归入固定的五类之一
// req 可以为空，不为空时在节点信息里缺少金额时用来计算所需金额
func Classify(err error, req *types.TransactionRequest) error {
	if err == nil {
		return nil
	}

	var (
		invalidReq *InvalidRequestError
		invalidKM  *InvalidKeyMaterialError
		netErr     *NetworkError
		funds      *InsufficientFundsError
		failure    *TransactionFailureError
	)
	switch {
	case errors.As(err, &invalidReq):
		return invalidReq
	case errors.As(err, &invalidKM):
		return invalidKM
	case errors.As(err, &funds):
		return funds
	case errors.As(err, &failure):
		return failure
	case errors.As(err, &netErr):
		return netErr
	}

	if required, ok := insufficientFunds(err, req); ok {
		return &InsufficientFundsError{RequiredWei: required, Message: err.Error()}
	}
	if isTransportError(err) {
		return networkError("rpc", err)
	}
	return &TransactionFailureError{Message: err.Error()}
}

// insufficientFunds 先读结构化字段，再解析文本，最后用本地请求计算
func insufficientFunds(err error, req *types.TransactionRequest) (*big.Int, bool) {
	if !insufficientPattern.MatchString(err.Error()) {
		return nil, false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if required, ok := requiredFromData(dataErr.ErrorData()); ok {
			return required, true
		}
	}
	if m := wantPattern.FindStringSubmatch(err.Error()); m != nil {
		if required, ok := new(big.Int).SetString(m[1], 10); ok {
			return required, true
		}
	}
	if req != nil {
		return req.MaxCost(), true
	}
	return nil, false
}

func requiredFromData(data interface{}) (*big.Int, bool) {
	fields, ok := data.(map[string]interface{})
	if !ok {
		return nil, false
	}
	for _, key := range []string{"required", "want"} {
		switch v := fields[key].(type) {
		case string:
			if n, ok := parseBigInt(v); ok {
				return n, true
			}
		case float64:
			if v >= 0 && v == float64(uint64(v)) {
				return new(big.Int).SetUint64(uint64(v)), true
			}
		}
	}
	return nil, false
}

func parseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var httpErr rpc.HTTPError
	return errors.As(err, &httpErr)
}
