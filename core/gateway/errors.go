package gateway

import (
	"errors"
	"fmt"
)

// FailureKind 远程操作失败的分类
type FailureKind string

const (
	// TransportFailure 网络不可达、连接中断、读取响应失败
	TransportFailure FailureKind = "TRANSPORT"
	// ServerFailure 非 2xx 响应，或响应体不符合约定
	ServerFailure FailureKind = "SERVER"
	// ValidationFailure 客户端校验失败，请求没有发出
	ValidationFailure FailureKind = "VALIDATION"
)

// RemoteFailure 远程操作错误
type RemoteFailure struct {
	Kind      FailureKind
	Op        string
	Status    int // HTTP 状态码，仅 ServerFailure 有
	Message   string
	Cause     error
	RequestID string
}

// Error 实现 error 接口
func (e *RemoteFailure) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Status != 0 {
		prefix = fmt.Sprintf("%s (HTTP %d)", prefix, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap 实现错误链支持
func (e *RemoteFailure) Unwrap() error {
	return e.Cause
}

// NewTransportFailure 网络层错误
func NewTransportFailure(op, message string, cause error) *RemoteFailure {
	return &RemoteFailure{Kind: TransportFailure, Op: op, Message: message, Cause: cause}
}

// NewServerFailure 服务端错误或响应格式错误
func NewServerFailure(op string, status int, message string, cause error) *RemoteFailure {
	return &RemoteFailure{Kind: ServerFailure, Op: op, Status: status, Message: message, Cause: cause}
}

// NewValidationFailure 客户端校验错误
func NewValidationFailure(op, message string) *RemoteFailure {
	return &RemoteFailure{Kind: ValidationFailure, Op: op, Message: message}
}

// KindOf 取出错误分类，非 RemoteFailure 返回空
func KindOf(err error) FailureKind {
	var rf *RemoteFailure
	if errors.As(err, &rf) {
		return rf.Kind
	}
	return ""
}

// IsTransport 是否为网络层错误
func IsTransport(err error) bool { return KindOf(err) == TransportFailure }

// IsServer 是否为服务端错误
func IsServer(err error) bool { return KindOf(err) == ServerFailure }

// IsValidation 是否为客户端校验错误
func IsValidation(err error) bool { return KindOf(err) == ValidationFailure }

// UserMessage 给用户看的简短描述
func UserMessage(err error) string {
	var rf *RemoteFailure
	if errors.As(err, &rf) {
		switch rf.Kind {
		case TransportFailure:
			return "cannot reach the SyncWave backend: " + rf.Message
		default:
			return rf.Message
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
