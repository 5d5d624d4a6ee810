package errors

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind 存储层统一的错误分类, 两种后端的错误都在边界处转换为这几类
type Kind uint8

const (
	KindInternal Kind = iota
	KindStorageUnavailable
	KindNotFound
	KindWriteFailed
	KindInvalidArgument
)

var namesForKind = map[Kind]string{
	KindInternal:           "Internal",
	KindStorageUnavailable: "StorageUnavailable",
	KindNotFound:           "NotFound",
	KindWriteFailed:        "WriteFailed",
	KindInvalidArgument:    "InvalidArgument",
}

func (k Kind) String() string {
	return namesForKind[k]
}

func (k Kind) httpCode() int {
	switch k {
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	code    int
	kind    Kind
	data    map[string]interface{}
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Data() map[string]interface{} {
	return e.data
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

// WithKind 设置错误分类, 同时把 http code 调整为对应的默认值
func (e *CustomizedError) WithKind(k Kind) *CustomizedError {
	e.kind = k
	e.code = k.httpCode()
	return e
}

func (e *CustomizedError) Kind() Kind {
	return e.kind
}

func New(trace, message string, err error) *CustomizedError {
	code := http.StatusInternalServerError
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    code,
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
		code:    http.StatusInternalServerError,
	}
	var income *CustomizedError
	if stderrors.As(err, &income) {
		ce.code = income.code
		ce.kind = income.kind
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

func (e *CustomizedError) Message() string {
	if e.message == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"kind":"%s","msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.code, e.kind, e.message, e.cause, otherDetails)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// KindOf 取错误链上第一个带分类的 CustomizedError, 没有则按底层错误推断
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var ce *CustomizedError
	if stderrors.As(err, &ce) && ce.kind != KindInternal {
		return ce.kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return KindNotFound
	case stderrors.Is(err, sql.ErrConnDone), isClosedStoreMessage(err.Error()):
		return KindStorageUnavailable
	}
	return KindInternal
}

var closedStoreMessages = []string{
	"database is closed",
	"redis: client is closed",
	"connection refused",
	"kv store is closed",
}

func isClosedStoreMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, v := range closedStoreMessages {
		if strings.Contains(msg, v) {
			return true
		}
	}
	return false
}

// IsStorageUnavailable 主存储不可用(已关闭/无法连接)的判定, 读路径据此回退到镜像存储
func IsStorageUnavailable(err error) bool {
	return err != nil && KindOf(err) == KindStorageUnavailable
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// Storage 将存储层错误包装为带分类的错误. write 为 true 时, 无法归类的错误视为写入失败.
func Storage(trace, message string, err error, write bool) *CustomizedError {
	kind := KindOf(err)
	if kind == KindInternal && write {
		kind = KindWriteFailed
	}
	return New(trace, message, err).WithKind(kind)
}
