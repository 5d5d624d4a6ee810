package legacy

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
)

// KV 旧版扁平存储: 一个命名空间下的 key -> json 值
type KV interface {
	// Get 返回存在的 key, 不存在的 key 不出现在结果中
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	Set(ctx context.Context, items map[string]json.RawMessage) error
	Remove(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Close() error
}

var ErrKVClosed = stderrors.New("kv store is closed")

// wrapError 在存储边界把后端错误转换为统一的错误分类
func wrapError(trace string, err error, write bool) error {
	if err == nil {
		return nil
	}
	message := i18n.ERROR_INTERNAL
	switch kind := errors.KindOf(err); {
	case kind == errors.KindStorageUnavailable:
		message = i18n.ERROR_STORAGE_UNAVAILABLE
	case kind == errors.KindNotFound:
		message = i18n.ERROR_NOT_FOUND
	case write:
		message = i18n.ERROR_WRITE_FAILED
	}
	return errors.Storage(trace, message, err, write)
}
