package v1

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
)

// storeError 将存储层错误转换为带分类的业务错误
func storeError(trace string, err error, write bool) error {
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

func notFoundError(trace string) error {
	return errors.New(trace, i18n.ERROR_NOT_FOUND, nil).WithKind(errors.KindNotFound)
}

func invalidArgument(trace string, err error) error {
	return errors.New(trace, i18n.ERROR_INVALIDARGUMENT, err).WithKind(errors.KindInvalidArgument)
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

// getOrNil 记录不存在时返回 nil, nil
func getOrNil[T any](trace string, v *T, err error) (*T, error) {
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeError(trace, err, false)
	}
	return v, nil
}

// mirrorDo 同步到镜像存储, 未启用镜像时不做任何事
func mirrorDo(ctx context.Context, c *core.Core, op string, fn func(m store.Mirror) error) error {
	m := c.Mirror()
	if m == nil {
		return nil
	}
	if err := fn(m); err != nil {
		slog.Warn("failed to sync mirror store", slog.String("operation", op), slog.String("error", err.Error()))
		return errors.Wrap(err, op, i18n.ERROR_MIRROR_FAILED)
	}
	return nil
}

// fallbackList 主存储不可用时改从镜像读取
func fallbackList[T any](c *core.Core, trace string, primary []*T, err error, read func(m store.Mirror) ([]*T, error)) ([]*T, error) {
	if err == nil {
		return primary, nil
	}
	m := c.Mirror()
	if !errors.IsStorageUnavailable(err) || m == nil {
		return nil, storeError(trace, err, false)
	}
	slog.Warn("primary store unavailable, reading from mirror", slog.String("trace", trace), slog.String("error", err.Error()))
	res, merr := read(m)
	if merr != nil {
		return nil, storeError(trace+".Mirror", merr, false)
	}
	return res, nil
}

// transaction 事务内返回的业务错误原样透出, 其余错误(如开启/提交事务失败)按写入失败处理
func transaction(ctx context.Context, c *core.Core, trace string, fn func(ctx context.Context) error) error {
	err := c.Store().Transaction(ctx, fn)
	if err == nil {
		return nil
	}
	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		return err
	}
	return storeError(trace, err, true)
}
