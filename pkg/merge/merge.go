package merge

import (
	"context"
	"fmt"
)

// Options 导入合并策略
//
//	ReplaceExisting=true  已存在的记录被覆盖
//	MergeData=true        已存在的记录做字段级合并(列表字段取并集, 标量字段保留已有值)
//	两者均为 false         先清空目标集合, 再写入整批数据
type Options struct {
	ReplaceExisting bool `json:"replaceExisting"`
	MergeData       bool `json:"mergeData"`
}

func DefaultOptions() Options {
	return Options{MergeData: true}
}

// ClearsCollection reports whether the batch replaces the whole collection.
func (o Options) ClearsCollection() bool {
	return !o.MergeData && !o.ReplaceExisting
}

type Result struct {
	Inserted int
	Replaced int
	Merged   int
	Skipped  int
	Cleared  bool
}

func (r Result) Total() int {
	return r.Inserted + r.Replaced + r.Merged + r.Skipped
}

// Target 合并目标集合, 由具体实体的存储实现
type Target[T any] interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) (*T, error)
	Put(ctx context.Context, item T) error
	Clear(ctx context.Context) error
	Key(item T) string
}

// Merger 字段级合并, 返回 changed=false 时不写入
type Merger[T any] func(existing, incoming T) (merged T, changed bool)

// KeepExisting 标量实体的合并策略: 保留已有记录
func KeepExisting[T any](existing, _ T) (T, bool) {
	return existing, false
}

// Apply 按 Options 将 batch 合并进 target.
// 调用方负责事务边界.
func Apply[T any](ctx context.Context, target Target[T], batch []T, opts Options, merger Merger[T]) (Result, error) {
	var res Result
	if merger == nil {
		merger = KeepExisting[T]
	}

	if opts.ClearsCollection() {
		if err := target.Clear(ctx); err != nil {
			return res, fmt.Errorf("failed to clear collection: %w", err)
		}
		res.Cleared = true
	}

	for _, item := range batch {
		key := target.Key(item)
		existing, err := target.Get(ctx, key)
		if err != nil {
			return res, fmt.Errorf("failed to lookup %s: %w", key, err)
		}

		switch {
		case existing == nil:
			if err = target.Put(ctx, item); err != nil {
				return res, fmt.Errorf("failed to insert %s: %w", key, err)
			}
			res.Inserted++
		case opts.ReplaceExisting:
			if err = target.Put(ctx, item); err != nil {
				return res, fmt.Errorf("failed to replace %s: %w", key, err)
			}
			res.Replaced++
		case opts.MergeData:
			merged, changed := merger(*existing, item)
			if !changed {
				res.Skipped++
				continue
			}
			if err = target.Put(ctx, merged); err != nil {
				return res, fmt.Errorf("failed to merge %s: %w", key, err)
			}
			res.Merged++
		default:
			res.Skipped++
		}
	}
	return res, nil
}
