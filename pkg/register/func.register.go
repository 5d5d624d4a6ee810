package register

import (
	"reflect"
	"sync"
)

// slot 同一个 key 下按参数类型区分, 避免不同类型的处理函数互相干扰
type slot struct {
	key any
	typ reflect.Type
}

var (
	mu       sync.RWMutex
	handlers = map[slot][]any{}
)

type Handler[T any] func(T)

func slotOf[T any](key any) slot {
	return slot{key: key, typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// RegisterFunc 通常在 init 中调用, 解析时按注册顺序返回
func RegisterFunc[T any](key any, handler Handler[T]) {
	s := slotOf[T](key)
	mu.Lock()
	handlers[s] = append(handlers[s], handler)
	mu.Unlock()
}

func ResolveFuncHandlers[T any](key any) []Handler[T] {
	mu.RLock()
	list := handlers[slotOf[T](key)]
	mu.RUnlock()

	result := make([]Handler[T], 0, len(list))
	for _, v := range list {
		result = append(result, v.(Handler[T]))
	}
	return result
}
