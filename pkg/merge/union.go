package merge

// UnionBy 将 incoming 中 key 尚未出现过的元素追加到 existing 之后, 保持原有顺序.
// incoming 内部的重复元素同样只保留第一个.
func UnionBy[E any, K comparable](existing, incoming []E, key func(E) K) ([]E, int) {
	seen := make(map[K]struct{}, len(existing)+len(incoming))
	res := make([]E, 0, len(existing)+len(incoming))
	for _, e := range existing {
		seen[key(e)] = struct{}{}
		res = append(res, e)
	}

	added := 0
	for _, e := range incoming {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, e)
		added++
	}
	return res, added
}

// UnionMerger 列表型实体的合并策略: 取 get 返回的列表并集, 有新增元素时才写入
func UnionMerger[T any, E any, K comparable](get func(T) []E, set func(T, []E) T, key func(E) K) Merger[T] {
	return func(existing, incoming T) (T, bool) {
		merged, added := UnionBy(get(existing), get(incoming), key)
		if added == 0 {
			return existing, false
		}
		return set(existing, merged), true
	}
}
