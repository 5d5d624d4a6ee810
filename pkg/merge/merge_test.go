package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source struct {
	ID      string
	Content string
}

type record struct {
	ID      string
	Title   string
	Sources []source
}

type memoryTarget struct {
	order []string
	data  map[string]record
}

func newMemoryTarget(items ...record) *memoryTarget {
	t := &memoryTarget{data: make(map[string]record)}
	for _, v := range items {
		t.Put(context.Background(), v)
	}
	return t
}

func (m *memoryTarget) Get(_ context.Context, key string) (*record, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memoryTarget) Put(_ context.Context, item record) error {
	if _, ok := m.data[item.ID]; !ok {
		m.order = append(m.order, item.ID)
	}
	m.data[item.ID] = item
	return nil
}

func (m *memoryTarget) Clear(_ context.Context) error {
	m.order = nil
	m.data = make(map[string]record)
	return nil
}

func (m *memoryTarget) Key(item record) string {
	return item.ID
}

var sourceUnion = UnionMerger(
	func(r record) []source { return r.Sources },
	func(r record, s []source) record { r.Sources = s; return r },
	func(s source) string { return s.ID },
)

func TestApplyPolicies(t *testing.T) {
	ctx := context.Background()
	existing := record{ID: "k1", Title: "old", Sources: []source{{ID: "A"}, {ID: "B"}}}
	incoming := record{ID: "k1", Title: "new", Sources: []source{{ID: "B"}, {ID: "C"}}}

	tests := []struct {
		name    string
		opts    Options
		merger  Merger[record]
		title   string
		sources []string
		expect  Result
	}{
		{
			name:    "union merge",
			opts:    DefaultOptions(),
			merger:  sourceUnion,
			title:   "old",
			sources: []string{"A", "B", "C"},
			expect:  Result{Merged: 1},
		},
		{
			name:    "replace existing",
			opts:    Options{ReplaceExisting: true, MergeData: true},
			merger:  sourceUnion,
			title:   "new",
			sources: []string{"B", "C"},
			expect:  Result{Replaced: 1},
		},
		{
			name:    "existing wins",
			opts:    DefaultOptions(),
			merger:  KeepExisting[record],
			title:   "old",
			sources: []string{"A", "B"},
			expect:  Result{Skipped: 1},
		},
		{
			name:    "clear collection",
			opts:    Options{},
			merger:  sourceUnion,
			title:   "new",
			sources: []string{"B", "C"},
			expect:  Result{Inserted: 1, Cleared: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := newMemoryTarget(existing, record{ID: "other"})
			res, err := Apply(ctx, target, []record{incoming}, tt.opts, tt.merger)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, res)

			got, _ := target.Get(ctx, "k1")
			require.NotNil(t, got)
			assert.Equal(t, tt.title, got.Title)

			var ids []string
			for _, s := range got.Sources {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.sources, ids)

			_, otherKept := target.data["other"]
			assert.Equal(t, !tt.opts.ClearsCollection(), otherKept)
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	ctx := context.Background()
	target := newMemoryTarget()
	batch := []record{
		{ID: "k1", Sources: []source{{ID: "A"}, {ID: "B"}}},
		{ID: "k2", Sources: []source{{ID: "C"}}},
	}

	first, err := Apply(ctx, target, batch, DefaultOptions(), sourceUnion)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	snapshot := map[string]record{}
	for k, v := range target.data {
		snapshot[k] = v
	}

	second, err := Apply(ctx, target, batch, DefaultOptions(), sourceUnion)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, snapshot, target.data)
}

func TestUnionBy(t *testing.T) {
	key := func(s source) string { return s.ID + "|" + s.Content }

	res, added := UnionBy(
		[]source{{ID: "f1", Content: "a"}, {ID: "f1", Content: "b"}},
		[]source{{ID: "f1", Content: "a"}, {ID: "f2", Content: "a"}, {ID: "f2", Content: "a"}},
		key,
	)
	assert.Equal(t, 1, added)
	assert.Equal(t, []source{{ID: "f1", Content: "a"}, {ID: "f1", Content: "b"}, {ID: "f2", Content: "a"}}, res)

	res, added = UnionBy(nil, []source{{ID: "x"}}, key)
	assert.Equal(t, 1, added)
	assert.Len(t, res, 1)
}
