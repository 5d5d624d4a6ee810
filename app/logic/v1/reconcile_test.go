package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/pkg/types"
)

func TestReconcileRemovesOrphans(t *testing.T) {
	c := NewCore(t)
	s := c.Store()
	chat := v1.NewChatLogic(ctx, c)
	history, _ := seedHistory(t, chat, "kept", "q1", "a1")
	kb := newKnowledge(t, v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_KNOWLEDGE), "kb")
	vectors := v1.NewVectorLogic(ctx, c)
	require.NoError(t, vectors.Insert(kb.ID, []types.VectorFragment{{FileID: "s1", Content: "kept"}}))

	// 父记录不存在的数据直接写入存储层
	require.NoError(t, s.MessageStore().Put(ctx, types.Message{ID: "orphan-m", HistoryID: "gone", Role: types.MESSAGE_ROLE_USER}))
	require.NoError(t, s.SessionFilesStore().Put(ctx, types.SessionFiles{SessionID: "gone", Files: types.UploadedFiles{{ID: "f1"}}}))
	require.NoError(t, s.VectorStore().Append(ctx, types.VectorIDFor("gone"), []types.VectorFragment{
		{FileID: "f1", Content: "a"},
		{FileID: "f1", Content: "b"},
	}))
	require.NoError(t, s.CustomModelStore().Put(ctx, types.Model{ID: "m_1", ModelID: "llama3", ProviderID: "gone", Lookup: "llama3_gone"}))
	require.NoError(t, s.ModelStateStore().Put(ctx, types.ModelState{ID: "llama3", ModelID: "llama3"}))

	res, err := v1.NewReconcileLogic(ctx, c).Run()
	require.NoError(t, err)
	assert.Equal(t, types.ReconcileResult{
		OrphanMessages:     1,
		OrphanSessionFiles: 1,
		OrphanVectors:      2,
		OrphanModels:       1,
	}, *res)

	messages, err := chat.GetMessages(history.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	data, err := vectors.Get(kb.ID)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Len(t, data.Vectors, 1)

	states, err := v1.NewModelLogic(ctx, c).ModelStates()
	require.NoError(t, err)
	assert.Empty(t, states)

	// 再次执行没有可清理的数据
	res, err = v1.NewReconcileLogic(ctx, c).Run()
	require.NoError(t, err)
	assert.Equal(t, types.ReconcileResult{}, *res)
}
