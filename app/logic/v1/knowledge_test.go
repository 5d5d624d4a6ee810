package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/types"
)

func newKnowledge(t *testing.T, logic *v1.KnowledgeLogic, title string) *types.Knowledge {
	t.Helper()
	k, err := logic.Create(types.CreateKnowledgeArgs{
		Title:          title,
		EmbeddingModel: "nomic-embed-text",
		Source: []types.KnowledgeSource{
			{SourceID: "s1", Type: "pdf", Filename: "a.pdf", Content: "first source"},
			{SourceID: "s2", Type: "txt", Filename: "b.txt", Content: "second source"},
		},
	})
	require.NoError(t, err)
	return k
}

func TestKnowledgeStatusTransitions(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_KNOWLEDGE)
	k := newKnowledge(t, logic, "docs")
	assert.Equal(t, types.KNOWLEDGE_STATUS_PENDING, k.Status)
	assert.Equal(t, types.DB_TYPE_KNOWLEDGE, k.DBType)

	k, err := logic.UpdateStatus(k.ID, types.KNOWLEDGE_STATUS_PROCESSING)
	require.NoError(t, err)
	assert.Equal(t, "first source", k.Source[0].Content)

	k, err = logic.UpdateStatus(k.ID, types.KNOWLEDGE_STATUS_FINISHED)
	require.NoError(t, err)
	for _, s := range k.Source {
		assert.Empty(t, s.Content)
	}

	stored, err := logic.Get(k.ID)
	require.NoError(t, err)
	assert.Equal(t, types.KNOWLEDGE_STATUS_FINISHED, stored.Status)
	assert.Empty(t, stored.Source[1].Content)
	assert.Equal(t, "b.txt", stored.Source[1].Filename)

	// 不允许回退
	_, err = logic.UpdateStatus(k.ID, types.KNOWLEDGE_STATUS_PENDING)
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	_, err = logic.UpdateStatus(k.ID, types.KnowledgeStatus("done"))
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	_, err = logic.UpdateStatus("missing", types.KNOWLEDGE_STATUS_PROCESSING)
	assert.True(t, errors.IsNotFound(err))
}

func TestKnowledgeAddNewSources(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_KNOWLEDGE)
	k := newKnowledge(t, logic, "docs")

	_, err := logic.UpdateStatus(k.ID, types.KNOWLEDGE_STATUS_FINISHED)
	require.NoError(t, err)

	k, err = logic.AddNewSources(k.ID, []types.KnowledgeSource{
		{SourceID: "s2", Type: "txt", Content: "duplicate"},
		{SourceID: "s3", Type: "url", Content: "third source"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.KNOWLEDGE_STATUS_PROCESSING, k.Status)
	require.Len(t, k.Source, 3)
	assert.Equal(t, "s3", k.Source[2].SourceID)
	assert.Equal(t, "third source", k.Source[2].Content)

	_, err = logic.AddNewSources(k.ID, []types.KnowledgeSource{{Type: "url"}})
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))
}

func TestKnowledgeListStripsContent(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_KNOWLEDGE)
	first := newKnowledge(t, logic, "first")
	second := newKnowledge(t, logic, "second")
	_, err := logic.UpdateStatus(second.ID, types.KNOWLEDGE_STATUS_PROCESSING)
	require.NoError(t, err)

	list, err := logic.List("")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, k := range list {
		for _, s := range k.Source {
			assert.Empty(t, s.Content)
		}
	}

	list, err = logic.List(types.KNOWLEDGE_STATUS_PENDING)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	// document 与 knowledge 互不可见
	docs, err := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_DOCUMENT).List("")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestKnowledgeDeleteCascadesToVectors(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_KNOWLEDGE)
	vectors := v1.NewVectorLogic(ctx, c)
	k := newKnowledge(t, logic, "docs")

	require.NoError(t, vectors.Insert(k.ID, []types.VectorFragment{
		{FileID: "s1", Content: "chunk a", Embedding: types.Embedding{0.1, 0.2}},
		{FileID: "s1", Content: "chunk b", Embedding: types.Embedding{0.3, 0.4}},
		{FileID: "s2", Content: "chunk c", Embedding: types.Embedding{0.5, 0.6}},
	}))

	require.NoError(t, logic.DeleteSource(k.ID, "s1"))
	stored, err := logic.Get(k.ID)
	require.NoError(t, err)
	require.Len(t, stored.Source, 1)
	assert.Equal(t, "s2", stored.Source[0].SourceID)

	data, err := vectors.Get(k.ID)
	require.NoError(t, err)
	require.Len(t, data.Vectors, 1)
	assert.Equal(t, "chunk c", data.Vectors[0].Content)
	assert.Equal(t, types.Embedding{0.5, 0.6}, data.Vectors[0].Embedding)

	require.NoError(t, logic.Delete(k.ID))
	stored, err = logic.Get(k.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	data, err = vectors.Get(k.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestVectorInsertAppends(t *testing.T) {
	c := NewCore(t)
	vectors := v1.NewVectorLogic(ctx, c)

	fragment := types.VectorFragment{FileID: "f1", Content: "same"}
	require.NoError(t, vectors.Insert("kb1", []types.VectorFragment{fragment}))
	require.NoError(t, vectors.Insert("vector:kb1", []types.VectorFragment{fragment, {FileID: "f2", Content: "other"}}))

	data, err := vectors.Get("kb1")
	require.NoError(t, err)
	assert.Equal(t, "vector:kb1", data.ID)
	require.Len(t, data.Vectors, 3)
	assert.Equal(t, "other", data.Vectors[2].Content)

	n, err := vectors.DeleteByFileID("kb1", "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	err = vectors.Insert("kb1", []types.VectorFragment{{Content: "no file"}})
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	all, err := vectors.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateKnowledgebase(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewKnowledgeLogic(ctx, c, types.DB_TYPE_DOCUMENT)
	k := newKnowledge(t, logic, "doc")
	assert.Equal(t, types.DB_TYPE_DOCUMENT, k.DBType)

	_, err := logic.UpdateKnowledgebase(k.ID, types.UpdateKnowledgebaseArgs{
		Title:          "renamed",
		SystemPrompt:   "be brief",
		FollowupPrompt: "ask more",
	})
	require.NoError(t, err)

	stored, err := logic.Get(k.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Title)
	assert.Equal(t, "be brief", stored.SystemPrompt)
	assert.Equal(t, "ask more", stored.FollowupPrompt)

	_, err = logic.UpdateKnowledgebase("missing", types.UpdateKnowledgebaseArgs{})
	assert.True(t, errors.IsNotFound(err))
}
