package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/types"
)

func TestModelCreate(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewModelLogic(ctx, c)

	model, err := logic.Create(types.CreateModelArgs{
		ModelID:    "accounts/fireworks/models/llama-v3",
		Name:       "accounts/fireworks/models/llama-v3",
		ProviderID: "openai-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "llama-v3", model.Name)
	assert.Equal(t, types.MODEL_TYPE_CHAT, model.ModelType)
	assert.Equal(t, types.DB_TYPE_OPENAI_MODEL, model.DBType)

	_, err = logic.Create(types.CreateModelArgs{ModelID: "accounts/fireworks/models/llama-v3", ProviderID: "openai-1"})
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	// 镜像中同样存在
	mirrored, err := c.Legacy().ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, model.ID, mirrored[0].ID)

	created, err := logic.CreateMany([]types.CreateModelArgs{
		{ModelID: "accounts/fireworks/models/llama-v3", ProviderID: "openai-1"},
		{ModelID: "text-embed", ProviderID: "openai-1", ModelType: types.MODEL_TYPE_EMBEDDING},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "text-embed", created[0].ModelID)

	list, err := logic.List(types.ListModelsOptions{ModelType: types.MODEL_TYPE_EMBEDDING})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "text-embed", list[0].ModelName)
}

func TestModelCreateRollsBackOnMirrorFailure(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewModelLogic(ctx, c)
	require.NoError(t, c.Legacy().Close())

	_, err := logic.Create(types.CreateModelArgs{ModelID: "llama3", ProviderID: "openai-1"})
	assert.Equal(t, errors.KindWriteFailed, errors.KindOf(err))

	list, err := logic.List(types.ListModelsOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestModelListUsesNickname(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewModelLogic(ctx, c)
	model, err := logic.Create(types.CreateModelArgs{ModelID: "llama3", ProviderID: "openai-1"})
	require.NoError(t, err)

	_, err = logic.SaveNickname(model.ID, "Llama", "llama.png")
	require.NoError(t, err)

	list, err := logic.List(types.ListModelsOptions{ProviderID: "openai-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Llama", list[0].ModelName)
	assert.Equal(t, "llama.png", list[0].ModelImage)

	nicknames, err := logic.ListNicknames()
	require.NoError(t, err)
	assert.Contains(t, nicknames, model.ID)

	require.NoError(t, logic.DeleteNickname(model.ID))
	n, err := logic.GetNickname(model.ID)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestModelAndProviderStates(t *testing.T) {
	c := NewCore(t)
	logic := v1.NewModelLogic(ctx, c)

	enabled, err := logic.IsModelEnabled("llama3")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = logic.ToggleModel("llama3")
	require.NoError(t, err)
	assert.False(t, enabled)

	states, err := logic.ModelStates()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"llama3": false}, states)

	enabled, err = logic.ToggleProvider("ollama")
	require.NoError(t, err)
	assert.False(t, enabled)
	require.NoError(t, logic.SetProviderEnabled("ollama", true))

	enabled, err = logic.IsProviderEnabled("ollama")
	require.NoError(t, err)
	assert.True(t, enabled)

	err = logic.SetModelEnabled("", true)
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))
}

func TestOpenAIConfigDeleteCascades(t *testing.T) {
	c := NewCore(t)
	configs := v1.NewOpenAIConfigLogic(ctx, c)
	models := v1.NewModelLogic(ctx, c)

	config, err := configs.Create(v1.SaveOpenAIConfigRequest{Name: "local", BaseURL: "http://localhost:1234/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/v1", config.BaseURL)
	other, err := configs.Create(v1.SaveOpenAIConfigRequest{Name: "other", BaseURL: "https://api.example.com"})
	require.NoError(t, err)

	m1, err := models.Create(types.CreateModelArgs{ModelID: "qwen", ProviderID: config.ID})
	require.NoError(t, err)
	_, err = models.Create(types.CreateModelArgs{ModelID: "mistral", ProviderID: other.ID})
	require.NoError(t, err)
	require.NoError(t, models.SetModelEnabled(m1.ModelID, false))

	require.NoError(t, configs.Delete(config.ID))

	got, err := configs.Get(config.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := models.List(types.ListModelsOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mistral", list[0].ModelID)

	states, err := models.ModelStates()
	require.NoError(t, err)
	assert.Empty(t, states)

	mirrored, err := c.Legacy().ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, other.ID, mirrored[0].ProviderID)

	_, err = configs.Update("missing", v1.SaveOpenAIConfigRequest{BaseURL: "http://x"})
	assert.True(t, errors.IsNotFound(err))
}

func TestReadsFallBackToMirror(t *testing.T) {
	c := NewCore(t)
	prompts := v1.NewPromptLogic(ctx, c)
	configs := v1.NewOpenAIConfigLogic(ctx, c)

	p, err := prompts.Save(v1.SavePromptRequest{Title: "brief", Content: "be brief"})
	require.NoError(t, err)
	config, err := configs.Create(v1.SaveOpenAIConfigRequest{Name: "local", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)

	require.NoError(t, c.Store().GetMaster().Close())

	list, err := prompts.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	got, err := prompts.Get(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "be brief", got.Content)

	cfg, err := configs.Get(config.ID)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "local", cfg.Name)

	// 写操作不回退
	_, err = prompts.Save(v1.SavePromptRequest{Title: "x"})
	assert.True(t, errors.IsStorageUnavailable(err))
}
