package v1_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/app/core"
	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/types"
)

func setupChatLogic(t *testing.T) (*v1.ChatLogic, *core.Core) {
	c := NewCore(t)
	return v1.NewChatLogic(ctx, c), c
}

// seedHistory 写入一段对话, 消息按下标递增的时间排列
func seedHistory(t *testing.T, logic *v1.ChatLogic, title string, contents ...string) (*types.ChatHistory, []*types.Message) {
	t.Helper()
	history, err := logic.SaveHistory(title, false, types.MESSAGE_SOURCE_WEB_UI, "")
	require.NoError(t, err)

	var messages []*types.Message
	for i, content := range contents {
		role := types.MESSAGE_ROLE_USER
		if i%2 == 1 {
			role = types.MESSAGE_ROLE_ASSISTANT
		}
		m, err := logic.SaveMessage(types.SaveMessageArgs{
			HistoryID:  history.ID,
			Name:       "llama3",
			Role:       role,
			Content:    content,
			TimeOffset: int64(i),
		})
		require.NoError(t, err)
		messages = append(messages, m)
	}
	return history, messages
}

func TestSaveHistoryDefaultTitle(t *testing.T) {
	logic, _ := setupChatLogic(t)

	history, err := logic.SaveHistory("  ", false, types.MESSAGE_SOURCE_WEB_UI, "")
	require.NoError(t, err)
	assert.Equal(t, types.DEFAULT_HISTORY_TITLE, history.Title)

	_, err = logic.SaveHistory("x", false, types.MessageSource("unknown"), "")
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	missing, err := logic.GetHistory("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMessagesOrderAndEdit(t *testing.T) {
	logic, _ := setupChatLogic(t)
	history, messages := seedHistory(t, logic, "ordering", "q1", "a1", "q2", "a2")

	require.NoError(t, logic.UpdateMessageByIndex(history.ID, 1, "a1 edited"))
	// 越界下标被忽略
	require.NoError(t, logic.UpdateMessageByIndex(history.ID, 10, "ignored"))

	list, err := logic.GetMessages(history.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "a1 edited", list[1].Content)
	assert.Equal(t, "llama3", list[0].ModelName)

	last, err := logic.GetLastChatHistory(history.ID)
	require.NoError(t, err)
	assert.Equal(t, messages[3].ID, last.ID)

	err = logic.UpdateMessage("another-history", messages[0].ID, "x")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, logic.DeleteChatForEdit(history.ID, 1))
	list, err = logic.GetMessages(history.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, logic.RemoveLatestMessage(history.ID))
	list, err = logic.GetMessages(history.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "q1", list[0].Content)
}

func TestMessagesUseNickname(t *testing.T) {
	logic, c := setupChatLogic(t)
	history, _ := seedHistory(t, logic, "nickname", "hello")

	_, err := v1.NewModelLogic(ctx, c).SaveNickname("llama3", "My Llama", "avatar.png")
	require.NoError(t, err)

	list, err := logic.GetMessages(history.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "My Llama", list[0].ModelName)
	assert.Equal(t, "avatar.png", list[0].ModelImage)
}

func TestBranch(t *testing.T) {
	logic, c := setupChatLogic(t)
	history, messages := seedHistory(t, logic, "source", "q1", "a1", "q2", "a2")
	require.NoError(t, v1.NewSessionFilesLogic(ctx, c).AddFile(history.ID, types.UploadedFile{ID: "f1", Filename: "a.txt"}))

	bundle, err := logic.Branch(history.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, history.ID, bundle.History.ID)
	assert.Equal(t, types.MESSAGE_SOURCE_BRANCH, bundle.History.MessageSource)
	require.Len(t, bundle.Messages, 2)
	for i, m := range bundle.Messages {
		assert.Equal(t, bundle.History.ID, m.HistoryID)
		assert.NotEqual(t, messages[i].ID, m.ID)
		assert.Equal(t, messages[i].Content, m.Content)
	}

	files, err := v1.NewSessionFilesLogic(ctx, c).GetFiles(bundle.History.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)

	// 源会话不受影响
	source, err := logic.GetMessages(history.ID)
	require.NoError(t, err)
	assert.Len(t, source, 4)

	_, err = logic.Branch(history.ID, 4)
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	_, err = logic.Branch("missing", 0)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteHistoryCascades(t *testing.T) {
	logic, c := setupChatLogic(t)
	history, _ := seedHistory(t, logic, "delete me", "q1", "a1")
	keep, _ := seedHistory(t, logic, "keep me", "q1")
	require.NoError(t, v1.NewSessionFilesLogic(ctx, c).AddFile(history.ID, types.UploadedFile{ID: "f1"}))

	require.NoError(t, logic.DeleteHistory(history.ID))

	got, err := logic.GetHistory(history.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := logic.GetMessages(history.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	info, err := v1.NewSessionFilesLogic(ctx, c).GetInfo(history.ID)
	require.NoError(t, err)
	assert.Nil(t, info)

	list, err = logic.GetMessages(keep.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, logic.DeleteAllHistories())
	page, err := logic.ListHistories(types.ListChatHistoriesOptions{}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Histories)
	assert.EqualValues(t, 0, page.TotalCount)
}

func TestDeleteHistoriesByRange(t *testing.T) {
	logic, c := setupChatLogic(t)
	today, _ := seedHistory(t, logic, "today")
	old, _ := seedHistory(t, logic, "old")
	pinned, _ := seedHistory(t, logic, "pinned old")

	oldTime := time.Now().AddDate(0, 0, -30).UnixMilli()
	require.NoError(t, logic.PinHistory(pinned.ID, true))
	for _, id := range []string{old.ID, pinned.ID} {
		require.NoError(t, c.Store().ChatHistoryStore().Update(ctx, id, types.UpdateChatHistoryArgs{CreatedAt: &oldTime}))
	}

	ids, err := logic.DeleteHistoriesByRange(types.DELETE_RANGE_OLDER)
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	ids, err = logic.DeleteHistoriesByRange(types.DeleteRange("someday"))
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, err := logic.GetHistory(today.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	ids, err = logic.DeleteHistoriesByRange(types.DELETE_RANGE_PINNED)
	require.NoError(t, err)
	assert.Equal(t, []string{pinned.ID}, ids)
}

func TestSearch(t *testing.T) {
	logic, _ := setupChatLogic(t)
	byTitle, _ := seedHistory(t, logic, "Kubernetes deployment notes", "hello")
	byMessage, messages := seedHistory(t, logic, "Random chat", "how do I bake sourdough bread", "use a starter")
	seedHistory(t, logic, "Nothing here", "unrelated")

	res, err := logic.Search("kubernetes deploy")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, byTitle.ID, res[0].History.ID)
	assert.True(t, res[0].MatchedTitle)

	res, err = logic.Search("sourdough bread")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, byMessage.ID, res[0].History.ID)
	assert.Equal(t, messages[0].ID, res[0].MessageID)
}

func TestGetRecentChat(t *testing.T) {
	logic, _ := setupChatLogic(t)

	recent, err := logic.GetRecentChat(types.MESSAGE_SOURCE_COPILOT)
	require.NoError(t, err)
	assert.Nil(t, recent)

	history, err := logic.SaveHistory("copilot", false, types.MESSAGE_SOURCE_COPILOT, "")
	require.NoError(t, err)
	_, err = logic.SaveMessage(types.SaveMessageArgs{HistoryID: history.ID, Role: types.MESSAGE_ROLE_USER, Content: "hi"})
	require.NoError(t, err)

	recent, err = logic.GetRecentChat(types.MESSAGE_SOURCE_COPILOT)
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, history.ID, recent.History.ID)
	assert.Len(t, recent.Messages, 1)
}
