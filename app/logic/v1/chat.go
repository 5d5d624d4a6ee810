package v1

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/fuzzy"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:  ctx,
		core: core,
	}
}

// SaveHistory 标题为空时使用默认标题
func (l *ChatLogic) SaveHistory(title string, isRAG bool, source types.MessageSource, docID string) (*types.ChatHistory, error) {
	if !source.Valid() {
		return nil, invalidArgument("ChatLogic.SaveHistory.MessageSource", nil)
	}
	if strings.TrimSpace(title) == "" {
		title = types.DEFAULT_HISTORY_TITLE
	}
	history := types.ChatHistory{
		ID:            utils.GenID(),
		Title:         title,
		IsRAG:         isRAG,
		MessageSource: source,
		DocID:         docID,
		CreatedAt:     types.NowMilli(),
	}
	if err := l.core.Store().ChatHistoryStore().Create(l.ctx, history); err != nil {
		return nil, storeError("ChatLogic.SaveHistory.Create", err, true)
	}
	return &history, nil
}

func (l *ChatLogic) GetHistory(id string) (*types.ChatHistory, error) {
	history, err := l.core.Store().ChatHistoryStore().GetChatHistory(l.ctx, id)
	return getOrNil("ChatLogic.GetHistory", history, err)
}

// TouchHistory 将会话时间刷新为当前时间, 使其排到列表最前
func (l *ChatLogic) TouchHistory(id string) error {
	now := types.NowMilli()
	if err := l.core.Store().ChatHistoryStore().Update(l.ctx, id, types.UpdateChatHistoryArgs{CreatedAt: &now}); err != nil {
		return storeError("ChatLogic.TouchHistory", err, true)
	}
	return nil
}

func (l *ChatLogic) UpdateHistoryTitle(id, title string) error {
	if err := l.core.Store().ChatHistoryStore().Update(l.ctx, id, types.UpdateChatHistoryArgs{Title: &title}); err != nil {
		return storeError("ChatLogic.UpdateHistoryTitle", err, true)
	}
	return nil
}

func (l *ChatLogic) PinHistory(id string, pinned bool) error {
	if err := l.core.Store().ChatHistoryStore().Update(l.ctx, id, types.UpdateChatHistoryArgs{IsPinned: &pinned}); err != nil {
		return storeError("ChatLogic.PinHistory", err, true)
	}
	return nil
}

func (l *ChatLogic) UpdateLastUsedModel(id, modelID string) error {
	if err := l.core.Store().ChatHistoryStore().Update(l.ctx, id, types.UpdateChatHistoryArgs{ModelID: &modelID}); err != nil {
		return storeError("ChatLogic.UpdateLastUsedModel", err, true)
	}
	return nil
}

func (l *ChatLogic) UpdateLastUsedPrompt(id string, prompt types.LastUsedPrompt) error {
	if err := l.core.Store().ChatHistoryStore().Update(l.ctx, id, types.UpdateChatHistoryArgs{LastUsedPrompt: &prompt}); err != nil {
		return storeError("ChatLogic.UpdateLastUsedPrompt", err, true)
	}
	return nil
}

// ListHistories page 从 1 开始, 按创建时间倒序
func (l *ChatLogic) ListHistories(opts types.ListChatHistoriesOptions, page, pageSize uint64) (*types.ChatHistoryPage, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}

	s := l.core.Store().ChatHistoryStore()
	total, err := s.Total(l.ctx, opts)
	if err != nil {
		return nil, storeError("ChatLogic.ListHistories.Total", err, false)
	}
	list, err := s.ListChatHistories(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, storeError("ChatLogic.ListHistories.List", err, false)
	}
	if list == nil {
		list = []*types.ChatHistory{}
	}
	return &types.ChatHistoryPage{
		Histories:  list,
		HasMore:    page*pageSize < total,
		TotalCount: total,
	}, nil
}

// SaveMessage offset 用于同一时刻连续保存的消息保持先后顺序
func (l *ChatLogic) SaveMessage(args types.SaveMessageArgs) (*types.Message, error) {
	message := types.Message{
		ID:                 utils.GenID(),
		HistoryID:          args.HistoryID,
		Name:               args.Name,
		Role:               args.Role,
		Content:            args.Content,
		Images:             args.Images,
		Sources:            args.Sources,
		Search:             args.Search,
		Documents:          args.Documents,
		MessageType:        args.MessageType,
		GenerationInfo:     args.GenerationInfo,
		ReasoningTimeTaken: args.ReasoningTimeTaken,
		CreatedAt:          types.NowMilli() + args.TimeOffset,
	}
	if err := message.Validate(); err != nil {
		return nil, invalidArgument("ChatLogic.SaveMessage.Validate", err)
	}
	if err := l.core.Store().MessageStore().Create(l.ctx, message); err != nil {
		return nil, storeError("ChatLogic.SaveMessage.Create", err, true)
	}
	return &message, nil
}

// listMessages 按创建时间正序返回会话的全部消息
func (l *ChatLogic) listMessages(ctx context.Context, historyID string) ([]*types.Message, error) {
	list, err := l.core.Store().MessageStore().ListMessages(ctx, types.ListMessagesOptions{HistoryID: historyID}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, storeError("ChatLogic.listMessages", err, false)
	}
	return list, nil
}

// GetMessages 会话消息, 并用模型昵称补全展示名与头像
func (l *ChatLogic) GetMessages(historyID string) ([]*types.Message, error) {
	list, err := l.listMessages(l.ctx, historyID)
	if err != nil {
		return nil, err
	}

	nicknames, err := l.core.Store().ModelNicknameStore().ListNicknames(l.ctx)
	if err != nil {
		slog.Warn("failed to load model nicknames", slog.String("history_id", historyID), slog.String("error", err.Error()))
		return list, nil
	}
	byModel := lo.KeyBy(nicknames, func(v *types.ModelNickname) string { return v.ModelID })
	for _, m := range list {
		m.ModelName, m.ModelImage = m.Name, ""
		if n, ok := byModel[m.Name]; ok {
			if n.ModelName != "" {
				m.ModelName = n.ModelName
			}
			m.ModelImage = n.ModelAvatar
		}
	}
	return list, nil
}

// UpdateMessage 消息不属于该会话时返回 NotFound
func (l *ChatLogic) UpdateMessage(historyID, messageID, content string) error {
	message, err := l.core.Store().MessageStore().GetMessage(l.ctx, messageID)
	if message, err = getOrNil("ChatLogic.UpdateMessage.Get", message, err); err != nil {
		return err
	}
	if message == nil || message.HistoryID != historyID {
		return notFoundError("ChatLogic.UpdateMessage.NotFound")
	}
	if err = l.core.Store().MessageStore().Update(l.ctx, messageID, types.UpdateMessageArgs{Content: &content}); err != nil {
		return storeError("ChatLogic.UpdateMessage.Update", err, true)
	}
	return nil
}

// UpdateMessageByIndex 按时间正序的下标更新, 下标越界时忽略
func (l *ChatLogic) UpdateMessageByIndex(historyID string, index int, content string) error {
	list, err := l.listMessages(l.ctx, historyID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return nil
	}
	if err = l.core.Store().MessageStore().Update(l.ctx, list[index].ID, types.UpdateMessageArgs{Content: &content}); err != nil {
		return storeError("ChatLogic.UpdateMessageByIndex", err, true)
	}
	return nil
}

// DeleteChatForEdit 删除下标之后的全部消息
func (l *ChatLogic) DeleteChatForEdit(historyID string, index int) error {
	return transaction(l.ctx, l.core, "ChatLogic.DeleteChatForEdit", func(ctx context.Context) error {
		list, err := l.listMessages(ctx, historyID)
		if err != nil {
			return err
		}
		if index+1 >= len(list) {
			return nil
		}
		ids := lo.Map(list[max(index+1, 0):], func(v *types.Message, _ int) string { return v.ID })
		if err = l.core.Store().MessageStore().BatchDelete(ctx, ids); err != nil {
			return storeError("ChatLogic.DeleteChatForEdit", err, true)
		}
		return nil
	})
}

// RemoveLatestMessage 删除会话中最新的一条消息
func (l *ChatLogic) RemoveLatestMessage(historyID string) error {
	list, err := l.listMessages(l.ctx, historyID)
	if err != nil || len(list) == 0 {
		return err
	}
	if err = l.core.Store().MessageStore().Delete(l.ctx, list[len(list)-1].ID); err != nil {
		return storeError("ChatLogic.RemoveLatestMessage", err, true)
	}
	return nil
}

// GetRecentChat 指定来源最近的一次会话, 不存在时返回 nil
func (l *ChatLogic) GetRecentChat(source types.MessageSource) (*types.ChatHistoryBundle, error) {
	list, err := l.core.Store().ChatHistoryStore().ListChatHistories(l.ctx, types.ListChatHistoriesOptions{MessageSource: source}, 1, 1)
	if err != nil {
		return nil, storeError("ChatLogic.GetRecentChat.List", err, false)
	}
	if len(list) == 0 {
		return nil, nil
	}
	messages, err := l.listMessages(l.ctx, list[0].ID)
	if err != nil {
		return nil, err
	}
	return &types.ChatHistoryBundle{
		History:  *list[0],
		Messages: lo.FromSlicePtr(messages),
	}, nil
}

// GetLastChatHistory 会话中最后一条助手消息
func (l *ChatLogic) GetLastChatHistory(historyID string) (*types.Message, error) {
	list, err := l.listMessages(l.ctx, historyID)
	if err != nil {
		return nil, err
	}
	last, _, ok := lo.FindLastIndexOf(list, func(v *types.Message) bool {
		return v.Role == types.MESSAGE_ROLE_ASSISTANT
	})
	if !ok {
		return nil, nil
	}
	return last, nil
}

// DeleteHistory 会话、消息与会话文件在同一事务中删除
func (l *ChatLogic) DeleteHistory(id string) error {
	return l.deleteHistories([]string{id})
}

func (l *ChatLogic) deleteHistories(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return transaction(l.ctx, l.core, "ChatLogic.DeleteHistories", func(ctx context.Context) error {
		if _, err := l.core.Store().MessageStore().DeleteByHistoryIDs(ctx, ids); err != nil {
			return storeError("ChatLogic.deleteHistories.Messages", err, true)
		}
		if _, err := l.core.Store().SessionFilesStore().DeleteBySessionIDs(ctx, ids); err != nil {
			return storeError("ChatLogic.deleteHistories.SessionFiles", err, true)
		}
		if err := l.core.Store().ChatHistoryStore().BatchDelete(ctx, ids); err != nil {
			return storeError("ChatLogic.deleteHistories.Histories", err, true)
		}
		return nil
	})
}

// DeleteAllHistories 清空全部会话与消息
func (l *ChatLogic) DeleteAllHistories() error {
	return transaction(l.ctx, l.core, "ChatLogic.DeleteAllHistories", func(ctx context.Context) error {
		if err := l.core.Store().MessageStore().Clear(ctx); err != nil {
			return storeError("ChatLogic.DeleteAllHistories.Messages", err, true)
		}
		if err := l.core.Store().SessionFilesStore().Clear(ctx); err != nil {
			return storeError("ChatLogic.DeleteAllHistories.SessionFiles", err, true)
		}
		if err := l.core.Store().ChatHistoryStore().Clear(ctx); err != nil {
			return storeError("ChatLogic.DeleteAllHistories.Histories", err, true)
		}
		return nil
	})
}

// rangeOptions 置顶会话只在 pinned 范围内删除
func rangeOptions(r types.DeleteRange, now time.Time) (types.ListChatHistoriesOptions, bool) {
	today, yesterday, lastWeek := utils.DayBoundaries(now)
	unpinned := false
	opts := types.ListChatHistoriesOptions{Pinned: &unpinned}

	switch r {
	case types.DELETE_RANGE_TODAY:
		opts.CreatedAfter = today.UnixMilli()
	case types.DELETE_RANGE_YESTERDAY:
		opts.CreatedAfter = yesterday.UnixMilli()
		opts.CreatedBefore = today.UnixMilli()
	case types.DELETE_RANGE_LAST7DAYS:
		opts.CreatedAfter = lastWeek.UnixMilli()
		opts.CreatedBefore = yesterday.UnixMilli()
	case types.DELETE_RANGE_OLDER:
		opts.CreatedBefore = lastWeek.UnixMilli()
	case types.DELETE_RANGE_PINNED:
		pinned := true
		opts.Pinned = &pinned
	default:
		return opts, false
	}
	return opts, true
}

// DeleteHistoriesByRange 返回被删除的会话 id, 未知的范围不删除任何数据
func (l *ChatLogic) DeleteHistoriesByRange(r types.DeleteRange) ([]string, error) {
	opts, ok := rangeOptions(r, time.Now())
	if !ok {
		return []string{}, nil
	}

	ids, err := l.core.Store().ChatHistoryStore().ListChatHistoryIDs(l.ctx, opts)
	if err != nil {
		return nil, storeError("ChatLogic.DeleteHistoriesByRange.List", err, false)
	}
	if err = l.deleteHistories(ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Search 先匹配标题, 标题未命中时才逐条扫描该会话的消息
func (l *ChatLogic) Search(query string) ([]types.ChatSearchResult, error) {
	histories, err := l.core.Store().ChatHistoryStore().ListChatHistories(l.ctx, types.ListChatHistoriesOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, storeError("ChatLogic.Search.ListHistories", err, false)
	}

	res := []types.ChatSearchResult{}
	for _, h := range histories {
		if fuzzy.Match(h.Title, query) {
			res = append(res, types.ChatSearchResult{History: h, MatchedTitle: true})
			continue
		}

		messages, err := l.listMessages(l.ctx, h.ID)
		if err != nil {
			return nil, err
		}
		if m, ok := lo.Find(messages, func(m *types.Message) bool {
			return fuzzy.Match(m.Content, query)
		}); ok {
			res = append(res, types.ChatSearchResult{History: h, MessageID: m.ID})
		}
	}
	return res, nil
}

// Branch 以 cutoffIndex(含)之前的消息创建新的分支会话
func (l *ChatLogic) Branch(historyID string, cutoffIndex int) (*types.ChatHistoryBundle, error) {
	var res *types.ChatHistoryBundle
	err := transaction(l.ctx, l.core, "ChatLogic.Branch", func(ctx context.Context) error {
		source, err := l.core.Store().ChatHistoryStore().GetChatHistory(ctx, historyID)
		if source, err = getOrNil("ChatLogic.Branch.GetHistory", source, err); err != nil {
			return err
		}
		if source == nil {
			return notFoundError("ChatLogic.Branch.HistoryNotFound")
		}

		messages, err := l.listMessages(ctx, historyID)
		if err != nil {
			return err
		}
		if cutoffIndex < 0 || cutoffIndex >= len(messages) {
			return errors.New("ChatLogic.Branch.CutoffIndex", i18n.ERROR_BRANCH_OUT_OF_RANGE, nil).
				WithKind(errors.KindInvalidArgument).
				WithData(map[string]interface{}{"index": cutoffIndex, "count": len(messages)})
		}

		history := *source
		history.ID = utils.GenID()
		history.MessageSource = types.MESSAGE_SOURCE_BRANCH
		history.CreatedAt = types.NowMilli()
		if err = l.core.Store().ChatHistoryStore().Create(ctx, history); err != nil {
			return storeError("ChatLogic.Branch.CreateHistory", err, true)
		}

		cloned := lo.Map(messages[:cutoffIndex+1], func(m *types.Message, _ int) types.Message {
			c := *m
			c.ID = utils.GenID()
			c.HistoryID = history.ID
			return c
		})
		if err = l.core.Store().MessageStore().BatchCreate(ctx, cloned); err != nil {
			return storeError("ChatLogic.Branch.CreateMessages", err, true)
		}

		files, err := l.core.Store().SessionFilesStore().GetSessionFiles(ctx, historyID)
		if files, err = getOrNil("ChatLogic.Branch.GetSessionFiles", files, err); err != nil {
			return err
		}
		if files != nil {
			copied := *files
			copied.SessionID = history.ID
			copied.Files = append(types.UploadedFiles{}, files.Files...)
			copied.CreatedAt = history.CreatedAt
			if err = l.core.Store().SessionFilesStore().Put(ctx, copied); err != nil {
				return storeError("ChatLogic.Branch.CopySessionFiles", err, true)
			}
		}

		res = &types.ChatHistoryBundle{History: history, Messages: cloned}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
