package v1

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store/legacy"
	"github.com/pageassist/localstore/pkg/merge"
	"github.com/pageassist/localstore/pkg/safe"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// MigrationLogic 将旧版 KV 存储中的数据搬迁到当前的多表存储.
// 每个实体分组独立执行, 单条记录或单个分组的失败只记录到报告中, 不会中断整体流程.
type MigrationLogic struct {
	ctx    context.Context
	core   *core.Core
	legacy *legacy.Store
}

// NewMigrationLogic 迁移一旦开始就执行到结束, 不跟随调用方取消
func NewMigrationLogic(ctx context.Context, core *core.Core) *MigrationLogic {
	return &MigrationLogic{
		ctx:    context.WithoutCancel(ctx),
		core:   core,
		legacy: core.Legacy(),
	}
}

type migrationGroup struct {
	name string
	run  func(report *types.MigrationReport) error
}

// 逐条迁移时以旧数据为准覆盖, 重复执行不会产生重复记录
var recordOptions = merge.Options{ReplaceExisting: true, MergeData: true}

func (l *MigrationLogic) importItems(kind types.EntityKind, opts merge.Options, items any) (*types.ImportResult, error) {
	env, err := types.NewImportEnvelope(kind, opts, items)
	if err != nil {
		return nil, err
	}
	return NewImportLogic(l.ctx, l.core).Import(*env)
}

// Run 按固定顺序迁移各实体分组
func (l *MigrationLogic) Run() *types.MigrationReport {
	report := &types.MigrationReport{
		RunID: utils.GenUniqIDStr(),
	}
	log := slog.With(slog.String("run_id", report.RunID))
	log.Info("legacy migration started")

	if counts, err := l.legacy.EntityCounts(l.ctx); err != nil {
		report.AddError("Failed to count legacy records: %v", err)
	} else {
		report.SourceCounts = &counts
	}

	groups := []migrationGroup{
		{name: "user_settings", run: l.migrateUserID},
		{name: "chat_histories", run: l.migrateChatHistories},
		{name: "knowledge", run: l.migrateKnowledge},
		{name: "documents", run: l.migrateDocuments},
		{name: "openai_configs", run: l.migrateOpenAIConfigs},
		{name: "custom_models", run: l.migrateModels},
		{name: "vectors", run: l.migrateVectors},
		{name: "model_nicknames", run: l.migrateNicknames},
		{name: "prompts", run: l.migratePrompts},
		{name: "webshares", run: l.migrateWebshares},
	}
	for _, g := range groups {
		before := len(report.Errors)
		err := safe.Do("MigrationLogic."+g.name, func() error {
			return g.run(report)
		})
		if err != nil {
			report.AddError("Failed to migrate %s: %v", g.name, err)
		}
		for range report.Errors[before:] {
			l.core.Metrics().MigrationErrorInc(g.name)
		}
	}

	report.Finish()
	c := report.MigratedCounts
	for entity, n := range map[string]int{
		"chat_histories":  c.ChatHistories,
		"messages":        c.Messages,
		"prompts":         c.Prompts,
		"webshares":       c.Webshares,
		"user_settings":   c.UserSettings,
		"knowledge":       c.Knowledge,
		"documents":       c.Documents,
		"vectors":         c.Vector,
		"openai_configs":  c.OpenAIConfigs,
		"custom_models":   c.Models,
		"model_nicknames": c.Nicknames,
	} {
		l.core.Metrics().MigratedAdd(entity, n)
	}

	if report.Success {
		log.Info("legacy migration finished", slog.Any("counts", report.MigratedCounts))
	} else {
		log.Warn("legacy migration finished with errors", slog.Any("counts", report.MigratedCounts), slog.Int("errors", len(report.Errors)))
	}
	return report
}

func (l *MigrationLogic) migrateUserID(report *types.MigrationReport) error {
	userID, err := l.legacy.UserID(l.ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	if err = NewUserLogic(l.ctx, l.core).SetUserID(userID); err != nil {
		return err
	}
	report.MigratedCounts.UserSettings = 1
	return nil
}

// migrateChatHistories 补上会话最近使用的模型与提示词.
// 只有会话及其全部消息都写入成功后才删除对应的旧数据
func (l *MigrationLogic) migrateChatHistories(report *types.MigrationReport) error {
	histories, err := l.legacy.ChatHistories(l.ctx)
	if err != nil {
		return err
	}

	var migrated []string
	for _, history := range histories {
		if l.migrateChatHistoryWithMessages(history, report) {
			migrated = append(migrated, history.ID)
		}
	}

	if err = l.legacy.DeleteChatHistories(l.ctx, migrated...); err != nil {
		return fmt.Errorf("cleanup legacy chat histories: %w", err)
	}
	return nil
}

func (l *MigrationLogic) migrateChatHistoryWithMessages(history types.ChatHistory, report *types.MigrationReport) bool {
	if err := l.migrateChatHistory(history); err != nil {
		report.AddError("Failed to migrate chat history %s: %v", history.ID, err)
		return false
	}
	report.MigratedCounts.ChatHistories++

	list, err := l.legacy.Messages(l.ctx, history.ID)
	if err != nil {
		report.AddError("Failed to get messages for history %s: %v", history.ID, err)
		return false
	}

	messages := storeTarget[types.Message]{
		get:   l.core.Store().MessageStore().GetMessage,
		put:   l.core.Store().MessageStore().Put,
		clear: l.core.Store().MessageStore().Clear,
		key:   func(v types.Message) string { return v.ID },
	}
	complete := true
	for _, message := range list {
		if message.HistoryID == "" {
			message.HistoryID = history.ID
		}
		if err = message.Validate(); err == nil {
			_, err = merge.Apply[types.Message](l.ctx, messages, []types.Message{message}, recordOptions, nil)
		}
		if err != nil {
			report.AddError("Failed to migrate message %s: %v", message.ID, err)
			complete = false
			continue
		}
		report.MigratedCounts.Messages++
	}
	return complete
}

func (l *MigrationLogic) migrateChatHistory(history types.ChatHistory) error {
	modelID, err := l.legacy.LastUsedModel(l.ctx, history.ID)
	if err != nil {
		return err
	}
	prompt, err := l.legacy.LastUsedPrompt(l.ctx, history.ID)
	if err != nil {
		return err
	}
	if modelID != "" {
		history.ModelID = modelID
	}
	if !prompt.IsZero() {
		history.LastUsedPrompt = prompt
	}
	_, err = l.importItems(types.KIND_CHAT_HISTORIES, recordOptions, []types.ChatHistoryBundle{{History: history}})
	return err
}

func (l *MigrationLogic) migrateKnowledge(report *types.MigrationReport) error {
	list, err := l.legacy.Knowledge(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_KNOWLEDGE, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.Knowledge = res.Total()
	return nil
}

func (l *MigrationLogic) migrateDocuments(report *types.MigrationReport) error {
	list, err := l.legacy.Documents(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_DOCUMENTS, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.Documents = res.Total()
	return nil
}

func (l *MigrationLogic) migrateOpenAIConfigs(report *types.MigrationReport) error {
	list, err := l.legacy.OpenAIConfigs(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_OPENAI_CONFIGS, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.OpenAIConfigs = res.Total()
	return nil
}

func (l *MigrationLogic) migrateModels(report *types.MigrationReport) error {
	list, err := l.legacy.Models(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_CUSTOM_MODELS, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.Models = res.Total()
	return nil
}

func (l *MigrationLogic) migrateVectors(report *types.MigrationReport) error {
	list, err := l.legacy.Vectors(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_VECTORS, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.Vector = res.Total()
	return nil
}

func (l *MigrationLogic) migrateNicknames(report *types.MigrationReport) error {
	list, err := l.legacy.Nicknames(l.ctx)
	if err != nil {
		return err
	}
	res, err := l.importItems(types.KIND_MODEL_NICKNAMES, merge.DefaultOptions(), list)
	if err != nil {
		return err
	}
	report.MigratedCounts.Nicknames = res.Total()
	return nil
}

func (l *MigrationLogic) migratePrompts(report *types.MigrationReport) error {
	list, err := l.legacy.Prompts(l.ctx)
	if err != nil {
		return err
	}
	for _, v := range list {
		if _, err = l.importItems(types.KIND_PROMPTS, recordOptions, []types.Prompt{v}); err != nil {
			report.AddError("Failed to migrate prompt %s: %v", v.ID, err)
			continue
		}
		report.MigratedCounts.Prompts++
	}
	return nil
}

func (l *MigrationLogic) migrateWebshares(report *types.MigrationReport) error {
	list, err := l.legacy.Webshares(l.ctx)
	if err != nil {
		return err
	}
	for _, v := range list {
		if _, err = l.importItems(types.KIND_WEBSHARES, recordOptions, []types.Webshare{v}); err != nil {
			report.AddError("Failed to migrate webshare %s: %v", v.ID, err)
			continue
		}
		report.MigratedCounts.Webshares++
	}
	return nil
}

// MigrateSessionFiles 旧版没有会话文件的索引, 需要枚举全部 key 找出 session_files_ 前缀的记录.
// 文件按 id 取并集, 重复执行不会产生重复文件.
func (l *MigrationLogic) MigrateSessionFiles() *types.SessionFilesMigration {
	res := &types.SessionFilesMigration{}
	ids, err := l.legacy.SessionIDs(l.ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to enumerate session files: %v", err))
	}

	for _, id := range ids {
		err := safe.Do("MigrationLogic.session_files", func() error {
			files, err := l.legacy.SessionFiles(l.ctx, id)
			if err != nil || files == nil {
				return err
			}
			_, err = l.importItems(types.KIND_SESSION_FILES, merge.DefaultOptions(), []types.SessionFiles{*files})
			if err != nil {
				return err
			}
			res.MigratedCount++
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to migrate session files for %s: %v", id, err))
			l.core.Metrics().MigrationErrorInc("session_files")
		}
	}

	l.core.Metrics().MigratedAdd("session_files", res.MigratedCount)
	if res.Errors == nil {
		res.Errors = []string{}
	}
	res.Success = len(res.Errors) == 0
	return res
}

// Verify 对比新旧两边的会话、提示词、分享数量. 旧会话在迁移后已被清理, 优先使用报告中记录的迁移前数量
func (l *MigrationLogic) Verify(report *types.MigrationReport) *types.VerifyResult {
	res := &types.VerifyResult{Issues: []string{}}

	if report != nil && report.SourceCounts != nil {
		res.Counts.Legacy = *report.SourceCounts
	} else {
		counts, err := l.legacy.EntityCounts(l.ctx)
		if err != nil {
			res.Issues = append(res.Issues, fmt.Sprintf("Verification failed: %v", err))
			return res
		}
		res.Counts.Legacy = counts
	}

	current, err := l.currentCounts()
	if err != nil {
		res.Counts = types.VerifyCounts{}
		res.Issues = append(res.Issues, fmt.Sprintf("Verification failed: %v", err))
		return res
	}
	res.Counts.Current = current
	l.core.Metrics().VerifySet(res.Counts)

	check := func(name string, legacyCount, currentCount int) {
		if legacyCount != currentCount {
			res.Issues = append(res.Issues, fmt.Sprintf("%s count mismatch: Legacy(%d) vs Current(%d)", name, legacyCount, currentCount))
		}
	}
	check("Chat histories", res.Counts.Legacy.ChatHistories, current.ChatHistories)
	check("Prompts", res.Counts.Legacy.Prompts, current.Prompts)
	check("Webshares", res.Counts.Legacy.Webshares, current.Webshares)

	res.IsValid = len(res.Issues) == 0
	if !res.IsValid {
		slog.Warn("migration verification found issues", slog.Any("issues", res.Issues))
	}
	return res
}

func (l *MigrationLogic) currentCounts() (types.EntityCounts, error) {
	var counts types.EntityCounts
	histories, err := l.core.Store().ChatHistoryStore().Total(l.ctx, types.ListChatHistoriesOptions{})
	if err != nil {
		return counts, err
	}
	prompts, err := l.core.Store().PromptStore().Total(l.ctx)
	if err != nil {
		return counts, err
	}
	webshares, err := l.core.Store().WebshareStore().Total(l.ctx)
	if err != nil {
		return counts, err
	}
	counts.ChatHistories = int(histories)
	counts.Prompts = int(prompts)
	counts.Webshares = int(webshares)
	return counts, nil
}

// RunAll 迁移、会话文件迁移与校验依次执行
func (l *MigrationLogic) RunAll() *types.FullMigrationReport {
	report := l.Run()
	return &types.FullMigrationReport{
		Migration:    report,
		SessionFiles: l.MigrateSessionFiles(),
		Verify:       l.Verify(report),
	}
}
