package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/types"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var CreateTableFiles embed.FS

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.ChatHistoryStore
	store.MessageStore
	store.SessionFilesStore
	store.PromptStore
	store.WebshareStore
	store.UserSettingStore
	store.MemoryStore
	store.ProcessedMediaStore
	KnowledgeStore store.KnowledgeStore
	DocumentStore  store.KnowledgeStore
	store.VectorStore
	store.OpenAIConfigStore
	store.CustomModelStore
	store.ModelNicknameStore
	store.ModelStateStore
	store.ProviderStateStore
}

type RegisterKey struct{}

// Setup 每次调用都会返回独立的 Provider, 不持有全局状态
func Setup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) (*Provider, error) {
	sp, err := sqlstore.SetupProvider(m, s...)
	if err != nil {
		return nil, err
	}
	return NewProvider(sp), nil
}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) *Provider {
	p, err := Setup(m, s...)
	if err != nil {
		panic(err)
	}
	return p
}

func NewProvider(sp *sqlstore.SqlProvider) *Provider {
	p := &Provider{
		SqlProvider: sp,
		stores:      &Stores{},
	}
	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(p)
	}
	return p
}

// Install 初始化所有数据表, 已执行过的 sql 文件会被跳过
func (p *Provider) Install() error {
	if err := p.enableExtensions(); err != nil {
		return err
	}

	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	dir := path.Join("schema", p.DriverName())
	files, err := fs.ReadDir(CreateTableFiles, dir)
	if err != nil {
		return fmt.Errorf("read schema dir %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		executed, err := p.isFileExecuted(file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		content, err := CreateTableFiles.ReadFile(path.Join(dir, file.Name()))
		if err != nil {
			return err
		}

		if err = p.executeSQLFile(string(content), file.Name()); err != nil {
			return err
		}
	}
	return nil
}

// enableExtensions 启用必要的数据库扩展, 仅 postgres
func (p *Provider) enableExtensions() error {
	if p.DriverName() != sqlstore.DRIVER_POSTGRES {
		return nil
	}
	extensions := []string{
		"CREATE EXTENSION IF NOT EXISTS vector;",
	}

	for _, ext := range extensions {
		if _, err := p.GetMaster().Exec(ext); err != nil {
			return fmt.Errorf("failed to enable extension: %w\nSQL: %s", err, ext)
		}
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_SCHEMA_MIGRATIONS.Name() + ` (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	queryString, args, err := sq.Select("COUNT(*)").From(types.TABLE_SCHEMA_MIGRATIONS.Name()).Where(sq.Eq{"filename": filename}).ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	var count int
	if err = p.GetMaster().Get(&count, p.Rebind(queryString), args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeSQLFile 建表语句与执行记录在同一事务内提交
func (p *Provider) executeSQLFile(content, filename string) error {
	slog.Info("execute schema file", slog.String("driver", p.DriverName()), slog.String("file", filename))

	return p.Transaction(context.Background(), func(ctx context.Context) error {
		tx := p.GetTxFromCtx(ctx)
		if _, err := tx.Exec(content); err != nil {
			return fmt.Errorf("execute %s: %w", filename, err)
		}

		queryString, args, err := sq.Insert(types.TABLE_SCHEMA_MIGRATIONS.Name()).
			Columns("filename", "executed_at").
			Values(filename, time.Now().Unix()).
			Suffix("ON CONFLICT (filename) DO NOTHING").ToSql()
		if err != nil {
			return ErrorSqlBuild(err)
		}
		_, err = tx.Exec(p.Rebind(queryString), args...)
		return err
	})
}

func (p *Provider) ChatHistoryStore() store.ChatHistoryStore {
	return p.stores.ChatHistoryStore
}

func (p *Provider) MessageStore() store.MessageStore {
	return p.stores.MessageStore
}

func (p *Provider) SessionFilesStore() store.SessionFilesStore {
	return p.stores.SessionFilesStore
}

func (p *Provider) PromptStore() store.PromptStore {
	return p.stores.PromptStore
}

func (p *Provider) WebshareStore() store.WebshareStore {
	return p.stores.WebshareStore
}

func (p *Provider) UserSettingStore() store.UserSettingStore {
	return p.stores.UserSettingStore
}

func (p *Provider) MemoryStore() store.MemoryStore {
	return p.stores.MemoryStore
}

func (p *Provider) ProcessedMediaStore() store.ProcessedMediaStore {
	return p.stores.ProcessedMediaStore
}

func (p *Provider) KnowledgeStore() store.KnowledgeStore {
	return p.stores.KnowledgeStore
}

func (p *Provider) DocumentStore() store.KnowledgeStore {
	return p.stores.DocumentStore
}

// KnowledgeStoreFor 根据 db_type 选择 knowledge 或 document 表
func (p *Provider) KnowledgeStoreFor(dbType types.KnowledgeDBType) store.KnowledgeStore {
	if dbType == types.DB_TYPE_DOCUMENT {
		return p.stores.DocumentStore
	}
	return p.stores.KnowledgeStore
}

func (p *Provider) VectorStore() store.VectorStore {
	return p.stores.VectorStore
}

func (p *Provider) OpenAIConfigStore() store.OpenAIConfigStore {
	return p.stores.OpenAIConfigStore
}

func (p *Provider) CustomModelStore() store.CustomModelStore {
	return p.stores.CustomModelStore
}

func (p *Provider) ModelNicknameStore() store.ModelNicknameStore {
	return p.stores.ModelNicknameStore
}

func (p *Provider) ModelStateStore() store.ModelStateStore {
	return p.stores.ModelStateStore
}

func (p *Provider) ProviderStateStore() store.ProviderStateStore {
	return p.stores.ProviderStateStore
}
