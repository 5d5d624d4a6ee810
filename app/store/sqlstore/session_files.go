package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.SessionFilesStore = NewSessionFilesStore(provider)
	})
}

type SessionFilesStore struct {
	CommonFields
}

func NewSessionFilesStore(provider SqlProviderAchieve) *SessionFilesStore {
	repo := &SessionFilesStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SESSION_FILES)
	repo.SetAllColumns("session_id", "files", "retrieval_enabled", "created_at")
	return repo
}

// Put 一个会话只有一条记录, 以 session_id 覆盖
func (s *SessionFilesStore) Put(ctx context.Context, data types.SessionFiles) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.SessionID, data.Files, data.RetrievalEnabled, data.CreatedAt).
		Suffix(upsertSuffix("session_id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *SessionFilesStore) GetSessionFiles(ctx context.Context, sessionID string) (*types.SessionFiles, error) {
	return getOne[types.SessionFiles](ctx, &s.CommonFields, sq.Eq{"session_id": sessionID})
}

func (s *SessionFilesStore) ListSessionFiles(ctx context.Context) ([]*types.SessionFiles, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "session_id ASC")
	return selectList[types.SessionFiles](ctx, &s.CommonFields, query)
}

func (s *SessionFilesStore) Delete(ctx context.Context, sessionID string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionID}))
}

func (s *SessionFilesStore) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	return execAffected(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"session_id": sessionIDs}))
}

func (s *SessionFilesStore) DeleteOrphans(ctx context.Context) (int64, error) {
	query := sq.Delete(s.GetTable()).
		Where(sq.Expr("session_id NOT IN (SELECT id FROM " + types.TABLE_CHAT_HISTORY.Name() + ")"))
	return execAffected(ctx, &s.CommonFields, query)
}

func (s *SessionFilesStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
