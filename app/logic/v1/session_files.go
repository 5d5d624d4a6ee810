package v1

import (
	"context"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
)

// SessionFilesLogic 会话内上传的文件, 会话 id 即 chat history id
type SessionFilesLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewSessionFilesLogic(ctx context.Context, core *core.Core) *SessionFilesLogic {
	return &SessionFilesLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *SessionFilesLogic) GetInfo(sessionID string) (*types.SessionFiles, error) {
	res, err := l.core.Store().SessionFilesStore().GetSessionFiles(l.ctx, sessionID)
	return getOrNil("SessionFilesLogic.GetInfo", res, err)
}

func (l *SessionFilesLogic) GetFiles(sessionID string) ([]types.UploadedFile, error) {
	info, err := l.GetInfo(sessionID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return []types.UploadedFile{}, nil
	}
	return info.Files, nil
}

// modify 读取-修改-写回, 记录不存在且 create 为 false 时不做任何事
func (l *SessionFilesLogic) modify(trace, sessionID string, create bool, fn func(*types.SessionFiles)) error {
	return transaction(l.ctx, l.core, trace, func(ctx context.Context) error {
		info, err := l.core.Store().SessionFilesStore().GetSessionFiles(ctx, sessionID)
		if info, err = getOrNil(trace+".Get", info, err); err != nil {
			return err
		}
		if info == nil {
			if !create {
				return nil
			}
			info = &types.SessionFiles{
				SessionID: sessionID,
				Files:     types.UploadedFiles{},
				CreatedAt: types.NowMilli(),
			}
		}
		fn(info)
		if err = l.core.Store().SessionFilesStore().Put(ctx, *info); err != nil {
			return storeError(trace+".Put", err, true)
		}
		return nil
	})
}

func (l *SessionFilesLogic) AddFile(sessionID string, file types.UploadedFile) error {
	if file.ID == "" {
		return invalidArgument("SessionFilesLogic.AddFile.ID", nil)
	}
	if file.UploadedAt == 0 {
		file.UploadedAt = types.NowMilli()
	}
	return l.modify("SessionFilesLogic.AddFile", sessionID, true, func(info *types.SessionFiles) {
		info.Files = append(info.Files, file)
	})
}

func (l *SessionFilesLogic) RemoveFile(sessionID, fileID string) error {
	return l.modify("SessionFilesLogic.RemoveFile", sessionID, false, func(info *types.SessionFiles) {
		info.Files = lo.Filter(info.Files, func(f types.UploadedFile, _ int) bool {
			return f.ID != fileID
		})
	})
}

func (l *SessionFilesLogic) UpdateFile(sessionID, fileID string, args types.UpdateUploadedFileArgs) error {
	return l.modify("SessionFilesLogic.UpdateFile", sessionID, false, func(info *types.SessionFiles) {
		for i := range info.Files {
			f := &info.Files[i]
			if f.ID != fileID {
				continue
			}
			if args.Filename != nil {
				f.Filename = *args.Filename
			}
			if args.Content != nil {
				f.Content = *args.Content
			}
			if args.Embedding != nil {
				f.Embedding = args.Embedding
			}
			if args.Processed != nil {
				f.Processed = *args.Processed
			}
		}
	})
}

func (l *SessionFilesLogic) SetRetrievalEnabled(sessionID string, enabled bool) error {
	return l.modify("SessionFilesLogic.SetRetrievalEnabled", sessionID, true, func(info *types.SessionFiles) {
		info.RetrievalEnabled = enabled
	})
}

func (l *SessionFilesLogic) Clear(sessionID string) error {
	if err := l.core.Store().SessionFilesStore().Delete(l.ctx, sessionID); err != nil {
		return storeError("SessionFilesLogic.Clear", err, true)
	}
	return nil
}
