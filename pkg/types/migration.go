package types

import "fmt"

type MigratedCounts struct {
	ChatHistories int `json:"chatHistories"`
	Messages      int `json:"messages"`
	Prompts       int `json:"prompts"`
	Webshares     int `json:"webshares"`
	SessionFiles  int `json:"sessionFiles"`
	UserSettings  int `json:"userSettings"`
	Knowledge     int `json:"knowledge"`
	Documents     int `json:"documents"`
	Vector        int `json:"vector"`
	OpenAIConfigs int `json:"openaiConfigs"`
	Models        int `json:"models"`
	Nicknames     int `json:"nicknames"`
}

// MigrationReport 迁移结果, Success 当且仅当 Errors 为空
type MigrationReport struct {
	RunID          string         `json:"runId"`
	Success        bool           `json:"success"`
	MigratedCounts MigratedCounts `json:"migratedCounts"`
	Errors         []string       `json:"errors"`
	// SourceCounts 迁移开始时旧存储中的数量, 旧会话在迁移后会被清理, 校验时以此为准
	SourceCounts *EntityCounts `json:"sourceCounts,omitempty"`
}

func (r *MigrationReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *MigrationReport) Finish() {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	r.Success = len(r.Errors) == 0
}

type EntityCounts struct {
	ChatHistories int `json:"chatHistories"`
	Prompts       int `json:"prompts"`
	Webshares     int `json:"webshares"`
}

type VerifyCounts struct {
	Legacy  EntityCounts `json:"legacy"`
	Current EntityCounts `json:"current"`
}

type VerifyResult struct {
	IsValid bool         `json:"isValid"`
	Counts  VerifyCounts `json:"counts"`
	Issues  []string     `json:"issues"`
}

// SessionFilesMigration 会话文件单独迁移的结果
type SessionFilesMigration struct {
	Success       bool     `json:"success"`
	MigratedCount int      `json:"migratedCount"`
	Errors        []string `json:"errors"`
}

// FullMigrationReport 迁移 + 会话文件 + 校验
type FullMigrationReport struct {
	Migration    *MigrationReport       `json:"migration"`
	SessionFiles *SessionFilesMigration `json:"sessionFiles"`
	Verify       *VerifyResult          `json:"verify"`
}

// ReconcileResult 孤儿数据清理统计
type ReconcileResult struct {
	OrphanMessages     int `json:"orphanMessages"`
	OrphanSessionFiles int `json:"orphanSessionFiles"`
	OrphanVectors      int `json:"orphanVectors"`
	OrphanModels       int `json:"orphanModels"`
}
