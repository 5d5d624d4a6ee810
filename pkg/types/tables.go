package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "pa_"

const (
	TABLE_CHAT_HISTORY      = TableName("chat_history")
	TABLE_MESSAGE           = TableName("message")
	TABLE_SESSION_FILES     = TableName("session_files")
	TABLE_PROMPT            = TableName("prompt")
	TABLE_WEBSHARE          = TableName("webshare")
	TABLE_USER_SETTING      = TableName("user_setting")
	TABLE_KNOWLEDGE         = TableName("knowledge")
	TABLE_DOCUMENT          = TableName("document")
	TABLE_VECTOR_FRAGMENT   = TableName("vector_fragment")
	TABLE_OPENAI_CONFIG     = TableName("openai_config")
	TABLE_CUSTOM_MODEL      = TableName("custom_model")
	TABLE_MODEL_NICKNAME    = TableName("model_nickname")
	TABLE_MODEL_STATE       = TableName("model_state")
	TABLE_PROVIDER_STATE    = TableName("provider_state")
	TABLE_PROCESSED_MEDIA   = TableName("processed_media")
	TABLE_MEMORY            = TableName("memory")
	TABLE_SCHEMA_MIGRATIONS = TableName("schema_migrations")
)
