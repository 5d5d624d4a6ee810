package i18n

const DEFAULT_LANG = "en"

// LANGUAGES 已提供翻译的语言, 第一个为默认语言
var LANGUAGES = []string{DEFAULT_LANG, "zh-CN"}

const (
	ERROR_INTERNAL            = "error.internal"
	ERROR_NOT_FOUND           = "error.notfound"
	ERROR_INVALIDARGUMENT     = "error.invalidargument"
	ERROR_STORAGE_UNAVAILABLE = "error.storage.unavailable"
	ERROR_WRITE_FAILED        = "error.write.failed"
	ERROR_EXIST               = "error.exist"
	ERROR_VERSION_CONFLICT    = "error.version.conflict"
	ERROR_INVALID_ENVELOPE    = "error.import.invalid_envelope"
	ERROR_INVALID_TRANSITION  = "error.knowledge.invalid_transition"
	ERROR_BRANCH_OUT_OF_RANGE = "error.branch.out_of_range"
	ERROR_MIRROR_FAILED       = "error.mirror.failed"

	MESSAGE_MIGRATION_SUCCESS = "message.migration.success"
	MESSAGE_MIGRATION_PARTIAL = "message.migration.partial"
	MESSAGE_VERIFY_PASSED     = "message.verify.passed"
	MESSAGE_VERIFY_ISSUES     = "message.verify.issues"
)
