// Package constants vends constants used in various components of chronos service, e.g., env var names
package constants

const (
	// -------------- env vars --------------
	// common
	EnvVerbose = "CHRONOS_VERBOSE"
	EnvSeed    = "CHRONOS_SEED"
	// stores
	EnvRedisHost         = "REDIS_HOST"
	EnvRedisPort         = "REDIS_PORT"
	EnvRedisPasswd       = "REDIS_PASSWD"
	EnvRedisDB           = "REDIS_DB"
	EnvDraftCacheSize    = "CHRONOS_DRAFT_CACHE_SIZE"
	EnvDraftExpiry       = "CHRONOS_DRAFT_EXPIRY"
	EnvSessionSecret     = "CHRONOS_SESSION_SECRET"
	EnvSessionMaxAgeSecs = "CHRONOS_SESSION_MAX_AGE_SECS"
	EnvSessionCacheSize  = "CHRONOS_SESSION_CACHE_SIZE"
	// server
	EnvAppHost             = "CHRONOS_HOST"
	EnvAppPort             = "CHRONOS_PORT"
	EnvReqBodySizeMaxByte  = "CHRONOS_REQ_BODY_SIZE_MAX_BYTE"
	EnvTitleSizeMaxByte    = "CHRONOS_TITLE_SIZE_MAX_BYTE"
	EnvMessageSizeMaxByte  = "CHRONOS_MESSAGE_SIZE_MAX_BYTE"
	EnvTrapName            = "CHRONOS_TRAP_NAME"
	EnvWriteRatePerSec     = "CHRONOS_WRITE_RATE"
	EnvWriteBurst          = "CHRONOS_WRITE_BURST"
	EnvShutdownGracePeriod = "CHRONOS_SHUTDOWN_GRACE_PERIOD"
	// oracle
	EnvOracleAPIKey      = "ORACLE_API_KEY"
	EnvOracleBaseURL     = "ORACLE_BASE_URL"
	EnvOracleModel       = "ORACLE_MODEL"
	EnvOracleTimeout     = "ORACLE_TIMEOUT"
	EnvOracleRatePerSec  = "ORACLE_RATE"
	EnvOracleCacheSize   = "ORACLE_CACHE_SIZE"
	EnvOracleCacheExpiry = "ORACLE_CACHE_EXPIRY"

	// -------------- error messages --------------
	ErrMsgRequestBodyTooLarge = "request body too large"

	// -------------- log fields --------------
	LogFieldFuncName  = "funcName"
	LogFieldVisitorID = "visitorID"
	LogFieldCapsuleID = "capsuleID"
	LogFieldDraftID   = "draftID"
)
