package domain

// 对外稳定的错误码（stdout JSON / 报告中的 error_code）。
const (
	ErrCodeConfigNotFound   = "config_not_found"
	ErrCodeConfigInvalid    = "config_invalid"
	ErrCodeTemplateMismatch = "template_mismatch"
	ErrCodeIOFailed         = "io_failed"
	ErrCodeFetchFailed      = "fetch_failed"
	ErrCodeParseFailed      = "parse_failed"
	ErrCodeVerifyMismatch   = "verify_mismatch"
	ErrCodeClaimFailed      = "claim_failed"
	ErrCodeLockFailed       = "lock_failed"
	ErrCodeCanceled         = "canceled"
)
