package utils

// Error codes returned in the "code" field of api error responses.
const (
	ErrorTokenAuthFail = 1001
	ErrorBadRequest    = 1002
	ErrorNotFound      = 1003
	ErrorForbidden     = 1004
	ErrorInternal      = 1005
)
