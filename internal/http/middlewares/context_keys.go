package middlewares

// gin context keys set by the middleware chain.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxSession   = "auth.sessionID"
)
