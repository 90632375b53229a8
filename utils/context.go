package utils

type contextKey string

// Request scoped context keys set by the HTTP layer
const (
	RequestIDKey  contextKey = "X-Request-ID"
	UserAgentKey  contextKey = "User-Agent"
	IPAddressKey  contextKey = "IP-Address"
	EndpointKey   contextKey = "Endpoint"
	TimeoutKey    contextKey = "Timeout"
)
