package router

import "time"

// Config holds the dispatcher level behaviour applied to every request.
type Config struct {
	Timeout         time.Duration
	CORS            CORSConfig
	QuietdownRoutes []string
	HideHeaders     []string
}

// CORSConfig lists what the CORS middleware allows. CORS is only applied when
// at least one origin is configured.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}
