package api

import "time"

const (
	// multipartOverhead is allowed on top of the file size limit for the
	// form boundaries and the other fields of an upload
	multipartOverhead = 1 << 20

	// maxErrorLength bounds error messages returned to clients
	maxErrorLength = 200

	DefaultFilePermissions = 0o755

	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 2 * time.Minute
	ServerIdleTimeout       = 60 * time.Second
	GracefulShutdownTimeout = 10 * time.Second
)
