package constants

import "time"

const (
	// MaxVisibilityTimeoutSeconds is the SQS ceiling for ChangeMessageVisibility (12h).
	MaxVisibilityTimeoutSeconds = 43200
	MaxReceiveBatchSize         = 10
	MaxDeleteBatchSize          = 10
	MaxWaitTimeSeconds          = 20
	// MaxRedriveReceiveCount is the largest maxReceiveCount a redrive policy accepts.
	MaxRedriveReceiveCount      = 1000
)

const (
	AttributeApproximateReceiveCount = "ApproximateReceiveCount"
)

const (
	DefaultMaxMessages       = 10
	DefaultWaitTimeSeconds   = 20
	DefaultMaxAllowedDelay   = MaxVisibilityTimeoutSeconds
	DefaultMessageGroupID    = "backoff"
	FIFOQueueSuffix          = ".fifo"
	DefaultRetryWhen         = `has(payload.specialRetry) && payload.specialRetry == true`
	DefaultServiceName       = "backoff-consumer"
	DefaultLambdaServiceName = "backoff-lambda"
)

const (
	HealthCheckTimeout    = 5 * time.Second
	VisibilityCallTimeout = 5 * time.Second
	ReceiveErrorPause     = time.Second
	MaxReceiveErrorPause  = 30 * time.Second
)

const (
	CacheKeyPrefixOutcome = "backoff:outcome:"
	DefaultTTLSeconds     = 86400
)

const (
	ShutdownTimeout = 5 * time.Second
)
