package cmdb

// Config holds configuration for the remote record-store client.
type Config struct {
	// BaseURL is the root URL of the record-store API.
	BaseURL string `mapstructure:"base_url" default:""`
	// APIKey is the bearer token used to authenticate requests.
	APIKey string `mapstructure:"api_key" default:""`
	// AuthHeader is the header the API key is sent in.
	AuthHeader string `mapstructure:"auth_header" default:"Authorization"`
	// TimeoutSeconds is the per-call HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxRetries bounds retries on rate-limit and server errors.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// RetryBackoffSeconds is the initial backoff between retries; it
	// doubles on each attempt.
	RetryBackoffSeconds int `mapstructure:"retry_backoff_seconds" default:"1"`
	// PageSize is the page size used when listing records.
	PageSize int `mapstructure:"page_size" default:"100"`
}
