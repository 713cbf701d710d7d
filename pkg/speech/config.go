package speech

import "log/slog"

// Config holds gateway configuration shared by both directions.
type Config struct {
	// APIKey authenticates against the Google Cloud APIs.
	APIKey string

	// Endpoint overrides the API endpoint, used in tests.
	Endpoint string

	// DefaultLanguage is the primary recognition language.
	DefaultLanguage string

	// AlternateLanguages are offered to the recognizer alongside the
	// primary language for mixed-language speech.
	AlternateLanguages []string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Option is a functional option for configuring gateways.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithEndpoint overrides the API endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithDefaultLanguage sets the primary recognition language.
func WithDefaultLanguage(code string) Option {
	return func(c *Config) { c.DefaultLanguage = code }
}

// WithAlternateLanguages sets the secondary recognition languages.
func WithAlternateLanguages(codes ...string) Option {
	return func(c *Config) { c.AlternateLanguages = codes }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns gateway defaults tuned for Indian English with
// Hindi as the alternate.
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage:    "en-IN",
		AlternateLanguages: []string{"hi-IN"},
		Logger:             slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
