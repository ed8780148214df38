package config

type ServiceConfig struct {
	Name         string `mapstructure:"name"`
	Environment  string `mapstructure:"environment"`
	Version      string `mapstructure:"version"`
	DashboardURL string `mapstructure:"dashboard_url"`
}

// SupabaseConfig holds the Supabase project settings. The service role key is
// used for server-side REST calls; the JWT secret verifies user sessions.
type SupabaseConfig struct {
	ProjectURL     string `mapstructure:"project_url"`
	AnonKey        string `mapstructure:"anon_key"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	JWTSecret      string `mapstructure:"jwt_secret"`
	// UseRPCKeyValidation validates API keys through the validate_api_key RPC
	// instead of querying api_keys directly.
	UseRPCKeyValidation bool `mapstructure:"use_rpc_key_validation"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis host is configured. Without it, rate limiting
// and the resync event bus are disabled.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// EmailConfig describes the outbound mail provider (Mailgun SMTP relay).
type EmailConfig struct {
	Domain   string `mapstructure:"domain"`
	APIKey   string `mapstructure:"api_key"`
	Region   string `mapstructure:"region"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}
