package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
	DatabaseDriverMongo  DatabaseDriver = "mongo"
)

type EmailProvider string

const (
	EmailProviderSMTP     EmailProvider = "smtp"
	EmailProviderSendGrid EmailProvider = "sendgrid"
)

// Config holds the configuration for the Mealshare server and its dependencies.
type Config struct {
	// Listen is the address the Mealshare server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the Mealshare server, used in emails.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign and encrypt session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the absolute lifetime of a login session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks session cookies as Secure (HTTPS only).
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// Admins lists the usernames that get admin privileges on login.
	Admins []string `yaml:"admins" mapstructure:"admins"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the recipe cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Email holds the outgoing email configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Newsletter holds the newsletter configuration.
	Newsletter *NewsletterConfig `yaml:"newsletter" mapstructure:"newsletter"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Defaults holds fallback values for optional form fields.
	Defaults *DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
	// Images holds the configuration of the recipe thumbnail cache.
	Images *ImagesConfig `yaml:"images" mapstructure:"images"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver selects the storage backend ("sqlite" or "mongo").
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// MongoURI is the MongoDB connection string.
	MongoURI string `yaml:"mongo_uri" mapstructure:"mongo_uri"`
	// MongoDatabase is the name of the MongoDB database.
	MongoDatabase string `yaml:"mongo_database" mapstructure:"mongo_database"`
}

// CacheConfig holds the configuration for the recipe cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is the lifetime of cached entries in seconds.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
}

// EmailConfig holds the outgoing email configuration.
type EmailConfig struct {
	// Enabled indicates whether emails are sent at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Provider selects how emails are delivered ("smtp" or "sendgrid").
	Provider EmailProvider `yaml:"provider" mapstructure:"provider"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// SendGridAPIKey is the API key used with the sendgrid provider.
	SendGridAPIKey string `yaml:"sendgrid_api_key" mapstructure:"sendgrid_api_key"`
	// FromEmail is the email address from which emails are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the display name from which emails are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use implicit TLS for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// NewsletterConfig holds the newsletter configuration.
type NewsletterConfig struct {
	// Enabled indicates whether the digest job is scheduled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Schedule is the cron schedule of the digest job.
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
	// LookbackDays is how far back the digest looks for new recipes.
	LookbackDays int `yaml:"lookback_days" mapstructure:"lookback_days"`
	// WelcomeEmail sends a welcome email to new subscribers.
	WelcomeEmail bool `yaml:"welcome_email" mapstructure:"welcome_email"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// DefaultsConfig holds fallback values for optional form fields.
type DefaultsConfig struct {
	// RecipeImage is used when a recipe is stored without an image URL.
	RecipeImage string `yaml:"recipe_image" mapstructure:"recipe_image"`
	// ProfileImage is used when a user has no profile picture.
	ProfileImage string `yaml:"profile_image" mapstructure:"profile_image"`
	// Recommendation is used when a recipe is stored without a recommendation.
	Recommendation string `yaml:"recommendation" mapstructure:"recommendation"`
}

// ImagesConfig holds the configuration of the recipe thumbnail cache.
type ImagesConfig struct {
	// Enabled indicates whether remote recipe images are downloaded, scaled and served locally.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// CacheDir is the directory the scaled images are stored in.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	// MaxWidth is the maximum width of a thumbnail in pixels.
	MaxWidth int `yaml:"max_width" mapstructure:"max_width"`
	// MaxHeight is the maximum height of a thumbnail in pixels.
	MaxHeight int `yaml:"max_height" mapstructure:"max_height"`
	// Quality is the JPEG quality of thumbnails (1-100).
	Quality int `yaml:"quality" mapstructure:"quality"`
	// MaxAgeDays is how long a thumbnail is kept before it is downloaded again.
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
	// MaxDiskUsagePercent stops caching new thumbnails once the disk holding
	// CacheDir is fuller than this. 0 disables the check.
	MaxDiskUsagePercent float64 `yaml:"max_disk_usage_percent" mapstructure:"max_disk_usage_percent"`
	// MaxPixels is the largest source image (width times height) that is decoded.
	MaxPixels int `yaml:"max_pixels" mapstructure:"max_pixels"`
	// AllowPrivateNetworks allows downloading images from loopback, private and
	// link-local addresses. Only enable this when every recipe author is trusted.
	AllowPrivateNetworks bool `yaml:"allow_private_networks" mapstructure:"allow_private_networks"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("MEALSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mealshare")
		v.AddConfigPath("/etc/mealshare")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("session_max_age", 7200) // 2 hours
	v.SetDefault("secure_cookies", false)
	v.SetDefault("admins", []string{})

	// Database defaults
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/mealshare.db")
	v.SetDefault("database.mongo_database", "mealshare")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 300)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.provider", EmailProviderSMTP)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_name", "Mealshare")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	// Newsletter defaults
	v.SetDefault("newsletter.enabled", false)
	v.SetDefault("newsletter.schedule", "0 9 * * 1") // Mondays at 9am
	v.SetDefault("newsletter.lookback_days", 7)
	v.SetDefault("newsletter.welcome_email", true)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "mp")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 200)

	// Form defaults
	v.SetDefault("defaults.recipe_image", "/static/images/default-recipe-image.svg")
	v.SetDefault("defaults.profile_image", "/static/images/default-profile-picture.svg")
	v.SetDefault("defaults.recommendation", "No recommendations yet, be the first to try it!")

	// Image cache defaults
	v.SetDefault("images.enabled", false)
	v.SetDefault("images.cache_dir", "./data/cache/images")
	v.SetDefault("images.max_width", 480)
	v.SetDefault("images.max_height", 360)
	v.SetDefault("images.quality", 85)
	v.SetDefault("images.max_age_days", 7)
	v.SetDefault("images.max_disk_usage_percent", 90)
	v.SetDefault("images.max_pixels", 40_000_000)
	v.SetDefault("images.allow_private_networks", false)
}

// bindNestedEnv binds env vars that AutomaticEnv can't pick up on its own,
// including the variable names used by older deployments.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("session_key", "MEALSHARE_SESSION_KEY", "SECRET_KEY")
	v.MustBindEnv("database.mongo_uri", "MEALSHARE_DATABASE_MONGO_URI", "MONGO_URI")
	v.MustBindEnv("database.mongo_database", "MEALSHARE_DATABASE_MONGO_DATABASE", "MONGO_DBNAME")
	v.MustBindEnv("email.sendgrid_api_key", "MEALSHARE_EMAIL_SENDGRID_API_KEY", "SENDGRID_API_KEY")
	v.MustBindEnv("email.from_email", "MEALSHARE_EMAIL_FROM_EMAIL")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing mealshare config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseDriverMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("mongo URI is required when using mongo")
		}
		if c.Database.MongoDatabase == "" {
			return fmt.Errorf("mongo database name is required when using mongo")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
			TTL:  300,
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
		switch c.Email.Provider {
		case EmailProviderSMTP:
			if c.Email.SMTPHost == "" {
				return fmt.Errorf("SMTP host is required when using the smtp provider")
			}
		case EmailProviderSendGrid:
			if c.Email.SendGridAPIKey == "" {
				return fmt.Errorf("sendgrid API key is required when using the sendgrid provider")
			}
		default:
			return fmt.Errorf("unknown email provider %q", c.Email.Provider)
		}
	}

	if c.Newsletter != nil && c.Newsletter.Enabled {
		// Basic validation for cron format (5 fields)
		if len(strings.Fields(c.Newsletter.Schedule)) != 5 {
			return fmt.Errorf("newsletter schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
		if c.Newsletter.LookbackDays <= 0 {
			return fmt.Errorf("newsletter lookback days must be greater than 0")
		}
	}

	if c.Defaults == nil {
		c.Defaults = &DefaultsConfig{}
	}

	if c.Images != nil && c.Images.Enabled {
		if c.Images.CacheDir == "" {
			return fmt.Errorf("image cache directory is required when the image cache is enabled")
		}
		if c.Images.MaxWidth <= 0 || c.Images.MaxHeight <= 0 {
			return fmt.Errorf("image max width and height must be greater than 0")
		}
		if c.Images.Quality < 1 || c.Images.Quality > 100 {
			return fmt.Errorf("image quality must be between 1 and 100")
		}
		if c.Images.MaxDiskUsagePercent < 0 || c.Images.MaxDiskUsagePercent > 100 {
			return fmt.Errorf("image max disk usage percent must be between 0 and 100")
		}
		if c.Images.MaxPixels < 0 {
			return fmt.Errorf("image max pixels must not be negative")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	for i, admin := range c.Admins {
		c.Admins[i] = strings.ToLower(strings.TrimSpace(admin))
	}

	if c.Email != nil {
		c.Email.FromEmail = strings.TrimSpace(c.Email.FromEmail)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// IsAdmin reports whether the given username is configured as an admin.
func (c *Config) IsAdmin(username string) bool {
	if c == nil {
		return false
	}
	username = strings.ToLower(username)
	for _, admin := range c.Admins {
		if admin == username {
			return true
		}
	}
	return false
}

// GetCacheTTLSeconds returns the cache TTL with proper defaults.
func (c *CacheConfig) GetCacheTTLSeconds() int {
	if c == nil || c.TTL <= 0 {
		return 300 // Default to 5 minutes
	}
	return c.TTL
}

// GetMaxAge returns how long thumbnails are kept, with proper defaults.
func (c *ImagesConfig) GetMaxAge() time.Duration {
	if c == nil || c.MaxAgeDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// GetLookbackDays returns the digest lookback window with proper defaults.
func (c *NewsletterConfig) GetLookbackDays() int {
	if c == nil || c.LookbackDays <= 0 {
		return 7
	}
	return c.LookbackDays
}
