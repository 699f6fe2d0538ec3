package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Entornos reconocidos en APP_ENV.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Drivers de almacenamiento soportados en STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	Store     StoreConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	NATS      NATSConfig
	SMTP      SMTPConfig
	Slack     SlackConfig
	HubSpot   HubSpotConfig
	RateLimit RateLimitConfig
	Tenancy   TenancyConfig
	Notify    NotifyConfig
	Bootstrap BootstrapConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsProduction indica si la app corre en producción (validación estricta de variables).
func (c AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// StoreConfig selecciona el backend de persistencia.
// "memory" solo se admite fuera de producción (demo local y pruebas manuales).
type StoreConfig struct {
	Driver string
}

// JWTConfig configuración del token de sesión.
type JWTConfig struct {
	Secret        string
	Expiration    int // minutos
	RefreshWindow int // minutos antes del vencimiento en que se reemite el token
	Issuer        string
	CookieName    string
	CookieSecure  bool
}

// TTL duración total del token.
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.Expiration) * time.Minute
}

// Refresh ventana de renovación.
func (c JWTConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshWindow) * time.Minute
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión a Redis (rate limiting). Addr vacío = deshabilitado.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Enabled indica si Redis está configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// NATSConfig conexión a NATS (eventos de leads y sink de respaldo). URL vacía = deshabilitado.
// El sink de respaldo se guarda en el stream JetStream IntakeStream.
type NATSConfig struct {
	URL                 string
	Name                string
	SubjectPrefix       string
	IntakeStream        string
	IntakeRetentionDays int
}

// Enabled indica si NATS está configurado.
func (c NATSConfig) Enabled() bool { return c.URL != "" }

// IntakeRetention antigüedad máxima de los envíos en el stream de respaldo.
func (c NATSConfig) IntakeRetention() time.Duration {
	return time.Duration(c.IntakeRetentionDays) * 24 * time.Hour
}

// SMTPConfig transporte de correo para notificaciones.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string // buzón de ventas que recibe los avisos
}

// Enabled indica si el canal de correo está configurado.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.To != "" }

// SlackConfig webhook entrante de Slack.
type SlackConfig struct {
	WebhookURL string
}

// Enabled indica si el canal de chat está configurado.
func (c SlackConfig) Enabled() bool { return c.WebhookURL != "" }

// HubSpotConfig sincronización de contactos con el CRM.
type HubSpotConfig struct {
	AccessToken string
	BaseURL     string
}

// Enabled indica si la sincronización CRM está configurada.
func (c HubSpotConfig) Enabled() bool { return c.AccessToken != "" }

// RateLimitConfig umbrales del formulario público.
type RateLimitConfig struct {
	MaxRequests int
	WindowSecs  int
}

// Window duración de la ventana.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSecs) * time.Second
}

// TenancyConfig datos del tenant por defecto que recibe los leads del sitio público.
type TenancyConfig struct {
	DefaultTenantDomain string
}

// NotifyConfig límites del fan-out de notificaciones.
type NotifyConfig struct {
	TimeoutSecs int
}

// Timeout tiempo máximo por despacho.
func (c NotifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// BootstrapConfig datos iniciales que crea cmd/bootstrap: la agencia por defecto, su manager
// y el administrador de plataforma. Email vacío = no se crea ese usuario.
type BootstrapConfig struct {
	TenantName      string
	ManagerEmail    string
	ManagerPassword string
	AdminEmail      string
	AdminPassword   string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", EnvDevelopment),
			Name:     getString(v, "APP_NAME", "agencia-leads-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "agencia_leads"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		Store: StoreConfig{
			Driver: getString(v, "STORE_DRIVER", StorePostgres),
		},
		JWT: JWTConfig{
			Secret:        getString(v, "JWT_SECRET", ""),
			Expiration:    getInt(v, "JWT_EXPIRATION_MINUTES", 60*8),
			RefreshWindow: getInt(v, "SESSION_REFRESH_WINDOW_MINUTES", 30),
			Issuer:        getString(v, "JWT_ISSUER", "agencia-leads"),
			CookieName:    getString(v, "SESSION_COOKIE_NAME", "session"),
			CookieSecure:  getBool(v, "SESSION_COOKIE_SECURE", false),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			PoolSize: getInt(v, "REDIS_POOL_SIZE", 10),
		},
		NATS: NATSConfig{
			URL:                 getString(v, "NATS_URL", ""),
			Name:                getString(v, "NATS_CLIENT_NAME", "agencia-leads-api"),
			SubjectPrefix:       getString(v, "NATS_SUBJECT_PREFIX", "leads"),
			IntakeStream:        getString(v, "NATS_INTAKE_STREAM", "LEADS_INTAKE"),
			IntakeRetentionDays: getInt(v, "NATS_INTAKE_RETENTION_DAYS", 30),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "no-reply@localhost"),
			To:       getString(v, "SMTP_TO", ""),
		},
		Slack: SlackConfig{
			WebhookURL: getString(v, "SLACK_WEBHOOK_URL", ""),
		},
		HubSpot: HubSpotConfig{
			AccessToken: getString(v, "HUBSPOT_ACCESS_TOKEN", ""),
			BaseURL:     getString(v, "HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getInt(v, "RATE_LIMIT_MAX", 5),
			WindowSecs:  getInt(v, "RATE_LIMIT_WINDOW_SECONDS", 900),
		},
		Tenancy: TenancyConfig{
			DefaultTenantDomain: getString(v, "DEFAULT_TENANT_DOMAIN", ""),
		},
		Notify: NotifyConfig{
			TimeoutSecs: getInt(v, "NOTIFY_TIMEOUT_SECONDS", 5),
		},
		Bootstrap: BootstrapConfig{
			TenantName:      getString(v, "BOOTSTRAP_TENANT_NAME", "Agencia"),
			ManagerEmail:    getString(v, "BOOTSTRAP_MANAGER_EMAIL", ""),
			ManagerPassword: getString(v, "BOOTSTRAP_MANAGER_PASSWORD", ""),
			AdminEmail:      getString(v, "BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword:   getString(v, "BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}
}

// Validate revisa las variables obligatorias. En producción cualquier faltante es un error;
// en otros entornos se devuelven como advertencias para que el caller las registre.
func (c *Config) Validate() (warnings []string, err error) {
	var missing []string
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Store.Driver == StorePostgres && c.DB.DatabaseURL == "" && c.DB.Password == "" {
		missing = append(missing, "DATABASE_URL o DB_PASSWORD")
	}
	if c.Tenancy.DefaultTenantDomain == "" {
		missing = append(missing, "DEFAULT_TENANT_DOMAIN")
	}
	if c.Store.Driver != StorePostgres && c.Store.Driver != StoreMemory {
		missing = append(missing, "STORE_DRIVER (postgres|memory)")
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowSecs <= 0 {
		missing = append(missing, "RATE_LIMIT_MAX/RATE_LIMIT_WINDOW_SECONDS")
	}

	if c.App.IsProduction() {
		if c.Store.Driver == StoreMemory {
			missing = append(missing, "STORE_DRIVER=postgres")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("config: variables requeridas en producción: %s", strings.Join(missing, ", "))
		}
		return nil, nil
	}
	for _, m := range missing {
		warnings = append(warnings, "variable no configurada: "+m)
	}
	return warnings, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
