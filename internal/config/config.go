// Package config reads the scan desk configuration from the environment.
//
// Every setting has a default. A variable that is set but cannot be parsed is
// an error, as is a value outside its allowed range; Load reports all of them
// at once, named by environment variable.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/go-playground/validator/v10"
)

// Supported record store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBConfig selects and tunes the record store.
type DBConfig struct {
	Driver  string        `env:"DB_DRIVER" validate:"oneof=sqlite postgres"`
	Path    string        `env:"DB_PATH" validate:"required_if=Driver sqlite"`
	DSN     string        `env:"DATABASE_URL" validate:"required_if=Driver postgres"`
	Timeout time.Duration `env:"STORE_TIMEOUT" validate:"gt=0"`
	Tracing bool          `env:"-"` // follows OTEL_ENABLED
}

// CarrierConfig controls carrier classification.
type CarrierConfig struct {
	RulesPath     string `env:"CARRIER_RULES_PATH"` // YAML; empty uses built-in rules
	EnableMinutos bool   `env:"ENABLE_99MINUTOS"`
}

// ManifestConfig controls manifest rendering and archiving.
type ManifestConfig struct {
	LogoPath     string `env:"MANIFEST_LOGO_PATH"`
	Bucket       string `env:"MANIFEST_BUCKET"` // empty disables archiving
	BucketPrefix string `env:"MANIFEST_BUCKET_PREFIX"`
	Collector    string `env:"MANIFEST_COLLECTOR"`
	Plate        string `env:"MANIFEST_PLATE"`
}

// CORSConfig lists the browser origins allowed to call the API. Empty allows
// any origin.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" validate:"gte=0"`
}

// OTELConfig controls trace export.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" validate:"required"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
}

// Config is the full application configuration.
type Config struct {
	Port              string        `env:"PORT" validate:"required"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" validate:"gt=0"`
	GinMode           string        `env:"GIN_MODE"` // debug|release|test, anything else is release

	LogLevel       string `env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal panic"`
	LogPretty      bool   `env:"LOG_PRETTY"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED"`
	APIBasePath    string `env:"API_BASE_PATH"`

	DB DBConfig

	// Timezone decides which date "today" is.
	Timezone string         `env:"TIMEZONE" validate:"required,timezone"`
	Location *time.Location `env:"-"`
	Carrier  CarrierConfig
	Manifest ManifestConfig
	MaxBatch int `env:"MAX_BATCH_LINES" validate:"gte=1"`

	RateRPS   float64 `env:"RATE_RPS" validate:"gte=0"`
	RateBurst int     `env:"RATE_BURST" validate:"gte=1"`

	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" validate:"gt=0"`

	OTEL OTELConfig
}

// MustLoad is Load for program start-up; it panics on error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds the configuration from the environment.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              strings.TrimSpace(e.str("PORT", "8080")),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(e.str("GIN_MODE", "release")),

		LogLevel:       logLevel(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.bool("LOG_PRETTY", false),
		SwaggerEnabled: e.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api")),

		DB: DBConfig{
			Driver:  dbDriver(e.str("DB_DRIVER", DriverSQLite)),
			Path:    strings.TrimSpace(e.str("DB_PATH", "guias.db")),
			DSN:     strings.TrimSpace(e.str("DATABASE_URL", "")),
			Timeout: e.dur("STORE_TIMEOUT", 5*time.Second),
		},

		Timezone: e.str("TIMEZONE", "America/Bogota"),
		Carrier: CarrierConfig{
			RulesPath:     e.str("CARRIER_RULES_PATH", ""),
			EnableMinutos: e.bool("ENABLE_99MINUTOS", false),
		},
		Manifest: ManifestConfig{
			LogoPath:     e.str("MANIFEST_LOGO_PATH", ""),
			Bucket:       e.str("MANIFEST_BUCKET", ""),
			BucketPrefix: e.str("MANIFEST_BUCKET_PREFIX", "manifiestos"),
			Collector:    e.str("MANIFEST_COLLECTOR", ""),
			Plate:        e.str("MANIFEST_PLATE", ""),
		},
		MaxBatch: e.int("MAX_BATCH_LINES", 5000),

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.int("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.bool("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.bool("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-guias-backend"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.DB.Tracing = cfg.OTEL.Enabled

	if err := errors.Join(e.errs, validate(cfg)); err != nil {
		return cfg, err
	}
	cfg.Location, _ = time.LoadLocation(cfg.Timezone)
	return cfg, nil
}

var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// validate checks the range rules in the struct tags and reports each
// failure by environment variable name.
func validate(cfg Config) error {
	err := configValidator.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Errorf("%s %s", fe.Field(), rule(fe)))
	}
	return errors.Join(out...)
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "timezone":
		return fmt.Sprintf("%q is not a known time zone", fe.Value())
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "fails " + fe.Tag()
	}
}

func ginMode(s string) string {
	switch s = strings.ToLower(s); s {
	case "debug", "release", "test":
		return s
	}
	return "release"
}

func logLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return "warn"
	}
	return s
}

func dbDriver(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "postgresql", "pgx":
		return DriverPostgres
	}
	return s
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash;
// blank is "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
