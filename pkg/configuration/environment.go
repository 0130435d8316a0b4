package configuration

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist and reports how many were found.
// Relative names are also looked up next to the enclosing go.mod, so
// commands run from a subdirectory still see the repository's .env.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	root := moduleRoot()
	for _, file := range envFiles {
		switch {
		case fs.FileExists(file):
			existingFiles = append(existingFiles, file)
		case root != "" && !filepath.IsAbs(file) && fs.FileExists(filepath.Join(root, file)):
			existingFiles = append(existingFiles, filepath.Join(root, file))
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"POSTGRES_AERIE_MERLIN_DB" envDefault:"aerie_merlin"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"aerie"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"aerie"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type GraphQLOptions struct {
	URL     string        `env:"GQL_API_URL" envDefault:"http://localhost:8080/v1/graphql"`
	Timeout time.Duration `env:"GQL_API_TIMEOUT" envDefault:"0s"`
}

func (g *GraphQLOptions) Validate() error {
	u, err := url.Parse(g.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GQL_API_URL must be an absolute URL, got %q", g.URL)
	}
	if g.Timeout < 0 {
		return fmt.Errorf("GQL_API_TIMEOUT must be non-negative, got %s", g.Timeout)
	}
	return nil
}

type AuthOptions struct {
	Type      string `env:"AUTH_TYPE" envDefault:"none"` // none or jwt
	JWTSecret string `env:"HASURA_GRAPHQL_JWT_SECRET"`
}

func (a *AuthOptions) Validate() error {
	switch a.Type {
	case "none":
	case "jwt":
		if a.JWTSecret == "" {
			return fmt.Errorf("HASURA_GRAPHQL_JWT_SECRET is required when AUTH_TYPE is 'jwt'")
		}
	default:
		return fmt.Errorf("AUTH_TYPE must be 'none' or 'jwt', got '%s'", a.Type)
	}
	return nil
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ExporterURL string `env:"OTEL_EXPORTER_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"aerie-gateway"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	FilesMax int           `env:"RATE_LIMITER_FILES_MAX" envDefault:"1000"`
	Window   time.Duration `env:"RATE_LIMITER_WINDOW" envDefault:"15m"`
	Storage  string        `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL string        `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.FilesMax < 0 {
		return fmt.Errorf("rate limit FilesMax must be non-negative, got %d", r.FilesMax)
	}
	if r.Window <= 0 {
		return fmt.Errorf("rate limit Window must be positive, got %s", r.Window)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

// OpsGuardOptions protects operational endpoints (metrics, import runs).
// Enforced only in production.
type OpsGuardOptions struct {
	Enabled       bool   `env:"OPS_GUARD_ENABLED" envDefault:"true"`
	CIDRs         string `env:"OPS_GUARD_CIDRS" envDefault:""`
	Token         string `env:"OPS_GUARD_TOKEN" envDefault:""`
	BasicAuthUser string `env:"OPS_GUARD_BASIC_AUTH_USER" envDefault:""`
	BasicAuthPass string `env:"OPS_GUARD_BASIC_AUTH_PASS" envDefault:""`
}

type ImportOptions struct {
	AnchorPolicy     string `env:"IMPORT_ANCHOR_POLICY" envDefault:"lenient"`         // lenient or strict
	SimulationPolicy string `env:"IMPORT_SIMULATION_POLICY" envDefault:"best_effort"` // best_effort or required
}

func (i *ImportOptions) Validate() error {
	if i.AnchorPolicy != "lenient" && i.AnchorPolicy != "strict" {
		return fmt.Errorf("IMPORT_ANCHOR_POLICY must be 'lenient' or 'strict', got '%s'", i.AnchorPolicy)
	}
	if i.SimulationPolicy != "best_effort" && i.SimulationPolicy != "required" {
		return fmt.Errorf("IMPORT_SIMULATION_POLICY must be 'best_effort' or 'required', got '%s'", i.SimulationPolicy)
	}
	return nil
}

type DatasetOptions struct {
	// ChunkBudgetBytes is the upstream request size ceiling for one extend
	// call. It is a deployment constant, never a request field.
	ChunkBudgetBytes int    `env:"DATASET_CHUNK_BUDGET_BYTES" envDefault:"1024"`
	CSVDelimiter     string `env:"DATASET_CSV_DELIMITER" envDefault:","`
	TimeColumn       string `env:"DATASET_TIME_COLUMN" envDefault:"time_utc"`
	TimeColumnMatch  string `env:"DATASET_TIME_COLUMN_MATCH" envDefault:"exact"` // exact or contains
	TimePrecision    int    `env:"DATASET_TIME_PRECISION" envDefault:"6"`
}

func (d *DatasetOptions) Validate() error {
	if d.ChunkBudgetBytes <= 0 {
		return fmt.Errorf("DATASET_CHUNK_BUDGET_BYTES must be positive, got %d", d.ChunkBudgetBytes)
	}
	if len([]rune(d.CSVDelimiter)) != 1 {
		return fmt.Errorf("DATASET_CSV_DELIMITER must be a single character, got %q", d.CSVDelimiter)
	}
	if strings.TrimSpace(d.TimeColumn) == "" {
		return fmt.Errorf("DATASET_TIME_COLUMN must not be empty")
	}
	if d.TimeColumnMatch != "exact" && d.TimeColumnMatch != "contains" {
		return fmt.Errorf("DATASET_TIME_COLUMN_MATCH must be 'exact' or 'contains', got '%s'", d.TimeColumnMatch)
	}
	if d.TimePrecision < 1 || d.TimePrecision > 9 {
		return fmt.Errorf("DATASET_TIME_PRECISION must be between 1 and 9, got %d", d.TimePrecision)
	}
	return nil
}

// Delimiter returns the CSV delimiter as a rune.
func (d *DatasetOptions) Delimiter() rune {
	return []rune(d.CSVDelimiter)[0]
}

type Configuration struct {
	Database      DatabaseOptions
	GraphQL       GraphQLOptions
	Auth          AuthOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	OpsGuard      OpsGuardOptions
	Import        ImportOptions
	Dataset       DatasetOptions

	ServerPort         int    `env:"PORT" envDefault:"9000"`
	GoAppEnvironment   string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress      string `env:"-"`
	Version            string `env:"VERSION" envDefault:"dev"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	MaxUploadMemory    int64  `env:"MAX_UPLOAD_MEMORY" envDefault:"33554432"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath            string `env:"LOG_PATH"`
	// RoutingAllowlistPath overrides the built-in route classes.
	RoutingAllowlistPath string `env:"ROUTING_ALLOWLIST_PATH"`
	// The gateway looks for this header in the request, if it's not present, it will generate a random uuidv4
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// The gateway looks for this header in the request, if it's not present, it will use request.RemoteAddr
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Configuration) AllowedOrigins() []string {
	var out []string
	for _, part := range strings.Split(c.CorsAllowedOrigins, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Use() *Configuration {
	return singleton()
}

// Load parses the environment without touching the singleton. Command line
// tools and tests use it directly.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	validators := []struct {
		name string
		fn   func() error
	}{
		{"graphql", c.GraphQL.Validate},
		{"auth", c.Auth.Validate},
		{"rate limit", c.RateLimit.Validate},
		{"import", c.Import.Validate},
		{"dataset", c.Dataset.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s configuration error: %w", v.name, err)
		}
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
