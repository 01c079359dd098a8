package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/c360/taskql/errors"
)

// Environment variable names
const (
	EnvDBDriver         = "DB_DRIVER"
	EnvDBUser           = "DB_USER"
	EnvDBPassword       = "DB_PASSWORD"
	EnvDBHost           = "DB_HOST"
	EnvDBPort           = "DB_PORT"
	EnvDBDatabase       = "DB_DATABASE"
	EnvDBSSLMode        = "DB_SSLMODE"
	EnvDBPath           = "DB_PATH"
	EnvDBInitSchema     = "DB_INIT_SCHEMA"
	EnvDBConnectTimeout = "DB_CONNECT_TIMEOUT"

	EnvBindAddress   = "TASKQL_BIND_ADDRESS"
	EnvGraphQLPath   = "TASKQL_GRAPHQL_PATH"
	EnvPlayground    = "TASKQL_PLAYGROUND"
	EnvCORSOrigins   = "TASKQL_CORS_ORIGINS"
	EnvTimeout       = "TASKQL_TIMEOUT"
	EnvMaxQueryDepth = "TASKQL_MAX_QUERY_DEPTH"
	EnvRateLimit     = "TASKQL_RATE_LIMIT"
	EnvRateBurst     = "TASKQL_RATE_BURST"

	EnvNATSURL           = "NATS_URL"
	EnvNATSSubjectPrefix = "NATS_SUBJECT_PREFIX"
)

// Maximum environment variable value length
const maxEnvVarLen = 10000

// Load reads an optional dotenv file, overlays the process environment on the
// defaults and validates the result. A missing envFile is not an error.
// Variables already present in the environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapInvalid(err, "Config", "Load", "read env file "+envFile)
		}
	}

	cfg := Default()
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// envReader collects parse errors so that every bad variable is reported at once.
type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	val, ok := r.lookup(key)
	if !ok || val == "" {
		return "", false
	}
	if err := validateEnvVar(key, val); err != nil {
		r.errs = append(r.errs, err)
		return "", false
	}
	return val, true
}

func (r *envReader) str(key string, dst *string) {
	if val, ok := r.get(key); ok {
		*dst = val
	}
}

func (r *envReader) int(key string, dst *int) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, val))
		return
	}
	*dst = n
}

func (r *envReader) float(key string, dst *float64) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid number %q", key, val))
		return
	}
	*dst = f
}

func (r *envReader) bool(key string, dst *bool) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, val))
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, val))
		return
	}
	*dst = d
}

func (r *envReader) list(key string, dst *[]string) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

// applyEnv overlays environment variables on cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	r := &envReader{lookup: lookup}

	db := &cfg.Database
	r.str(EnvDBDriver, &db.Driver)
	r.str(EnvDBUser, &db.User)
	r.str(EnvDBPassword, &db.Password)
	r.str(EnvDBHost, &db.Host)
	r.int(EnvDBPort, &db.Port)
	r.str(EnvDBDatabase, &db.Database)
	r.str(EnvDBSSLMode, &db.SSLMode)
	r.str(EnvDBPath, &db.Path)
	r.bool(EnvDBInitSchema, &db.InitSchema)
	r.duration(EnvDBConnectTimeout, &db.ConnectTimeout)

	srv := &cfg.Server
	r.str(EnvBindAddress, &srv.BindAddress)
	r.str(EnvGraphQLPath, &srv.Path)
	r.bool(EnvPlayground, &srv.EnablePlayground)
	r.list(EnvCORSOrigins, &srv.CORSOrigins)
	r.str(EnvTimeout, &srv.TimeoutStr)
	r.int(EnvMaxQueryDepth, &srv.MaxQueryDepth)
	r.float(EnvRateLimit, &srv.RateLimit)
	r.int(EnvRateBurst, &srv.RateBurst)

	r.str(EnvNATSURL, &cfg.NATS.URL)
	r.str(EnvNATSSubjectPrefix, &cfg.NATS.SubjectPrefix)

	if len(r.errs) > 0 {
		return errors.WrapInvalid(stderrors.Join(r.errs...), "Config", "applyEnv", "parse environment")
	}
	return nil
}

// validateEnvVar does basic environment variable validation
func validateEnvVar(key, value string) error {
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("null byte in environment variable %s", key)
	}
	return nil
}
