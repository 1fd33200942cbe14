package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultEnvFile        = ".env"
	DefaultBackupDir      = "storage/backups"
	DefaultDatabaseURL    = "sqlite:///hospital.db"
	DefaultUploadsDir     = "storage/uploads"
	DefaultIntervalHours  = 78
	DefaultKeepDays       = 30
	DefaultUploadsTimeout = 30 * time.Minute
	DefaultLocale         = "en"
	DefaultHTTPAddr       = ":3646"

	KeyBackupDir      = "BACKUP_DIR"
	KeyDatabaseURL    = "DATABASE_URL"
	KeyUploadsDir     = "UPLOAD_FOLDER"
	KeyIntervalHours  = "BACKUP_INTERVAL_HOURS"
	KeyKeepDays       = "BACKUP_KEEP_DAYS"
	KeyUploadsTimeout = "BACKUP_UPLOADS_TIMEOUT"
	KeyLocale         = "BACKUP_LOCALE"
	KeyDiagnostics    = "BACKUP_DIAGNOSTICS"

	sqlitePrefix       = "sqlite:///"
	fallbackDatabaseDB = "instance/hospital.db"
)

var validate = validator.New()

type (
	// BackupConfiguration is replaced as a whole whenever the schedule changes.
	BackupConfiguration struct {
		IntervalHours  int           `validate:"min=1,max=168"`
		KeepDays       int           `validate:"min=1,max=365"`
		BackupDir      string        `validate:"required"`
		DatabasePath   string        `validate:"required"`
		UploadsDir     string        `validate:"required"`
		UploadsTimeout time.Duration `validate:"gt=0"`
		Locale         string        `validate:"oneof=en th"`
		Diagnostics    bool
	}

	// OffsiteConfig selects where database artifacts are copied after a
	// backup: a directory (e.g. a mounted NAS share) or an S3 bucket.
	OffsiteConfig struct {
		Dir       string
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
		Bucket    string
		Secure    bool
	}

	Config struct {
		Backup   BackupConfiguration
		Offsite  OffsiteConfig
		HTTPAddr string
		Mode     string
		EnvFile  string
	}

	// Holder keeps the process-wide backup configuration.
	Holder struct {
		current atomic.Pointer[BackupConfiguration]
	}
)

func New() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	return Load(envFile)
}

// Load reads the configuration from the process environment, with values
// from envFile taking precedence. A missing env file is not an error.
func Load(envFile string) (Config, error) {
	values := map[string]string{}
	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "failed to read env file: "+envFile)
		}
		for k, v := range fromFile {
			values[k] = v
		}
	}

	lookup := func(key, def string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	interval, err := strconv.Atoi(lookup(KeyIntervalHours, strconv.Itoa(DefaultIntervalHours)))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid "+KeyIntervalHours)
	}

	keepDays, err := strconv.Atoi(lookup(KeyKeepDays, strconv.Itoa(DefaultKeepDays)))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid "+KeyKeepDays)
	}

	timeout, err := time.ParseDuration(lookup(KeyUploadsTimeout, DefaultUploadsTimeout.String()))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid "+KeyUploadsTimeout)
	}

	cfg := Config{
		Backup: BackupConfiguration{
			IntervalHours:  interval,
			KeepDays:       keepDays,
			BackupDir:      lookup(KeyBackupDir, DefaultBackupDir),
			DatabasePath:   DatabasePathFromURL(lookup(KeyDatabaseURL, DefaultDatabaseURL)),
			UploadsDir:     lookup(KeyUploadsDir, DefaultUploadsDir),
			UploadsTimeout: timeout,
			Locale:         strings.ToLower(lookup(KeyLocale, DefaultLocale)),
			Diagnostics:    parseBool(lookup(KeyDiagnostics, "false")),
		},
		Offsite: OffsiteConfig{
			Dir:       lookup("OFFSITE_DIR", ""),
			Endpoint:  lookup("OFFSITE_ENDPOINT", ""),
			AccessKey: lookup("OFFSITE_ACCESS_KEY", ""),
			SecretKey: lookup("OFFSITE_SECRET_KEY", ""),
			Region:    lookup("OFFSITE_REGION", ""),
			Bucket:    lookup("OFFSITE_BUCKET", "backups"),
			Secure:    parseBool(lookup("OFFSITE_SECURE", "false")),
		},
		HTTPAddr: lookup("HTTP_ADDR", DefaultHTTPAddr),
		Mode:     lookup("APP_MODE", "development"),
		EnvFile:  envFile,
	}

	if err := cfg.Backup.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DatabasePathFromURL strips the sqlite URL scheme. When the resulting file
// does not exist but instance/hospital.db does, the latter is used.
func DatabasePathFromURL(url string) string {
	path := strings.TrimPrefix(url, sqlitePrefix)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := os.Stat(fallbackDatabaseDB); err == nil {
			return fallbackDatabaseDB
		}
	}
	return path
}

func (c BackupConfiguration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid backup configuration")
	}
	return nil
}

// WithSchedule returns a copy of c carrying the new interval and retention.
func (c BackupConfiguration) WithSchedule(intervalHours, keepDays int) BackupConfiguration {
	c.IntervalHours = intervalHours
	c.KeepDays = keepDays
	return c
}

func (c BackupConfiguration) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

func (o OffsiteConfig) Enabled() bool {
	return o.Dir != "" || o.S3Enabled()
}

func (o OffsiteConfig) S3Enabled() bool {
	return o.Endpoint != "" && o.AccessKey != "" && o.SecretKey != ""
}

func NewHolder(c BackupConfiguration) *Holder {
	h := &Holder{}
	h.Set(c)
	return h
}

func (h *Holder) Get() BackupConfiguration {
	return *h.current.Load()
}

func (h *Holder) Set(c BackupConfiguration) {
	h.current.Store(&c)
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
