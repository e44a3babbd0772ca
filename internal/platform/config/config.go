package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/localmandi/storefront/internal/platform/textutil"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultStateDir     = ".storefront"
	defaultSlotName     = "bag"
	defaultProductsFile = "products.json"
	defaultContentDir   = "content"

	defaultRebroadcastDelay  = 50 * time.Millisecond
	defaultPanelPollInterval = 200 * time.Millisecond
	defaultBadgeTickInterval = time.Second
	defaultPanelRecheckDelay = 100 * time.Millisecond

	defaultOrdersTimeout = 30 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	State   StateConfig
	Cart    CartConfig
	Orders  OrdersConfig
	Session SessionConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StateConfig locates the per-device state the storefront persists.
type StateConfig struct {
	Dir          string
	SlotName     string
	ProductsFile string
	ContentDir   string
}

// CartConfig controls the cart synchronization timings.
type CartConfig struct {
	RebroadcastDelay  time.Duration
	PanelPollInterval time.Duration
	BadgeTickInterval time.Duration
	PanelRecheckDelay time.Duration
}

// OrdersConfig points at the remote cart/order API.
type OrdersConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig carries the shared secret used to verify shopper session tokens.
type SessionConfig struct {
	Secret string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables. Keys and values are trimmed.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = textutil.NormalizeEnvMap(values)
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		State: StateConfig{
			Dir:          stringWithDefault(lookup, "STOREFRONT_STATE_DIR", defaultStateDir),
			SlotName:     stringWithDefault(lookup, "STOREFRONT_STATE_SLOT", defaultSlotName),
			ProductsFile: stringWithDefault(lookup, "STOREFRONT_STATE_PRODUCTS_FILE", defaultProductsFile),
			ContentDir:   stringWithDefault(lookup, "STOREFRONT_STATE_CONTENT_DIR", defaultContentDir),
		},
		Cart: CartConfig{
			RebroadcastDelay:  durationWithDefault(lookup, "STOREFRONT_CART_REBROADCAST_DELAY", defaultRebroadcastDelay),
			PanelPollInterval: durationWithDefault(lookup, "STOREFRONT_CART_PANEL_POLL_INTERVAL", defaultPanelPollInterval),
			BadgeTickInterval: durationWithDefault(lookup, "STOREFRONT_CART_BADGE_TICK_INTERVAL", defaultBadgeTickInterval),
			PanelRecheckDelay: durationWithDefault(lookup, "STOREFRONT_CART_PANEL_RECHECK_DELAY", defaultPanelRecheckDelay),
		},
		Orders: OrdersConfig{
			BaseURL: stringWithDefault(lookup, "STOREFRONT_ORDERS_BASE_URL", ""),
			Timeout: durationWithDefault(lookup, "STOREFRONT_ORDERS_TIMEOUT", defaultOrdersTimeout),
		},
		Session: SessionConfig{
			Secret: stringWithDefault(lookup, "STOREFRONT_SESSION_SECRET", ""),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.State.Dir) == "" {
		missing = append(missing, "State.Dir")
	}
	if strings.TrimSpace(cfg.State.SlotName) == "" {
		missing = append(missing, "State.SlotName")
	}
	if cfg.Cart.RebroadcastDelay < 0 {
		missing = append(missing, "Cart.RebroadcastDelay")
	}
	if cfg.Cart.PanelPollInterval <= 0 {
		missing = append(missing, "Cart.PanelPollInterval")
	}
	if cfg.Cart.BadgeTickInterval <= 0 {
		missing = append(missing, "Cart.BadgeTickInterval")
	}
	if cfg.Orders.Timeout <= 0 {
		missing = append(missing, "Orders.Timeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
