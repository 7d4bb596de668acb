package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig
	Redis    RedisConfig
	Winback  WinbackConfig

	// TenantsPath points at the tenant directory file (JSON).
	TenantsPath string

	// TZOffsetHours shifts UTC into the cafes' local civil time.
	TZOffsetHours int
}

type TelegramConfig struct {
	Token       string
	NotifyToken string // separate bot for admin/staff notifications; falls back to Token
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type WinbackConfig struct {
	Interval     time.Duration
	WindowStart  int // local hour, inclusive
	WindowEnd    int // local hour, exclusive
	CycleDays    int
	CooldownDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	tz, _ := strconv.Atoi(getEnv("TZ_OFFSET_HOURS", "3"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		Telegram: TelegramConfig{
			Token:       getEnv("BOT_TOKEN", ""),
			NotifyToken: getEnv("NOTIFY_TOKEN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Winback: WinbackConfig{
			Interval:     6 * time.Hour,
			WindowStart:  10,
			WindowEnd:    20,
			CycleDays:    7,
			CooldownDays: 14,
		},
		TenantsPath:   getEnv("TENANTS_PATH", "tenants.json"),
		TZOffsetHours: tz,
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TenantFile is the static tenant directory as stored on disk.
type TenantFile struct {
	DefaultCafeID string                   `mapstructure:"default_cafe_id"`
	SuperadminID  int64                    `mapstructure:"superadmin_id"`
	ChatsToCafe   map[string]string        `mapstructure:"chats_to_cafe"`
	Cafes         map[string]TenantEntry   `mapstructure:"cafes"`
}

type TenantEntry struct {
	Title             string           `mapstructure:"title"`
	Phone             string           `mapstructure:"phone"`
	Address           string           `mapstructure:"address"`
	AdminID           int64            `mapstructure:"admin_id"`
	WorkStart         int              `mapstructure:"work_start"`
	WorkEnd           int              `mapstructure:"work_end"`
	RateLimitSeconds  int              `mapstructure:"rate_limit_seconds"`
	OrdersEnabled     *bool            `mapstructure:"orders_enabled"`
	BookingEnabled    *bool            `mapstructure:"booking_enabled"`
	BookingWhenClosed *bool            `mapstructure:"booking_when_closed"`
	StaffNotify       *bool            `mapstructure:"staff_notify"`
	Menu              map[string]int64 `mapstructure:"menu"`
}

// LoadTenants reads the tenant directory file. At least one cafe is required;
// default_cafe_id falls back to any cafe when unset.
func LoadTenants(path string) (*TenantFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}

	var tf TenantFile
	if err := v.Unmarshal(&tf); err != nil {
		return nil, fmt.Errorf("unmarshal tenants file: %w", err)
	}
	if len(tf.Cafes) == 0 {
		return nil, fmt.Errorf("tenants file %s has no cafes", path)
	}
	if _, ok := tf.Cafes[tf.DefaultCafeID]; !ok {
		for id := range tf.Cafes {
			tf.DefaultCafeID = id
			break
		}
	}
	return &tf, nil
}
