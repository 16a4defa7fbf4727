package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfigFile     = "config"
	flagDatabaseURL    = "database-url"
	flagStoreBackend   = "store"
	flagListenAddr     = "listen-addr"
	flagPlatformParty  = "platform-party"
	flagRecordRent     = "record-rent"
	flagKafkaBrokers   = "kafka-brokers"
	flagKafkaTopic     = "kafka-topic"
	flagAMQPURL        = "amqp-url"
	flagAMQPQueue      = "amqp-queue"
	flagRedisAddr      = "redis-addr"
	flagRedisPassword  = "redis-password"
	flagRedisDB        = "redis-db"
	flagRedisTTL       = "redis-ttl"
	envPrefix          = "ESCROWD"
	storeBackendGORM   = "gorm"
	storeBackendPGX    = "pgx"
	defaultDatabaseURL = "sqlite:///tmp/escrow.db"
	defaultListenAddr  = ":7000"
	defaultPlatform    = "platform"
	defaultRedisTTL    = 5 * time.Minute
)

type runtimeConfig struct {
	DatabaseURL   string
	StoreBackend  string
	ListenAddr    string
	PlatformParty string
	RecordRent    uint64
	KafkaBrokers  []string
	KafkaTopic    string
	AMQPURL       string
	AMQPQueue     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "escrowd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "escrowd",
		Short:         "Escrow booking ledger gRPC server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagConfigFile, "", "optional YAML config file")
	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "database URL (postgres://, mysql://, sqlite://, or a sqlite path)")
	cmd.Flags().String(flagStoreBackend, storeBackendGORM, "store backend: gorm or pgx (postgres only)")
	cmd.Flags().String(flagListenAddr, defaultListenAddr, "gRPC listen address")
	cmd.Flags().String(flagPlatformParty, defaultPlatform, "party credited with platform fees")
	cmd.Flags().Uint64(flagRecordRent, 0, "storage deposit charged per booking record and returned on close")
	cmd.Flags().String(flagKafkaBrokers, "", "comma-separated Kafka brokers for booking events")
	cmd.Flags().String(flagKafkaTopic, "escrow.bookings", "Kafka topic for booking events")
	cmd.Flags().String(flagAMQPURL, "", "RabbitMQ URL for booking events")
	cmd.Flags().String(flagAMQPQueue, "escrow.bookings", "RabbitMQ queue for booking events")
	cmd.Flags().String(flagRedisAddr, "", "Redis address for the booking cache")
	cmd.Flags().String(flagRedisPassword, "", "Redis password")
	cmd.Flags().Int(flagRedisDB, 0, "Redis database index")
	cmd.Flags().Duration(flagRedisTTL, defaultRedisTTL, "booking cache TTL")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(flagDatabaseURL, envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return err
	}
	for _, flagName := range []string{
		flagConfigFile, flagDatabaseURL, flagStoreBackend, flagListenAddr, flagPlatformParty, flagRecordRent,
		flagKafkaBrokers, flagKafkaTopic, flagAMQPURL, flagAMQPQueue,
		flagRedisAddr, flagRedisPassword, flagRedisDB, flagRedisTTL,
	} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	if configFile := strings.TrimSpace(v.GetString(flagConfigFile)); configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(v.GetString(flagStoreBackend)))
	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.PlatformParty = strings.TrimSpace(v.GetString(flagPlatformParty))
	cfg.RecordRent = v.GetUint64(flagRecordRent)
	cfg.KafkaBrokers = splitList(v.GetString(flagKafkaBrokers))
	cfg.KafkaTopic = strings.TrimSpace(v.GetString(flagKafkaTopic))
	cfg.AMQPURL = strings.TrimSpace(v.GetString(flagAMQPURL))
	cfg.AMQPQueue = strings.TrimSpace(v.GetString(flagAMQPQueue))
	cfg.RedisAddr = strings.TrimSpace(v.GetString(flagRedisAddr))
	cfg.RedisPassword = v.GetString(flagRedisPassword)
	cfg.RedisDB = v.GetInt(flagRedisDB)
	cfg.RedisTTL = v.GetDuration(flagRedisTTL)

	return cfg.Validate()
}

// Validate fills defaults and rejects contradictory settings.
func (cfg *runtimeConfig) Validate() error {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.PlatformParty == "" {
		cfg.PlatformParty = defaultPlatform
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = storeBackendGORM
	}
	if cfg.RedisTTL <= 0 {
		cfg.RedisTTL = defaultRedisTTL
	}
	switch cfg.StoreBackend {
	case storeBackendGORM:
	case storeBackendPGX:
		if !isPostgresURL(cfg.DatabaseURL) {
			return fmt.Errorf("%s backend requires a postgres database url", storeBackendPGX)
		}
	default:
		return fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.AMQPURL != "" {
		return fmt.Errorf("configure either %s or %s, not both", flagKafkaBrokers, flagAMQPURL)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
