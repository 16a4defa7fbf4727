package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/escrow/internal/bookingapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfigFile     = "config"
	flagListenAddr     = "listen-addr"
	flagEscrowAddr     = "escrow-addr"
	flagEscrowInsecure = "escrow-insecure"
	flagEscrowTimeout  = "escrow-timeout"
	flagAllowedOrigins = "allowed-origins"
	flagJWTSigningKey  = "jwt-signing-key"
	flagJWTIssuer      = "jwt-issuer"
	flagJWTCookieName  = "jwt-cookie-name"
	flagTAuthBaseURL   = "tauth-base-url"
	envPrefix          = "BOOKINGAPI"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bookingapi: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := bookingapi.Config{}
	cmd := &cobra.Command{
		Use:           "bookingapi",
		Short:         "HTTP façade for the escrow booking ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return bookingapi.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagConfigFile, "", "optional YAML config file")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagEscrowAddr, "", "escrowd gRPC address")
	cmd.Flags().Bool(flagEscrowInsecure, false, "connect to escrowd without TLS")
	cmd.Flags().Duration(flagEscrowTimeout, 0, "escrow RPC timeout (e.g. 3s)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "TAuth JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "expected JWT issuer")
	cmd.Flags().String(flagJWTCookieName, "", "JWT cookie name")
	cmd.Flags().String(flagTAuthBaseURL, "", "base URL of TAuth")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *bookingapi.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagConfigFile, flagListenAddr, flagEscrowAddr, flagEscrowInsecure, flagEscrowTimeout, flagAllowedOrigins, flagJWTSigningKey, flagJWTIssuer, flagJWTCookieName, flagTAuthBaseURL} {
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

	if v.GetString(flagJWTSigningKey) == "" {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.EscrowAddress = strings.TrimSpace(v.GetString(flagEscrowAddr))
	cfg.EscrowInsecure = v.GetBool(flagEscrowInsecure)
	cfg.EscrowTimeout = v.GetDuration(flagEscrowTimeout)
	cfg.AllowedOrigins = bookingapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SessionSigningKey = v.GetString(flagJWTSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.SessionCookieName = strings.TrimSpace(v.GetString(flagJWTCookieName))
	cfg.TAuthBaseURL = strings.TrimSpace(v.GetString(flagTAuthBaseURL))

	return cfg.Validate()
}
