package cmd

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/convodesk/convodesk/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "convodesk",
	Short: "Omnichannel WhatsApp messaging gateway",
	Long: `Convodesk bridges WhatsApp HTTP providers into one normalized
message stream: channel setup with QR pairing, webhook ingestion, and a
realtime socket for agent dashboards.`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringP("port", "p", "", "listen port, overrides APP_PORT | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose logging, overrides APP_DEBUG")
	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	viper.AutomaticEnv()

	time.Local = time.UTC

	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if port := viper.GetString("app_port"); port != "" {
		cfg.App.Port = port
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
