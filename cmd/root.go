package cmd

import (
	"github.com/spf13/cobra"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cropadvisor",
	Short: "Crop recommendation API server",
	Long:  "CropAdvisor scores soil and climate readings with a pre-trained forest model and keeps a per-user prediction history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(modelCmd)
}

// loadConfig 读取 --config 指定的配置并创建日志
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Config loaded", "mode", cfg.Server.Mode, "database_driver", cfg.Database.Driver)
	return cfg, log, nil
}
