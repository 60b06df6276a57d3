package main

import (
	"fmt"
	"os"

	"heating_curve/internal/config"

	"github.com/spf13/cobra"
)

// @title           Heating Curve API
// @version         1.0
// @description     Flow temperature from outdoor temperature, with tile adjustments and actuator sync.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

var configDirs []string

var rootCmd = &cobra.Command{
	Use:          "heating-curve",
	Short:        "Heating curve engine",
	Long:         "Computes the heating circuit flow temperature from the outdoor temperature and keeps the actuator variable in sync.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configDirs, "config", []string{"configs", "."}, "directories searched for config.yml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evalCmd)
}

func newLoader() *config.Loader {
	return config.NewLoader(configDirs...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
