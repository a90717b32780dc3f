package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fletcherctl",
	Short: "Fletcherctl is a command line tool for interacting with the Fletcher platform",
	Long: `fletcherctl is the command-line interface for Fletcher, the data-pipeline
orchestrator that tracks dataset plans as DAGs of data products and drives
them to completion across CAMS and DBXaaS.

Common workflows:

  Submit a plan:
    fletcherctl plan submit --file plan.json

  Fetch a plan:
    fletcherctl plan get <dataset_id>

  Search plans by data product name:
    fletcherctl plan search --name nightly_etl

  Pause or unpause a dataset:
    fletcherctl plan pause <dataset_id>
    fletcherctl plan unpause <dataset_id>

  Report data product outcomes:
    fletcherctl dataproduct update --file updates.json <dataset_id>

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    FLETCHER_URL      API endpoint (default: http://localhost:6161)
    FLETCHER_TOKEN    Access token for authentication, obtained via 'fletcherctl login'

For more information, visit: https://github.com/faranjit/fletcher`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fletcherctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".fletcherctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FLETCHER_VARNAME"
	viper.SetEnvPrefix("FLETCHER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fletcherctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "Fletcher Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Access token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
