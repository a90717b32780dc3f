package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange a service key for an access token",
	Long: `Login calls POST /api/authenticate with a service name and key, and
prints the issued access token. Export the printed token as
FLETCHER_TOKEN, or pass it to subsequent commands with --token.

Example:
  fletcherctl login --service cams --key $CAMS_SERVICE_KEY`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")

		service, _ := cmd.Flags().GetString("service")
		key, _ := cmd.Flags().GetString("key")
		if service == "" || key == "" {
			cmd.Println("Error: --service and --key are required")
			return
		}

		client := NewFletcherClient(url, "")
		result, err := client.Authenticate(service, key)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("access token (expires in %ds): %s\n", result.TTL, result.AccessToken)
	},
}

func init() {
	loginCmd.Flags().String("service", "", "Service name (required)")
	loginCmd.Flags().String("key", "", "Service key (required)")

	rootCmd.AddCommand(loginCmd)
}
