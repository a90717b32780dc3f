package cmd

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fletcher/pkg/api"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Submit, fetch, search, pause, and unpause dataset plans",
}

var planSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a plan, creating or updating a dataset's DAG",
	Long: `Submit reads a plan document (dataset, data products, and dependencies)
from --file and sends it to the controller. Resubmitting an existing
dataset replaces its plan: data products left out of the new document
are disabled, and dependencies left out of it are deleted.

Example:
  fletcherctl plan submit --file plan.json`,
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := requireClient(cmd)
		if !ok {
			return
		}

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			cmd.Println("Error: --file is required")
			return
		}

		raw, err := os.ReadFile(file)
		if err != nil {
			cmd.Printf("failed to read plan file: %v\n", err)
			return
		}

		var req api.PlanRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			cmd.Printf("failed to parse plan file: %v\n", err)
			return
		}

		result, err := client.SubmitPlan(req)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("Plan submitted for dataset %s (%d data products, %d dependencies)\n",
			result.DatasetID, len(result.DataProducts), len(result.Dependencies))
	},
}

var planGetCmd = &cobra.Command{
	Use:   "get [dataset_id]",
	Short: "Fetch a dataset's full plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := requireClient(cmd)
		if !ok {
			return
		}

		datasetID, err := uuid.Parse(args[0])
		if err != nil {
			cmd.Printf("invalid dataset_id: %v\n", err)
			return
		}

		result, err := client.GetPlan(datasetID)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		printPlan(cmd, *result)
	},
}

var planSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search datasets by data product name",
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := requireClient(cmd)
		if !ok {
			return
		}

		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		results, err := client.SearchPlans(name, limit, offset)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		if len(results) == 0 {
			cmd.Println("no datasets matched")
			return
		}
		for _, r := range results {
			cmd.Printf("%s  modified %s\n", r.DatasetID, r.ModifiedDate.Format("2006-01-02T15:04:05Z07:00"))
		}
	},
}

var planPauseCmd = &cobra.Command{
	Use:   "pause [dataset_id]",
	Short: "Pause a dataset, blocking new dispatches",
	Args:  cobra.ExactArgs(1),
	Run:   makeSetPausedRun(true),
}

var planUnpauseCmd = &cobra.Command{
	Use:   "unpause [dataset_id]",
	Short: "Unpause a dataset, resuming dispatch of ready data products",
	Args:  cobra.ExactArgs(1),
	Run:   makeSetPausedRun(false),
}

func makeSetPausedRun(paused bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		client, ok := requireClient(cmd)
		if !ok {
			return
		}

		datasetID, err := uuid.Parse(args[0])
		if err != nil {
			cmd.Printf("invalid dataset_id: %v\n", err)
			return
		}

		result, err := client.SetPaused(datasetID, paused)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("dataset %s paused=%t\n", result.DatasetID, result.Paused)
	}
}

// requireClient validates the configured token and builds a FletcherClient,
// printing a usage message and returning ok=false if the token is missing.
func requireClient(cmd *cobra.Command) (*FletcherClient, bool) {
	url := viper.GetString("url")
	token := viper.GetString("token")

	if token == "" {
		cmd.Println("Access token not found. Please set it using the --token flag or the FLETCHER_TOKEN environment variable")
		return nil, false
	}

	return NewFletcherClient(url, token), true
}

func printAPIError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("request failed: %v\n", err)
}

func printPlan(cmd *cobra.Command, p api.PlanResponse) {
	cmd.Printf("Dataset %s (paused=%t)\n", p.DatasetID, p.Paused)
	cmd.Println("Data Products:")
	for _, dp := range p.DataProducts {
		cmd.Printf("  %s  %-8s %s %s\n", dp.ID, dp.State, dp.Name, dp.Version)
	}
	cmd.Println("Dependencies:")
	for _, d := range p.Dependencies {
		cmd.Printf("  %s -> %s\n", d.ParentID, d.ChildID)
	}
}

func init() {
	planSubmitCmd.Flags().StringP("file", "f", "", "Path to a plan JSON document (required)")

	planSearchCmd.Flags().String("name", "", "Data product name to search for (substring match)")
	planSearchCmd.Flags().Int("limit", 20, "Maximum number of results")
	planSearchCmd.Flags().Int("offset", 0, "Result offset for pagination")

	planCmd.AddCommand(planSubmitCmd, planGetCmd, planSearchCmd, planPauseCmd, planUnpauseCmd)
	rootCmd.AddCommand(planCmd)
}
