package cmd

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fletcher/pkg/api"
)

var dataProductCmd = &cobra.Command{
	Use:   "dataproduct",
	Short: "Report outcomes, clear, and disable data products within a dataset",
}

var dataProductUpdateCmd = &cobra.Command{
	Use:   "update [dataset_id]",
	Short: "Report a batch of compute-callback state transitions",
	Long: `Update reports one or more data product state transitions (success,
failed, running) for a dataset, as a compute platform would on job
completion. The batch is read as JSON from --file.

Example:
  fletcherctl dataproduct update --file updates.json <dataset_id>`,
	Args: cobra.ExactArgs(1),
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

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			cmd.Println("Error: --file is required")
			return
		}

		raw, err := os.ReadFile(file)
		if err != nil {
			cmd.Printf("failed to read updates file: %v\n", err)
			return
		}

		var updates []api.StateUpdateRequest
		if err := json.Unmarshal(raw, &updates); err != nil {
			cmd.Printf("failed to parse updates file: %v\n", err)
			return
		}

		results, err := client.UpdateDataProducts(datasetID, updates)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		for _, dp := range results {
			cmd.Printf("%s -> %s\n", dp.ID, dp.State)
		}
	},
}

var dataProductClearCmd = &cobra.Command{
	Use:   "clear [dataset_id]",
	Short: "Reset data products back to waiting, for reprocessing",
	Args:  cobra.ExactArgs(1),
	Run:   makeIDBatchRun((*FletcherClient).ClearDataProducts, "cleared"),
}

var dataProductDisableCmd = &cobra.Command{
	Use:   "disable [dataset_id]",
	Short: "Remove data products from scheduling without deleting history",
	Args:  cobra.ExactArgs(1),
	Run:   makeIDBatchRun((*FletcherClient).DisableDataProducts, "disabled"),
}

// makeIDBatchRun builds a Run function for commands that submit a batch of
// data product IDs (read from --ids, comma-separated) against a dataset.
func makeIDBatchRun(call func(*FletcherClient, uuid.UUID, []uuid.UUID) ([]api.DataProductResponse, error), verb string) func(cmd *cobra.Command, args []string) {
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

		rawIDs, _ := cmd.Flags().GetStringSlice("ids")
		if len(rawIDs) == 0 {
			cmd.Println("Error: --ids is required")
			return
		}

		ids := make([]uuid.UUID, len(rawIDs))
		for i, s := range rawIDs {
			id, err := uuid.Parse(s)
			if err != nil {
				cmd.Printf("invalid data product id %q: %v\n", s, err)
				return
			}
			ids[i] = id
		}

		results, err := call(client, datasetID, ids)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("%d data products %s\n", len(results), verb)
	}
}

func init() {
	dataProductUpdateCmd.Flags().StringP("file", "f", "", "Path to a JSON array of state updates (required)")

	dataProductClearCmd.Flags().StringSlice("ids", []string{}, "Comma-separated data product IDs (required)")
	dataProductDisableCmd.Flags().StringSlice("ids", []string{}, "Comma-separated data product IDs (required)")

	dataProductCmd.AddCommand(dataProductUpdateCmd, dataProductClearCmd, dataProductDisableCmd)
	rootCmd.AddCommand(dataProductCmd)
}
