package main

import (
	"github.com/spf13/cobra"
	"trackcrawler/pkg/checkpoint"
	"trackcrawler/pkg/config"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/ui"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or move the crawl checkpoint",
	Long: `The checkpoint is the date of the last completed run. Known aircraft are
crawled from this date on the next run.`,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current checkpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpoint()
		if err != nil {
			return err
		}

		day, err := store.Read()
		if err != nil {
			return err
		}
		if !store.Exists() {
			ui.PrintWarning("No checkpoint written yet, the epoch applies")
		}
		ui.PrintInfo("Checkpoint", dates.Format(day))
		ui.PrintInfo("File", store.Path())
		return nil
	},
}

var checkpointSetCmd = &cobra.Command{
	Use:     "set <YYYY/MM/DD>",
	Short:   "Overwrite the checkpoint",
	Example: `  trackcrawler checkpoint set 2024/11/01`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := dates.Parse(args[0])
		if err != nil {
			return err
		}

		store, err := openCheckpoint()
		if err != nil {
			return err
		}
		if err := store.Write(day); err != nil {
			return err
		}
		ui.PrintSuccess("Checkpoint set to " + dates.Format(day))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointSetCmd)

	checkpointCmd.PersistentFlags().StringVar(&checkpointF, "checkpoint", "", "checkpoint file holding the last crawl date")
}

func openCheckpoint() (*checkpoint.Store, error) {
	cfg, log, err := loadConfig(map[string]interface{}{"checkpoint": checkpointF})
	if err != nil {
		return nil, err
	}
	return checkpointStore(cfg, log)
}

func checkpointStore(cfg *config.Config, log logger.Logger) (*checkpoint.Store, error) {
	epoch, err := dates.Parse(cfg.Checkpoint.Epoch)
	if err != nil {
		return nil, err
	}
	return checkpoint.NewStore(cfg.Checkpoint.Path, epoch, log), nil
}
