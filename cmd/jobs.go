package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Report the job catalog by division",
	Run: func(cmd *cobra.Command, _ []string) {
		reportJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringP("export", "o", "", "write the catalog to this JSON file instead of printing a report")
}

func reportJobs(cmd *cobra.Command) {
	log, config := setup()
	defer log.Sync()

	catalog, err := loadCatalog(config.Jobs)
	if err != nil {
		log.Fatal("loading catalog", zap.Error(err))
	}

	if target := cmd.Flag("export").Value.String(); target != "" {
		if err := catalog.ToFile(target); err != nil {
			log.Fatal("exporting catalog", zap.Error(err))
		}
		log.Info("catalog exported", zap.String("filename", target), zap.Int("jobs", catalog.Len()))
		return
	}

	// do not bother error since the report is plain strings
	pretty, _ := json.MarshalIndent(catalog.ReportByDivision(), "", "  ")
	log.Info(string(pretty), zap.Int("jobs count", catalog.Len()))
}
