package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/assistant"
	"github.com/spigell/career-assistant/internal/tools"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the profile completeness and print the next steps",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func analyze(ctx context.Context) {
	log, config := setup()
	defer log.Sync()

	executor, err := tools.NewExecutor(tools.DefaultRegistry(), tools.Options{
		CompletionThreshold: config.CompletionThreshold,
	}, log)
	if err != nil {
		log.Fatal("building executor", zap.Error(err))
	}

	state := &tools.State{Profile: loadProfile(config.Profile, log)}
	res, err := executor.Execute(ctx, tools.ProfileAnalyzer, nil, state)
	if err != nil {
		log.Fatal("analyzing profile", zap.Error(err))
	}

	fmt.Println(assistant.Format(res))
}
