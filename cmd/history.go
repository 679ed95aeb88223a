package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/history"
	"github.com/spigell/career-assistant/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history [thread-id]",
	Short: "List persisted conversations or print one of them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showHistory(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func showHistory(ctx context.Context, args []string) {
	log, config := setup()
	defer log.Sync()

	store, err := history.Open(config.HistoryFile)
	if err != nil {
		log.Fatal("opening history", zap.Error(err), zap.String("file", config.HistoryFile))
	}
	defer store.Close()

	if len(args) == 0 {
		threads, err := store.Threads(ctx)
		if err != nil {
			log.Fatal("listing conversations", zap.Error(err))
		}
		fmt.Println(render.Threads(threads))
		return
	}

	turns, err := store.LoadTurns(ctx, args[0])
	if err != nil {
		log.Fatal("loading conversation", zap.Error(err))
	}
	fmt.Println(render.Conversation(args[0], turns))
}
