package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/career-assistant/internal/render"
	"github.com/spigell/career-assistant/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the actions the assistant can take",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(render.Tools(tools.DefaultRegistry()))
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
