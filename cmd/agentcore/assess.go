package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"agentcore/readiness"
)

var assessCmd = &cobra.Command{
	Use:   "assess [text]",
	Short: "Extract a confidence/readiness assessment from agent prose",
	Long: `Assess runs the structured-record extraction fallback over free-form
agent output: it looks for a {confidence, ready, message} record directly,
in fenced code blocks, or embedded in prose, and synthesizes one from
textual cues when none is found. Reads stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) > 0 {
			text = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			text = string(data)
		}

		assessment := readiness.Extract(text)
		out, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)
}
