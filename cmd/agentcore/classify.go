package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"agentcore/agenterr"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <agent> [line]",
	Short: "Classify a line against an agent's error pattern table",
	Long: `Classify checks text against the error pattern table for the given
agent and prints the resulting category, message, and recoverability.
With no line argument, lines are read from stdin, one classification each.
Useful for debugging pattern overrides before deploying them.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		agentID := args[0]
		table := agenterr.Defaults.Get(agentID)

		if len(args) > 1 {
			printClassification(table, args[1])
			return nil
		}

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			printClassification(table, line)
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func printClassification(table agenterr.Table, line string) {
	cls, ok := table.Match(line)
	if !ok {
		fmt.Println("no match")
		return
	}
	fmt.Printf("%s recoverable=%t message=%q\n", cls.Category, cls.Recoverable, cls.Message)
}
