package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"agentcore/agenterr"
	"agentcore/stream"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [event|usage|error]",
	Short: "Print the JSON schema of the wire-stable output types",
	Long: `Schema emits the JSON schema for the types agentcore writes in --json
mode, for downstream consumers that validate or generate bindings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "event"
		if len(args) > 0 {
			name = args[0]
		}

		reflector := &jsonschema.Reflector{
			DoNotReference: true,
			ExpandedStruct: true,
		}

		var schema *jsonschema.Schema
		switch name {
		case "event":
			schema = reflector.Reflect(stream.Envelope{})
		case "usage":
			schema = reflector.Reflect(stream.Usage{})
		case "error":
			schema = reflector.Reflect(agenterr.AgentError{})
		default:
			return fmt.Errorf("unknown schema %q (want event, usage, or error)", name)
		}

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
