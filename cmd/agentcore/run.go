package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agentcore/agenterr"
	"agentcore/config"
	"agentcore/stream"
	"agentcore/supervisor"
)

var (
	runJSON  bool
	runWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run <agent> [prompt]",
	Short: "Start an agent session and stream its normalized events",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID := args[0]
		prompt := ""
		if len(args) > 1 {
			prompt = args[1]
		}

		log := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if runWatch {
			watcher, err := config.Watch(configPath, agenterr.Defaults, log)
			if err != nil {
				return fmt.Errorf("watch config: %w", err)
			}
			defer watcher.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sup := supervisor.New(supervisor.Options{Config: cfg, Logger: log})
		sess, err := sup.Start(ctx, agentID, supervisor.StartOptions{Prompt: prompt})
		if err != nil {
			return err
		}

		go func() {
			<-ctx.Done()
			_ = sess.Kill()
		}()

		enc := json.NewEncoder(os.Stdout)
		evCh, errCh := sess.Events(), sess.Errors()
		failed := false
		for evCh != nil || errCh != nil {
			select {
			case ev, ok := <-evCh:
				if !ok {
					evCh = nil
					continue
				}
				printEvent(enc, ev)
			case agentErr, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				failed = true
				printAgentError(enc, agentErr)
			}
		}

		usage := sess.Usage()
		log.Info("session finished",
			"state", sess.State(), "exit_code", sess.ExitCode(),
			"input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens,
			"cost_usd", usage.CostUSD)

		if failed || sess.State() == supervisor.StateFailed {
			return fmt.Errorf("session %s ended in state %s", sess.ID, sess.State())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Emit events as JSON lines instead of text")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Hot-reload error pattern overrides on config changes")
}

func printEvent(enc *json.Encoder, ev stream.Event) {
	if runJSON {
		_ = enc.Encode(stream.Encode(ev))
		return
	}
	switch e := ev.(type) {
	case stream.InitEvent:
		fmt.Printf("[init] session=%s model=%s\n", e.SessionID, e.Model)
	case stream.TextEvent:
		if e.Partial {
			fmt.Print(e.Text)
		} else {
			fmt.Println(e.Text)
		}
	case stream.ToolUseEvent:
		fmt.Printf("[tool] %s %s\n", e.Phase, e.Name)
	case stream.ResultEvent:
		fmt.Printf("[result] %s\n", e.Text)
		if e.Usage != nil {
			fmt.Printf("[usage] in=%d out=%d cost=$%.4f\n",
				e.Usage.InputTokens, e.Usage.OutputTokens, e.Usage.CostUSD)
		}
	case stream.SystemEvent:
		fmt.Printf("[system] %s\n", e.Subtype)
	case stream.ErrorEvent:
		// Also delivered on the error channel; skip the duplicate in text mode.
	}
}

func printAgentError(enc *json.Encoder, agentErr *agenterr.AgentError) {
	if runJSON {
		_ = enc.Encode(stream.Envelope{Type: "error", Error: agentErr})
		return
	}
	fmt.Printf("[error] %s (%s, recoverable=%t)\n",
		agentErr.Message, agentErr.Category, agentErr.Recoverable)
}
