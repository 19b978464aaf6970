// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/report"
	"github.com/pdiddy/trialscout/internal/search"
	"github.com/pdiddy/trialscout/internal/session"
	"github.com/pdiddy/trialscout/internal/tools"
	"github.com/pdiddy/trialscout/pkg/types"
)

var converseCmd = &cobra.Command{
	Use:   "converse",
	Short: "Serve the agent's tool calls over JSON lines",
	Long: `Converse opens a session and reads one JSON object per line from stdin:

  {"name": "get_trials", "arguments": {"query.cond": "asthma"}}
  {"name": "set_memory", "arguments": {"key": "age", "value": "42"}}
  {"name": "generate_report", "arguments": {"conversationComplete": true}}

Each call is answered with one JSON line on stdout. Two control lines are
also accepted: {"control": "end", "finalNotes": "..."} generates the
user-triggered report, and {"control": "reset"} starts over.

When a report ends the session it is exported to report.output_dir in
report.format and the command exits. Use --tools to print the function
definitions to register with the model.`,
	RunE: runConverse,
}

// converseLine is one request read from stdin.
type converseLine struct {
	Name       string          `json:"name,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Control    string          `json:"control,omitempty"`
	FinalNotes string          `json:"finalNotes,omitempty"`
}

// converseReply is one response written to stdout.
type converseReply struct {
	Tool       string `json:"tool,omitempty"`
	Control    string `json:"control,omitempty"`
	Result     any    `json:"result,omitempty"`
	EndSession bool   `json:"endSession,omitempty"`
	ExportPath string `json:"exportPath,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runConverse(cmd *cobra.Command, args []string) error {
	if printTools, _ := cmd.Flags().GetBool("tools"); printTools {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tools.Definitions())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sessionID, _ := cmd.Flags().GetString("session")

	var opts []session.Option
	if sessionID != "" {
		opts = append(opts, session.WithID(sessionID))
	}
	sess, err := session.Open(cfg, search.NewClient(cfg.Search), opts...)
	if err != nil {
		return err
	}
	defer sess.Close()
	fmt.Fprintf(os.Stderr, "Session %s started\n", sess.ID())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return converse(ctx, sess, cfg.Report, cmd.InOrStdin(), cmd.OutOrStdout())
}

// converse answers requests from in until the session ends or in is
// exhausted.
func converse(ctx context.Context, sess *session.Session, cfg types.ReportConfig, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line converseLine
		if err := json.Unmarshal(raw, &line); err != nil {
			if err := enc.Encode(converseReply{Error: "invalid request line"}); err != nil {
				return err
			}
			slog.WarnContext(ctx, "undecodable request line", "error", err)
			continue
		}

		reply, done, err := handleLine(ctx, sess, cfg, line)
		if err != nil {
			reply.Error = err.Error()
		}
		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("writing reply: %w", err)
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

func handleLine(ctx context.Context, sess *session.Session, cfg types.ReportConfig, line converseLine) (converseReply, bool, error) {
	switch line.Control {
	case "":
	case "end":
		r, err := sess.GenerateUserReport(ctx, line.FinalNotes)
		if err != nil {
			return converseReply{Control: line.Control}, false, err
		}
		path, err := exportReport(r, cfg)
		return converseReply{Control: line.Control, EndSession: true, ExportPath: path}, true, err
	case "reset":
		return converseReply{Control: line.Control}, false, sess.Reset(ctx)
	default:
		return converseReply{Control: line.Control}, false, fmt.Errorf("unknown control %q", line.Control)
	}

	out := sess.Call(ctx, line.Name, line.Arguments)
	reply := converseReply{Tool: out.Tool, Result: out.Value, EndSession: out.EndSession}
	if !out.EndSession {
		return reply, false, nil
	}
	path, err := exportReport(sess.Handler().Report(), cfg)
	reply.ExportPath = path
	return reply, true, err
}

func exportReport(r *types.TrialsReport, cfg types.ReportConfig) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no report to export")
	}
	path, err := report.SaveExport(cfg.OutputDir, report.NewExport(r, report.Filter{}, time.Now()), cfg.Format)
	if err != nil {
		return "", err
	}
	slog.Info("report exported", "path", path, "trials", len(r.Trials))
	return path, nil
}

func init() {
	converseCmd.Flags().Bool("tools", false, "print the tool definitions as JSON and exit")
	converseCmd.Flags().String("session", "", "resume a session ID (sqlite memory backend)")
	converseCmd.Flags().String("memory", "", "memory backend: memory or sqlite")
	converseCmd.Flags().Bool("require-trials", false, "refuse generate_report before any search")

	viper.BindPFlag("memory.backend", converseCmd.Flags().Lookup("memory"))
	viper.BindPFlag("report.require_trials", converseCmd.Flags().Lookup("require-trials"))

	rootCmd.AddCommand(converseCmd)
}
