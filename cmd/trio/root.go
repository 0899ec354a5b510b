package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/cli"
	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/internal/svc"
	"github.com/adityaadep2008/TrioAgent/pkg/llm"
	"github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

var (
	cfgFile   string
	providers string
	output    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "trio",
	Short: "Drive shopping, ride, food, pharmacy, event and trip missions on an Android device",
	Long: `trio runs one mission against the configured device and prints the outcome.

Missions:
  shop      Compare a product across shopping apps
  ride      Compare (and book) a ride
  food      Compare (and order) a dish
  pharmacy  Find the cheapest complete medicine basket
  event     Invite guests over WhatsApp and order the food each one asks for
  trip      Plan flight, hotel, cab and an itinerary
  chat      Talk to the voice assistant from the terminal`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "error"
		if verbose {
			level = "info"
		}
		logx.MustSetup(logx.LogConf{Mode: "console", Encoding: "plain", Level: level})
		logx.DisableStat()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "etc/trio.yaml", "Service config file")
	rootCmd.PersistentFlags().StringVarP(&providers, "providers", "p", "", "Comma separated provider allow-list")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress and the loaded config")
}

// loadService builds the same service context the API server uses, minus
// the task queue worker.
func loadService() (*svc.ServiceContext, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cli.LogConfigSummary(cfg)
	return svc.NewServiceContext(*cfg), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runMission executes m and prints its outcome.
func runMission(cmd *cobra.Command, m workflow.Mission) error {
	m.Providers = splitList(providers)
	if err := m.Validate(); err != nil {
		return err
	}
	sc, err := loadService()
	if err != nil {
		return err
	}
	defer sc.Stop()

	ctx, stop := signalContext()
	defer stop()

	// Status lines go to stderr so -o json output stays parseable.
	var cm llm.Completer
	if sc.LLM != nil {
		cm = sc.LLM
	}
	suite := workflow.New(sc.Device, cm, sc.WorkflowConfig, cmd.ErrOrStderr())

	out, err := suite.Run(ctx, m)
	if out != nil {
		if perr := printOutcome(cmd.OutOrStdout(), out); perr != nil {
			return perr
		}
	}
	return err
}

func printOutcome(w io.Writer, out *workflow.Outcome) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "text", "":
		fmt.Fprintln(w, out.Summary)
		if out.Graph != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, out.Graph)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
