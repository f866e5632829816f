// cmd/spade/root.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"econest-automation/internal/common/config"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/leads"
	"econest-automation/internal/spade"
	leadworkflow "econest-automation/internal/workers/leads/lead-workflow"
	"econest-automation/pkg/registry"

	"github.com/spf13/cobra"
)

type cliOptions struct {
	verbose    bool
	configPath string
	in         io.Reader
	out        io.Writer
}

func (o *cliOptions) logger() logger.Logger {
	if o.verbose {
		return logger.NewStructured("debug", "console")
	}
	return logger.NewNoOpLogger()
}

// maxClarificationRounds reads spade.max_clarification_rounds from --config.
func (o *cliOptions) maxClarificationRounds() (int, error) {
	if o.configPath == "" {
		return spade.DefaultMaxClarificationRounds, nil
	}
	cfg, err := config.LoadFromFile(o.configPath)
	if err != nil {
		return 0, err
	}
	return cfg.Spade.MaxClarificationRounds, nil
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &cliOptions{in: in, out: out}

	root := &cobra.Command{
		Use:           "spade",
		Short:         "Inspect EcoNest guardrail, intent and lead scoring decisions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file supplying spade defaults")

	root.AddCommand(newEvaluateCmd(opts))
	root.AddCommand(newIntentCmd(opts))
	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newWorkersCmd(opts))
	return root
}

// =============================================================================
// EVALUATE
// =============================================================================

func newEvaluateCmd(opts *cliOptions) *cobra.Command {
	var (
		req       spade.ActionRequest
		data      map[string]string
		noPrompt  bool
		maxRounds int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate an action against the guardrail policy",
		Long: `Prints the policy decision for an action. Unless --no-prompt is set, the
guardrail loop then runs interactively: confirmations and clarification
questions are asked on the terminal.`,
		Example: `  spade evaluate --action delete_data --confidence 0.9 --data target=contacts
  spade evaluate --action send_email --confidence 0.4 --reversible`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(data) > 0 {
				req.Data = make(map[string]interface{}, len(data))
				for k, v := range data {
					req.Data[k] = v
				}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			log := opts.logger()
			decision := spade.Evaluate(req)
			log.Debug("policy evaluated", map[string]interface{}{"action": req.Action, "decision": decision.Kind()})

			if err := writeJSON(opts.out, decision); err != nil {
				return err
			}
			if noPrompt {
				return nil
			}

			if !cmd.Flags().Changed("max-rounds") {
				rounds, err := opts.maxClarificationRounds()
				if err != nil {
					return err
				}
				maxRounds = rounds
			}

			g := spade.NewGuardrail(NewTerminalPrompter(opts.in, opts.out), spade.WithMaxClarificationRounds(maxRounds))
			allowed, err := g.Apply(cmd.Context(), req)
			if err != nil {
				return err
			}
			if allowed {
				fmt.Fprintln(opts.out, "allowed")
			} else {
				fmt.Fprintln(opts.out, "blocked")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Action, "action", "", "Action name, e.g. send_email")
	cmd.Flags().Float64Var(&req.Confidence, "confidence", 0, "Model confidence in [0, 1]")
	cmd.Flags().BoolVar(&req.Reversible, "reversible", false, "Whether the action can be undone")
	cmd.Flags().StringVar(&req.UserIntent, "intent", "", "What the user asked for")
	cmd.Flags().StringToStringVar(&data, "data", nil, "Action payload as key=value pairs")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Print the decision without asking")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", spade.DefaultMaxClarificationRounds, "Clarification answers accepted before giving up (default from spade.max_clarification_rounds with --config)")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// =============================================================================
// INTENT
// =============================================================================

func newIntentCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intent <text...>",
		Short: "Classify free text and print the canned plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := spade.DetectIntent(strings.Join(args, " "))
			opts.logger().Debug("intent detected", map[string]interface{}{"intent": plan.Intent, "detected": plan.Detected})
			return writeJSON(opts.out, plan)
		},
	}
}

// =============================================================================
// SCORE
// =============================================================================

type scoreResult struct {
	Email string `json:"email"`
	Score int    `json:"score"`
	Route string `json:"route"`
}

func newScoreCmd(opts *cliOptions) *cobra.Command {
	var email, source, company, notes string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a lead without storing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized := leads.NormalizeEmail(email)
			if normalized == "" {
				return fmt.Errorf("--email is required")
			}
			score := leadworkflow.Score(normalized, source, company, notes)
			return writeJSON(opts.out, scoreResult{
				Email: normalized,
				Score: score,
				Route: string(leadworkflow.RouteFor(score)),
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Lead email address")
	cmd.Flags().StringVar(&source, "source", "", "Lead source, e.g. referral")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	return cmd
}

// =============================================================================
// WORKERS
// =============================================================================

func newWorkersCmd(opts *cliOptions) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "workers [task-type]",
		Short: "List the job workers and their HTTP routes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			if len(args) == 1 {
				activity, err := reg.Find(args[0])
				if err != nil {
					return err
				}
				return writeJSON(opts.out, activity)
			}
			if export != "" {
				if err := registry.Write(export, reg); err != nil {
					return fmt.Errorf("export registry: %w", err)
				}
				fmt.Fprintf(opts.out, "wrote %d activities to %s\n", len(reg.Activities), export)
				return nil
			}
			for _, a := range reg.Activities {
				fmt.Fprintf(opts.out, "%-24s %-32s %s\n", a.TaskType, a.HTTPRoute, a.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&export, "export", "", "Write the registry as JSON to this path")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
