package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fd1az/flashloan-executor/business/execution/app"
	execDI "github.com/fd1az/flashloan-executor/business/execution/di"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	notifDI "github.com/fd1az/flashloan-executor/business/notification/di"
	quoteDI "github.com/fd1az/flashloan-executor/business/quote/di"
	"github.com/fd1az/flashloan-executor/pkg/ui"
	"github.com/fd1az/flashloan-executor/pkg/ui/components"
)

var (
	errInvalidOpportunity = errors.New("opportunity rejected by validator")
	errExecutionFailed    = errors.New("execution failed")
)

type opportunityOptions struct {
	userID string
	file   string
}

func (o *opportunityOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.userID, "user", "u", "", "User whose bot config drives the run")
	cmd.Flags().StringVarP(&o.file, "file", "f", "-", "Opportunity JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("user")
}

func (o *opportunityOptions) load(stdin io.Reader) (*domain.Opportunity, error) {
	if o.file == "-" {
		return decodeOpportunity(stdin)
	}
	f, err := os.Open(o.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeOpportunity(f)
}

func decodeOpportunity(r io.Reader) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	if err := json.NewDecoder(r).Decode(&opp); err != nil {
		return nil, fmt.Errorf("failed to decode opportunity: %w", err)
	}
	return &opp, nil
}

func newExecuteCmd(root *rootOptions) *cobra.Command {
	var (
		oppOpts        opportunityOptions
		realTrade      bool
		plain          bool
		skipValidation bool
	)

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run the execution pipeline for one opportunity",
		Long: "Runs the pre-flight checks and then either simulates the trade or " +
			"submits the flash-loan swap through the receiver contract. " +
			"Simulation is the default; pass --real to trade.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opp, err := oppOpts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			run := executeRun{
				root:           root,
				userID:         oppOpts.userID,
				opp:            opp,
				simulated:      !realTrade,
				skipValidation: skipValidation,
				out:            cmd.OutOrStdout(),
			}
			if plain {
				return run.plain(cmd.Context())
			}
			return run.tui(cmd.Context())
		},
	}
	oppOpts.bind(cmd)
	cmd.Flags().BoolVar(&realTrade, "real", false, "Submit a real transaction instead of simulating")
	cmd.Flags().BoolVar(&plain, "plain", false, "Log to stderr instead of showing the TUI")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Execute without running the opportunity validator first")
	return cmd
}

type executeRun struct {
	root           *rootOptions
	userID         string
	opp            *domain.Opportunity
	simulated      bool
	skipValidation bool
	out            io.Writer
}

func (r executeRun) validate(ctx context.Context, a *application) error {
	if r.skipValidation {
		return nil
	}
	if !execDI.GetValidator(a.mono.Services()).ValidateOpportunity(ctx, r.userID, r.opp) {
		return errInvalidOpportunity
	}
	return nil
}

func (r executeRun) plain(ctx context.Context) error {
	a, err := startPlain(ctx, r.root)
	if err != nil {
		return err
	}
	defer a.close()

	if err := r.validate(ctx, a); err != nil {
		return err
	}

	pipeline := execDI.GetPipeline(a.mono.Services()).WithObserver(func(ev app.StepEvent) {
		args := []any{"step", ev.Step, "outcome", ev.Outcome.String()}
		if ev.Skipped {
			args = append(args, "skipped", true)
		}
		if ev.Err != nil {
			args = append(args, "error", ev.Err)
		}
		a.log.Info(ctx, "pipeline step", args...)
	})

	result := pipeline.Execute(ctx, r.userID, r.opp, r.simulated)
	printResult(r.out, result)
	if !result.Success {
		return errExecutionFailed
	}
	return nil
}

func (r executeRun) tui(ctx context.Context) error {
	a, err := newApplication(ctx, r.root, io.Discard)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.New(ui.SummaryFor(r.userID, r.opp, r.simulated)), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	resultCh := make(chan *domain.TradeExecutionResult, 1)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.start(ctx); err != nil {
			ui.Send(ui.StartupMsg{Err: err})
			errCh <- err
			return
		}
		ui.Send(ui.StartupMsg{Done: true})
		r.sendStatus(a)

		if err := r.validate(ctx, a); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		pipeline := execDI.GetPipeline(a.mono.Services()).WithObserver(ui.StepObserver())
		result := pipeline.Execute(ctx, r.userID, r.opp, r.simulated)
		ui.Send(ui.ResultMsg{Result: result})
		resultCh <- result
	}()

	_, runErr := p.Run()
	// The store closes with the application, so the run must finish first.
	cancel()
	<-done
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}

	select {
	case result := <-resultCh:
		printResult(r.out, result)
		if !result.Success {
			return errExecutionFailed
		}
		return nil
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (r executeRun) sendStatus(a *application) {
	chain := a.cfg.Networks.Mainnet
	if cfg, err := execDI.GetStore(a.mono.Services()).GetBotConfig(context.Background(), r.userID); err == nil && cfg != nil && cfg.IsTestnet() {
		chain = a.cfg.Networks.Testnet
	}

	quotes := quoteDI.GetQuoteService(a.mono.Services())
	aggregator := components.ServiceStatus{Name: "Aggregator", Up: quotes.Live(), Detail: "live"}
	if !aggregator.Up {
		aggregator.Detail = "synthetic"
	}

	ui.Send(ui.StatusMsg{Status: components.ServiceStatus{Name: "Chain", Up: true, Detail: fmt.Sprintf("%d", chain.ChainID)}})
	ui.Send(ui.StatusMsg{Status: aggregator})
	ui.Send(ui.StatusMsg{Status: components.ServiceStatus{Name: "Telegram", Up: notifDI.GetNotificationService(a.mono.Services()).Enabled()}})
	ui.Send(ui.StatusMsg{Status: components.ServiceStatus{Name: "Database", Up: true, Detail: a.cfg.Database.Driver}})
}

func printResult(w io.Writer, r *domain.TradeExecutionResult) {
	row := ui.ResultRow(r)
	fmt.Fprintln(w, components.ResultView(row))
}
