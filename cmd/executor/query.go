package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	execDI "github.com/fd1az/flashloan-executor/business/execution/di"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	quoteDI "github.com/fd1az/flashloan-executor/business/quote/di"
	quoteDomain "github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/pkg/ui/components"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var oppOpts opportunityOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an opportunity for freshness and minimum profit",
		RunE: func(cmd *cobra.Command, args []string) error {
			opp, err := oppOpts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := startPlain(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.close()

			if !execDI.GetValidator(a.mono.Services()).ValidateOpportunity(cmd.Context(), oppOpts.userID, opp) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", opp.ID)
				return errInvalidOpportunity
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", opp.ID)
			return nil
		},
	}
	oppOpts.bind(cmd)
	return cmd
}

// resolveToken accepts a token address or a registered symbol.
func resolveToken(reg *asset.Registry, chainID uint64, s string) (*asset.Asset, error) {
	if common.IsHexAddress(s) {
		return reg.Resolve(chainID, common.HexToAddress(s)), nil
	}
	if a, ok := reg.GetBySymbolAndChain(s, chainID); ok {
		return a, nil
	}
	if a, ok := reg.GetBySymbolAndChain(strings.ToUpper(s), chainID); ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown token %q on chain %d", s, chainID)
}

func newQuoteCmd(root *rootOptions) *cobra.Command {
	var (
		chainID  uint64
		from, to string
		amount   string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap through the aggregator, or the synthetic table when it is unavailable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := startPlain(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			if chainID == 0 {
				chainID = a.cfg.Networks.Mainnet.ChainID
			}
			reg := a.mono.AssetRegistry()
			src, err := resolveToken(reg, chainID, from)
			if err != nil {
				return err
			}
			dst, err := resolveToken(reg, chainID, to)
			if err != nil {
				return err
			}
			in, err := asset.ParseString(src, amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			q, err := quoteDI.GetQuoteService(a.mono.Services()).GetQuote(ctx, quoteDomain.QuoteRequest{
				ChainID: chainID,
				Src:     src.QuoteAddress(),
				Dst:     dst.QuoteAddress(),
				Amount:  in.Raw(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s\n", in, asset.NewAmount(q.ToToken, q.ToAmount))
			fmt.Fprintf(out, "source:    %s\n", q.Source)
			fmt.Fprintf(out, "gas:       %d\n", q.EstimatedGas)
			if len(q.Protocols) > 0 {
				fmt.Fprintf(out, "protocols: %s\n", strings.Join(q.Protocols, ", "))
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain", 0, "Chain ID (defaults to the mainnet chain)")
	cmd.Flags().StringVar(&from, "from", "", "Source token symbol or address")
	cmd.Flags().StringVar(&to, "to", "", "Destination token symbol or address")
	cmd.Flags().StringVar(&amount, "amount", "1", "Amount of the source token, in whole units")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newPricesCmd(root *rootOptions) *cobra.Command {
	var chainID uint64

	cmd := &cobra.Command{
		Use:   "prices TOKEN...",
		Short: "Show USD prices for tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := startPlain(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			if chainID == 0 {
				chainID = a.cfg.Networks.Mainnet.ChainID
			}
			reg := a.mono.AssetRegistry()
			addrs := make([]common.Address, 0, len(args))
			symbols := make(map[common.Address]string, len(args))
			for _, s := range args {
				tok, err := resolveToken(reg, chainID, s)
				if err != nil {
					return err
				}
				addrs = append(addrs, tok.QuoteAddress())
				symbols[tok.QuoteAddress()] = tok.Symbol()
			}

			prices, err := quoteDI.GetQuoteService(a.mono.Services()).GetTokenPrices(ctx, chainID, addrs)
			if err != nil {
				return err
			}

			sort.Slice(addrs, func(i, j int) bool { return symbols[addrs[i]] < symbols[addrs[j]] })
			for _, addr := range addrs {
				price, ok := prices[addr]
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s n/a\n", symbols[addr])
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s $%s\n", symbols[addr], price.StringFixed(4))
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain", 0, "Chain ID (defaults to the mainnet chain)")
	return cmd
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		userID   string
		limit    int
		activity bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded arbitrage transactions or activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := startPlain(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			st := execDI.GetStore(a.mono.Services())
			out := cmd.OutOrStdout()

			if activity {
				if userID == "" {
					return fmt.Errorf("--activity requires --user")
				}
				entries, err := st.ListActivityLogs(ctx, userID, limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-7s  %-13s  %s\n",
						e.CreatedAt.Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Message)
				}
				return nil
			}

			txs, err := st.ListArbitrageTransactions(ctx, userID, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, components.HistoryTable(historyRows(txs)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Only show this user (all users when empty)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows")
	cmd.Flags().BoolVar(&activity, "activity", false, "Show the activity log instead of transactions")
	return cmd
}

func historyRows(txs []*domain.ArbitrageTransaction) []components.HistoryRow {
	rows := make([]components.HistoryRow, 0, len(txs))
	for _, tx := range txs {
		mode := "real"
		if tx.Simulated {
			mode = "sim"
		}
		rows = append(rows, components.HistoryRow{
			Time:      tx.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			Pair:      tx.TokenInSymbol + "/" + tx.TokenOutSymbol,
			Path:      tx.DEXPath,
			AmountIn:  tx.AmountIn,
			NetProfit: tx.NetProfitUSD.StringFixed(2),
			Status:    string(tx.Status),
			Mode:      mode,
			TxHash:    tx.TxHash,
		})
	}
	return rows
}
