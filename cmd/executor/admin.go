package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	execDI "github.com/fd1az/flashloan-executor/business/execution/di"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
)

func newConfigureCmd(root *rootOptions) *cobra.Command {
	var (
		userID          string
		realTrading     bool
		network         string
		maxGasGwei      float64
		minProfit       float64
		notifyThreshold float64
		chatID          string
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create or update a user's bot config",
		Long: "Only flags that are passed are changed. The private key is never " +
			"taken from a flag; set it in the environment instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := startPlain(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			st := execDI.GetStore(a.mono.Services())
			cfg, err := st.GetBotConfig(ctx, userID)
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = &domain.BotConfig{UserID: userID, NetworkMode: domain.NetworkMainnet}
			}

			flags := cmd.Flags()
			if flags.Changed("real-trading") {
				cfg.RealTradingEnabled = realTrading
			}
			if flags.Changed("network") {
				if network != domain.NetworkMainnet && network != domain.NetworkTestnet {
					return fmt.Errorf("--network must be %s or %s", domain.NetworkMainnet, domain.NetworkTestnet)
				}
				cfg.NetworkMode = network
			}
			if flags.Changed("max-gas-gwei") {
				cfg.MaxGasPriceGwei = decimal.NewFromFloat(maxGasGwei)
			}
			if flags.Changed("min-profit-percent") {
				cfg.MinProfitPercent = decimal.NewFromFloat(minProfit)
			}
			if flags.Changed("notify-threshold-usd") {
				cfg.NotificationThresholdUSD = decimal.NewFromFloat(notifyThreshold)
			}
			if flags.Changed("chat-id") {
				cfg.TelegramChatID = chatID
			}

			if err := st.SaveBotConfig(ctx, cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:             %s\n", cfg.UserID)
			fmt.Fprintf(out, "real trading:     %t\n", cfg.RealTradingEnabled)
			fmt.Fprintf(out, "network:          %s\n", cfg.NetworkMode)
			fmt.Fprintf(out, "max gas (gwei):   %s\n", cfg.MaxGasPriceGwei)
			fmt.Fprintf(out, "min profit (%%):   %s\n", cfg.MinProfitPercent)
			fmt.Fprintf(out, "notify at (usd):  %s\n", cfg.NotificationThresholdUSD)
			fmt.Fprintf(out, "telegram chat:    %s\n", cfg.TelegramChatID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User to configure")
	cmd.Flags().BoolVar(&realTrading, "real-trading", false, "Allow real transactions")
	cmd.Flags().StringVar(&network, "network", domain.NetworkMainnet, "mainnet or testnet")
	cmd.Flags().Float64Var(&maxGasGwei, "max-gas-gwei", 0, "Gas price ceiling, 0 for the default")
	cmd.Flags().Float64Var(&minProfit, "min-profit-percent", 0, "Minimum net profit percent, 0 for the default")
	cmd.Flags().Float64Var(&notifyThreshold, "notify-threshold-usd", 0, "Profit that triggers a notification, 0 for the default")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "Telegram chat for notifications")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApplication(ctx, root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := execDI.GetStore(a.mono.Services()).AutoMigrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
