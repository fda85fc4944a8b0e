package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"easysave/internal/chain"
	"easysave/internal/config"
	"easysave/internal/model"
	"easysave/internal/relay"
	"easysave/internal/savings"
	"easysave/internal/state"
	"easysave/internal/status"
	"easysave/internal/wallet"
)

func main() {
	root := &cobra.Command{
		Use:          "easysave",
		Short:        "Savings pool client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newDashboardCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newLockCmd(),
		newUnlockCmd(),
		newGoalCmd(),
		newPoolCmd(),
		newHistoryCmd(),
		newPriceCmd(),
		newRelayCmd(),
		newChatCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().Uint64("chain-id", config.SepoliaChainID, "supported chain id")
	cmd.Flags().String("savings-pool", "", "SavingsPool contract address")
	cmd.Flags().String("price-feed", "", "price feed contract address (optional)")
	cmd.Flags().StringSlice("token", nil, "tokens as symbol=address (comma-separated)")
	cmd.Flags().String("private-key", "", "hex private key (prefer EASYSAVE_PRIVATE_KEY)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// app bundles the per-invocation collaborators built from one session.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	session    *wallet.Session
	aggregator *state.Aggregator
	orch       *savings.Orchestrator
	status     *status.Channel
}

func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.SavingsPool) {
		return fmt.Errorf("savings pool address is required")
	}
	tokens, err := config.ParseTokens(cfg.Tokens)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	provider, err := wallet.NewKeyProvider(chainClient, cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		return err
	}

	settings := wallet.Settings{
		ChainID:     cfg.ChainID,
		SavingsPool: common.HexToAddress(cfg.SavingsPool),
		Tokens:      tokens,
	}
	if common.IsHexAddress(cfg.PriceFeed) {
		feed := common.HexToAddress(cfg.PriceFeed)
		settings.PriceFeed = &feed
	}

	session, err := wallet.Connect(ctx, provider, chainClient, settings, logger)
	if err != nil {
		return err
	}

	statusChannel := status.NewChannel()
	statusChannel.OnPublish(func(s model.OperationStatus) {
		fmt.Printf("[%s] %s\n", s.Phase, s.Message)
	})

	aggregator := state.NewAggregator(session.Ledger, session.Tokens, logger)
	orch := savings.NewOrchestrator(session.Ledger, aggregator, statusChannel, logger)

	return fn(ctx, &app{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		aggregator: aggregator,
		orch:       orch,
		status:     statusChannel,
	})
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show balances, interest, rates, and goal progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.aggregator.Refresh(ctx)
				if err != nil {
					return err
				}
				printSnapshot(a.session, snap)
				return nil
			})
		},
	}
	addChainFlags(cmd)
	return cmd
}

func printSnapshot(session *wallet.Session, snap model.BalanceSnapshot) {
	fmt.Printf("Account %s\n\n", session.Account.Hex())
	fmt.Printf("%-8s %16s %16s %16s %16s %6s\n", "Token", "Balance", "Interest", "Locked", "LockedInt", "Rate")
	for _, token := range session.Tokens {
		symbol := token.Symbol
		fmt.Printf("%-8s %16s %16s %16s %16s %5d%%\n",
			symbol,
			snap.Balances[symbol],
			snap.Interests[symbol],
			snap.LockedBalances[symbol],
			snap.LockedInterests[symbol],
			snap.Rates[symbol],
		)
	}
	fmt.Printf("\nGoal: target=%s deadline=%d achieved=%t\n", snap.Goal.TargetAmount, snap.Goal.Deadline, snap.Goal.Achieved)
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit tokens into the savings pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			amount, _ := cmd.Flags().GetString("amount")
			batch, _ := cmd.Flags().GetBool("batch")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				if batch {
					return a.orch.BatchDeposit(ctx, symbol, amount)
				}
				return a.orch.Deposit(ctx, symbol, amount)
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("symbol", "", "token symbol")
	cmd.Flags().String("amount", "", "decimal amount")
	cmd.Flags().Bool("batch", false, "use the single-call batch deposit")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw deposited tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			amount, _ := cmd.Flags().GetString("amount")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.Withdraw(ctx, symbol, amount)
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("symbol", "", "token symbol")
	cmd.Flags().String("amount", "", "decimal amount")
	return cmd
}

func newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock tokens for a fixed duration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			amount, _ := cmd.Flags().GetString("amount")
			days, _ := cmd.Flags().GetInt64("days")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.LockDeposit(ctx, symbol, amount, days)
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("symbol", "", "token symbol")
	cmd.Flags().String("amount", "", "decimal amount")
	cmd.Flags().Int64("days", 0, "lock duration in days (1-365)")
	return cmd
}

func newUnlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Withdraw a matured locked balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.WithdrawLocked(ctx, symbol)
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("symbol", "", "token symbol")
	return cmd
}

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Set a savings goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, _ := cmd.Flags().GetString("target")
			days, _ := cmd.Flags().GetInt64("days")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.SetGoal(ctx, target, days)
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("target", "", "decimal target amount")
	cmd.Flags().Int64("days", 0, "goal duration in days (1-365)")
	return cmd
}

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Shared savings pools",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pools with balances and targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				pools, err := a.aggregator.RefreshPools(ctx)
				if err != nil {
					return err
				}
				if len(pools) == 0 {
					fmt.Println("No pools available")
					return nil
				}
				for _, pool := range pools {
					fmt.Printf("Pool %d (%s): %s/%s deposited\n", pool.ID, pool.Token, pool.Balance, pool.TargetAmount)
				}
				return nil
			})
		},
	}
	addChainFlags(listCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			target, _ := cmd.Flags().GetString("target")
			days, _ := cmd.Flags().GetInt64("days")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.CreatePool(ctx, symbol, target, days)
			})
		},
	}
	addChainFlags(createCmd)
	createCmd.Flags().String("symbol", "", "token symbol")
	createCmd.Flags().String("target", "", "decimal target amount")
	createCmd.Flags().Int64("days", 0, "pool duration in days (1-365)")

	contributeCmd := &cobra.Command{
		Use:   "contribute",
		Short: "Contribute to an existing pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetUint64("pool-id")
			symbol, _ := cmd.Flags().GetString("symbol")
			amount, _ := cmd.Flags().GetString("amount")
			return withSession(cmd, func(ctx context.Context, a *app) error {
				return a.orch.Contribute(ctx, poolID, symbol, amount)
			})
		},
	}
	addChainFlags(contributeCmd)
	contributeCmd.Flags().Uint64("pool-id", 0, "pool id")
	contributeCmd.Flags().String("symbol", "", "token symbol")
	contributeCmd.Flags().String("amount", "", "decimal amount")

	poolCmd.AddCommand(listCmd, createCmd, contributeCmd)
	return poolCmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the account's ledger history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				entries, err := a.aggregator.History(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("No transactions available")
					return nil
				}
				for _, entry := range entries {
					fmt.Printf("%-12s %16s %-8s %d\n", entry.Action, entry.Amount, entry.Token, entry.Timestamp)
				}
				return nil
			})
		},
	}
	addChainFlags(cmd)
	return cmd
}

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Show the latest price feed answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				price, err := a.session.Ledger.LatestPrice(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%s ETH per USDC\n", price)
				return nil
			})
		},
	}
	addChainFlags(cmd)
	return cmd
}

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve the chatbot prompt relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.GeminiAPIKey == "" {
				return fmt.Errorf("gemini api key is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := relay.NewServer(relay.Config{
				ListenAddr: cfg.RelayListen,
				GeminiURL:  cfg.GeminiURL,
				APIKey:     cfg.GeminiAPIKey,
			}, logger)
			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("relay-listen", ":5000", "relay listen address")
	cmd.Flags().String("gemini-api-key", "", "Gemini API key (prefer EASYSAVE_GEMINI_API_KEY)")
	cmd.Flags().String("gemini-url", "", "Gemini endpoint override")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Ask the savings chatbot through a running relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			relayURL, _ := cmd.Flags().GetString("relay-url")
			reply, err := relay.NewClient(relayURL).SendPrompt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
	cmd.Flags().String("relay-url", "http://localhost:5000", "relay base URL")
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
