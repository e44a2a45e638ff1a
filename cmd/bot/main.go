package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"channel-signature-bot/internal/adapter/httpserver"
	telegramAdapter "channel-signature-bot/internal/adapter/telegram"
	"channel-signature-bot/internal/config"
	"channel-signature-bot/internal/domain"
	"channel-signature-bot/internal/infra/filestore"
	"channel-signature-bot/internal/infra/memory"
	sqliteRepo "channel-signature-bot/internal/infra/sqlite"
	"channel-signature-bot/internal/metrics"
	"channel-signature-bot/internal/usecase"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chanbot",
		Short:         "Telegram bot that signs posts in registered channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to YAML configuration file")
	root.AddCommand(runCmd(), channelsCmd(), tokenCmd(), versionCmd())
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the liveness server",
		RunE:  runBot,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("chanbot %s (commit: %s)\n", version, commit)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, config.Keychain{})
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	channels := filestore.Load(cfg.RegistryFile, logger)
	m := metrics.New(channels.Len)

	go func() {
		srv := httpserver.New(cfg.Port, httpserver.NewRouter(m.Handler()), logger)
		if err := srv.Run(ctx); err != nil {
			logger.Error("liveness server stopped", "error", err)
		}
	}()

	var signStats domain.SignStatRepository = memory.NewSignStatRepo()
	if cfg.StatsDSN != "" {
		repo, err := sqliteRepo.NewSignStatRepo(cfg.StatsDSN)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()
		signStats = repo
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	logger.Info("authorized", "bot", bot.Self.UserName)

	stats := usecase.NewStatsUsecase(channels, signStats)
	menu := usecase.NewMenu(channels, memory.NewSessionRepo(), stats, logger)
	signer := usecase.NewSigner(channels, telegramAdapter.NewPostEditor(bot), signStats, m.Sign, logger)

	handler := telegramAdapter.NewHandler(bot, menu, signer, logger)
	handler.SetAdminIDs(cfg.AdminSet())
	handler.SetStats(stats)
	handler.SetUpdateObserver(m.Update)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query", "channel_post"}
	updates := bot.GetUpdatesChan(u)

	logger.Info("polling started", "channels", channels.Len())
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()
	handler.Run(ctx, updates)
	logger.Info("bot stopped")
	return nil
}

func channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Inspect or edit the channel registry offline",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered channels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			list := reg.List()
			if len(list) == 0 {
				fmt.Println(usecase.TextNoChannels)
				return nil
			}
			for _, c := range list {
				fmt.Printf("%s\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <@name|id>",
		Short: "Register a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := usecase.ParseChannelInput(args[0])
			if err != nil {
				return err
			}
			reg, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			if err := reg.Add(ch.ID, ch.Name); err != nil {
				return err
			}
			fmt.Printf("added %s (%s)\n", ch.Name, ch.ID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Unregister a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			ok, err := reg.Remove(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrChannelNotFound, args[0])
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}

// openRegistry does not need a token; only the registry path matters.
func openRegistry(cmd *cobra.Command) (*filestore.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return filestore.Load(cfg.RegistryFile, newLogger(cfg)), nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token in the OS keychain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the bot token in the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("token must not be empty")
			}
			if err := (config.Keychain{}).SetToken(args[0]); err != nil {
				return fmt.Errorf("keychain: %w", err)
			}
			fmt.Println("token stored")
			return nil
		},
	})
	return cmd
}
