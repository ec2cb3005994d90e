// Command ridepool is a terminal client for the marketplace chat and
// payment-status API. It drives the same stores the app views use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ridepool/internal/api"
	"ridepool/internal/live"
	"ridepool/internal/obs"
	"ridepool/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "ridepool",
	Short:         "Chat and payment client for the ridepool marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations, most recently active first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, logger, err := newGateway()
		if err != nil {
			return err
		}
		conversations := store.NewConversationStore(gateway, logger)
		ctx := cmd.Context()

		page := viper.GetInt("page")
		hasNext, err := conversations.Load(ctx, page)
		if err != nil {
			return err
		}
		if viper.GetBool("all") {
			for hasNext {
				page++
				if hasNext, err = conversations.Load(ctx, page); err != nil {
					return err
				}
			}
		}
		for _, conv := range conversations.Conversations() {
			badge := " "
			if conv.HasUnseen {
				badge = "*"
			}
			fmt.Printf("%s %-12s %-20s %s (%s)\n", badge, conv.ReservationID,
				conv.CounterpartName, conv.LastMessage.Content,
				conv.LastMessage.SentAt.Local().Format(time.Kitchen))
		}
		if hasNext {
			fmt.Println("... more pages available")
		}
		fmt.Printf("%d conversation(s) with unread messages\n", conversations.UnreadCount())
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <reservation-id>",
	Short: "Open a conversation: print its history and mark it seen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, logger, err := newGateway()
		if err != nil {
			return err
		}
		reservationID := args[0]
		ctx := cmd.Context()
		feed := store.NewFeedStore(gateway, nil, viper.GetInt("page-size"), logger)
		seen := store.NewSeenSync(gateway, feed, nil, logger)

		if err := feed.Load(ctx, reservationID, 1); err != nil {
			return err
		}
		for page := 2; page <= viper.GetInt("pages") && feed.HasNext(); page++ {
			if err := feed.Load(ctx, reservationID, page); err != nil {
				return err
			}
		}
		if err := seen.MarkAllSeen(ctx, reservationID); err != nil {
			logger.Warn("could not mark conversation seen", "error", err)
		}
		printFeed(feed)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <reservation-id> <text>...",
	Short: "Send a message to a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, logger, err := newGateway()
		if err != nil {
			return err
		}
		reservationID := args[0]
		content := strings.Join(args[1:], " ")
		feed := store.NewFeedStore(gateway, nil, viper.GetInt("page-size"), logger)
		message, err := feed.Send(cmd.Context(), reservationID, content)
		if err != nil {
			return err
		}
		fmt.Printf("sent %s at %s\n", message.ID, message.SentAt.Local().Format(time.Kitchen))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <reservation-id>",
	Short: "Wait for the payment outcome of a reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		watcher, err := live.Watch(live.Config{
			URL:           viper.GetString("live-url"),
			Token:         viper.GetString("token"),
			ReservationID: args[0],
			Logger:        logger,
		}, nil)
		if err != nil {
			return err
		}
		defer watcher.Close()

		fmt.Println("awaiting payment confirmation...")
		select {
		case status := <-watcher.Outcome():
			if status == live.StatusSucceeded {
				fmt.Println("payment confirmed")
				return nil
			}
			return fmt.Errorf("payment failed for reservation %s", args[0])
		case <-cmd.Context().Done():
			fmt.Println("stopped before an outcome arrived")
			return nil
		}
	},
}

func newLogger() *slog.Logger {
	return obs.NewLogger(viper.GetString("env"))
}

func newGateway() (*api.Client, *slog.Logger, error) {
	logger := newLogger()
	client, err := api.NewClient(api.Config{
		BaseURL:     strings.TrimRight(viper.GetString("api-url"), "/"),
		Token:       viper.GetString("token"),
		CallTimeout: viper.GetDuration("timeout"),
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

func printFeed(feed *store.FeedStore) {
	for _, message := range feed.Messages() {
		marker := " "
		if !message.Seen {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s: %s\n", marker,
			message.SentAt.Local().Format(time.Kitchen), message.SenderID, message.Content)
	}
	if feed.HasNext() {
		fmt.Println("... older history available")
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "http://localhost:8080", "backend base URL")
	flags.String("live-url", "ws://localhost:8080/live", "payment push channel URL")
	flags.String("token", "", "bearer credential")
	flags.Int("page-size", store.DefaultPageSize, "fixed message page size")
	flags.Duration("timeout", 10*time.Second, "per-call timeout")
	flags.String("env", "dev", "environment name, controls log format")

	conversationsCmd.Flags().Int("page", 1, "first page to fetch")
	conversationsCmd.Flags().Bool("all", false, "keep fetching until the last page")
	openCmd.Flags().Int("pages", 1, "number of history pages to load")

	for _, cmd := range []*cobra.Command{conversationsCmd, openCmd, sendCmd, watchCmd} {
		rootCmd.AddCommand(cmd)
	}

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("RIDEPOOL")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv()
		bindFlags(rootCmd)
	})
}

func bindFlags(cmd *cobra.Command) {
	_ = viper.BindPFlags(cmd.PersistentFlags())
	for _, sub := range cmd.Commands() {
		_ = viper.BindPFlags(sub.Flags())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
