// Command chatconsole talks to the shopping assistant from a terminal, either
// in-process against a catalog service or through a running server's API.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/config"
	"github.com/zhouzirui/shopbot/backend/internal/logging"
	"github.com/zhouzirui/shopbot/backend/internal/service/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
	"github.com/zhouzirui/shopbot/backend/internal/service/extraction"
	"github.com/zhouzirui/shopbot/backend/internal/service/oracle"
	"github.com/zhouzirui/shopbot/backend/internal/service/session"
)

type options struct {
	sender  string
	timeout time.Duration
	catalog string
	server  string
	oracle  bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "chatconsole",
		Short:        "Chat with the shopping assistant from a terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.sender, "sender", "s", "console", "Sender identity used as the session key")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "Per-message timeout")

	repl := &cobra.Command{
		Use:   "repl",
		Short: "Run an interactive session with an in-process engine",
		Long: `Run the dialogue engine in this process against a catalog service.

Sessions live in memory and end with the process. Type "salir" or send EOF to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}
	repl.Flags().StringVar(&opts.catalog, "catalog", "", "Catalog service base URL (default: CATALOG_BASE_URL)")
	repl.Flags().BoolVar(&opts.oracle, "oracle", true, "Use the configured language model for extraction")

	send := &cobra.Command{
		Use:   "send [text]",
		Short: "Send one message to a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts, strings.Join(args, " "))
		},
	}
	send.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "Server base URL")

	root.AddCommand(repl, send)
	return root
}

func runREPL(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	baseURL := opts.catalog
	if baseURL == "" {
		baseURL = cfg.Catalog.BaseURL
	}

	var o oracle.Oracle
	if opts.oracle {
		o, err = oracle.New(cmd.Context(), cfg.Oracle)
		if err != nil {
			if !errors.Is(err, oracle.ErrDisabled) {
				logger.Warn("oracle unavailable, using vocabulary extraction", zap.Error(err))
			}
			o = nil
		}
	}

	store := session.NewStore(session.NewMemoryBackend())
	engine := dialogue.NewEngine(store,
		catalog.NewClient(baseURL, cfg.Catalog.Timeout, nil),
		extraction.NewService(o, logger),
		dialogue.WithLogger(logger),
		dialogue.WithTurnTimeout(opts.timeout))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Conectado a %s como %q. Escribí \"salir\" para terminar.\n", baseURL, opts.sender)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "salir" || text == "exit" {
			return nil
		}

		turn, err := engine.Handle(cmd.Context(), opts.sender, text)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		printTurn(out, turn)
	}
}

func runSend(cmd *cobra.Command, opts *options, text string) error {
	payload, err := json.Marshal(map[string]string{"senderId": opts.sender, "text": text})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	endpoint := strings.TrimRight(opts.server, "/") + "/api/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, apiErr.Error)
	}

	var turn dialogue.Turn
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	printTurn(cmd.OutOrStdout(), turn)
	return nil
}

func printTurn(w io.Writer, turn dialogue.Turn) {
	for _, reply := range turn.Replies {
		fmt.Fprintf(w, "\n%s\n", reply)
	}
	fmt.Fprintf(w, "\n[%s]\n", turn.Intent)
}
