package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"emotic-chat/internal/chat"
	"emotic-chat/internal/config"
	"emotic-chat/internal/identity"
	"emotic-chat/internal/kvstore"
	"emotic-chat/internal/reply"
	"emotic-chat/internal/speech"
	"emotic-chat/internal/tui"
)

const version = "1.0.0"

var (
	flagBaseURL string
	flagStorage string
	flagTheme   string
	flagMock    bool
)

func newLogger(root string) zerolog.Logger {
	// The TUI owns the terminal, so logs go to a file under the storage root.
	var out io.Writer = io.Discard
	if err := os.MkdirAll(root, 0o755); err == nil {
		f, err := os.OpenFile(filepath.Join(root, "emotic.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out = f
		}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func openStore(backend, root string, quota int) (kvstore.Store, func(), error) {
	switch backend {
	case "sqlite":
		st, err := kvstore.NewSQLiteStore(root, quota)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "memory":
		return kvstore.NewMemStore(quota), func() {}, nil
	case "", "file":
		return kvstore.NewFileStore(root, quota), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return err
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	} else if env := os.Getenv("EMOTIC_BASE_URL"); env != "" {
		cfg.BaseURL = env
	}
	if flagMock {
		cfg.BaseURL = "mock://replies"
	}
	if flagStorage != "" {
		cfg.StorageBackend = flagStorage
	}
	if flagTheme != "" {
		cfg.Theme = flagTheme
	} else if env := os.Getenv("EMOTIC_THEME"); env != "" {
		cfg.Theme = env
	}

	root := cfg.StorageRoot
	if strings.TrimSpace(root) == "" {
		root = kvstore.DefaultStorageRoot()
	}
	logger := newLogger(root)

	kv, closeKV, err := openStore(cfg.StorageBackend, root, cfg.QuotaBytes)
	if err != nil {
		return err
	}
	defer closeKV()

	ident := identity.NewProvider(kv, logger)
	client := reply.NewClient(cfg.BaseURL, time.Duration(cfg.ReplyTimeout)*time.Second)
	store := chat.NewStore(kv, client, logger, chat.Options{TitleLimit: cfg.TitleLimit})

	model := tui.New(store, ident, speech.NullRecognizer{}, speech.NullSpeaker{}, tui.ThemeName(cfg.Theme))
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	// Drain in-flight replies, then honor the guest-transience contract.
	store.Wait()
	ident.Close()
	return nil
}

func main() {
	root := &cobra.Command{
		Use:     "emotic",
		Short:   "EmoticAI terminal chat client",
		Long:    "emotic is a terminal chat client for the EmoticAI reply service.\n\nChats are kept locally, namespaced per signed-in name; guest sessions are\ndiscarded on exit.",
		Version: version,
		RunE:    run,
	}

	root.Flags().StringVar(&flagBaseURL, "base-url", "", "reply service base URL")
	root.Flags().StringVar(&flagStorage, "storage", "", "storage backend: file|sqlite|memory")
	root.Flags().StringVar(&flagTheme, "theme", "", "theme: porcelain|midnight")
	root.Flags().BoolVar(&flagMock, "mock", false, "use canned replies instead of the remote service")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
