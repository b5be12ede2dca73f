// Package cli はeventctlコマンドを実装する。
// 各サブコマンドはclient.Clientを通じてAPIを呼び出し、トークンはsession.FileStoreに保存する。
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"

	"github.com/hitoshi/eventman/internal/client"
	"github.com/hitoshi/eventman/internal/logger"
	"github.com/hitoshi/eventman/internal/session"
)

// Streams はコマンドの入出力先。テストで差し替える。
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// ReadPassword はエコーなしでパスワードを読み取る。nilの場合はgopassを使う。
	ReadPassword func() ([]byte, error)
}

// DefaultStreams は標準入出力を使うStreamsを返す。
func DefaultStreams() Streams {
	return Streams{
		In:           os.Stdin,
		Out:          os.Stdout,
		Err:          os.Stderr,
		ReadPassword: gopass.GetPasswd,
	}
}

// app はコマンド実行中に共有する状態。
type app struct {
	streams Streams
	reader  *bufio.Reader

	apiURL   string
	tokenDir string
	verbose  bool

	logger *slog.Logger
	client *client.Client
}

// NewRootCommand はeventctlのルートコマンドを生成する。
func NewRootCommand(streams Streams) *cobra.Command {
	if streams.ReadPassword == nil {
		streams.ReadPassword = gopass.GetPasswd
	}
	a := &app{
		streams: streams,
		reader:  bufio.NewReader(streams.In),
	}

	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Command-line client for the eventman API.",
		Long:          "Command-line client for the eventman API. Sign in once with `eventctl login`; the token is kept on disk until `eventctl logout`.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	root.PersistentFlags().StringVar(&a.apiURL, "api", client.DefaultBaseURL, "API root URL")
	root.PersistentFlags().StringVar(&a.tokenDir, "token-dir", session.DefaultDir, "directory that stores the session token")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "print verbose messages")

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.eventsCommand(),
		a.attendeesCommand(),
		a.attendingCommand(),
	)
	return root
}

// setup はフラグの値からロガー・セッション・クライアントを組み立てる。
func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = logger.Setup(a.streams.Err, level)

	store, err := session.NewFileStore(a.tokenDir)
	if err != nil {
		return err
	}
	sess, err := session.NewManager(store, a.logger)
	if err != nil {
		return err
	}
	a.logger.Debug("session loaded",
		slog.String("path", store.Path()),
		slog.Bool("authenticated", sess.IsAuthenticated()),
	)

	a.client = client.New(a.apiURL, sess,
		client.WithLogger(a.logger),
		client.WithUserAgent("eventctl/1.0"),
	)
	return nil
}

// Execute はos.Argsでeventctlを実行し、終了コードを返す。
func Execute() int {
	streams := DefaultStreams()
	root := NewRootCommand(streams)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.Err, errorMessage(err))
		return 1
	}
	return 0
}

// errorMessage は利用者に表示するエラーメッセージを返す。
func errorMessage(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case client.KindUnauthorized:
			return "Error: " + ce.Message + " (run `eventctl login` to sign in)"
		default:
			return "Error: " + ce.Message
		}
	}
	return "Error: " + err.Error()
}
