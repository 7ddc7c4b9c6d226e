package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/zurustar/kmidi/pkg/cli"
	"github.com/zurustar/kmidi/pkg/karaoke"
	"github.com/zurustar/kmidi/pkg/logger"
	"github.com/zurustar/kmidi/pkg/player"
	"github.com/zurustar/kmidi/pkg/smf"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	out     io.Writer
	decoder *smf.TextDecoder
}

// New Applicationを作成
// out はコマンドの出力先（nilなら標準出力）
func New(out io.Writer) *Application {
	if out == nil {
		out = os.Stdout
	}
	return &Application{out: out}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp || app.config.Command == "" {
		cli.PrintHelp(app.out)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 3. 文字コードの準備
	decoder, err := smf.NewTextDecoder(app.config.Encoding)
	if err != nil {
		return err
	}
	app.decoder = decoder

	app.log.Info("Application started", "command", app.config.Command, "file", app.config.InputPath)

	// 4. コマンドの実行
	ctx, stop := app.newContext()
	defer stop()

	switch app.config.Command {
	case cli.CommandInfo:
		err = app.runInfo()
	case cli.CommandLyrics:
		err = app.runLyrics()
	case cli.CommandPlay:
		err = app.runPlay(ctx)
	case cli.CommandStrip:
		err = app.runStrip()
	default:
		err = fmt.Errorf("unknown command: %s", app.config.Command)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", app.config.Command, err)
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// newContext 割り込みとタイムアウトで終了するコンテキストを作る
func (app *Application) newContext() (context.Context, context.CancelFunc) {
	ctx, stopSignal := signal.NotifyContext(context.Background(), os.Interrupt)
	if app.config.Timeout <= 0 {
		return ctx, stopSignal
	}
	ctx, cancel := context.WithTimeout(ctx, app.config.Timeout)
	return ctx, func() {
		cancel()
		stopSignal()
	}
}

// load 入力ファイルを読み込む
func (app *Application) load() (*smf.File, error) {
	f, err := smf.LoadFile(app.config.InputPath,
		smf.WithLogger(app.log),
		smf.WithDecoder(app.decoder))
	if err != nil {
		return nil, err
	}
	app.log.Info("MIDI file loaded",
		"tracks", len(f.Tracks),
		"notes", len(f.Notes),
		"karaoke", f.Karaoke,
		"duration", f.Duration())
	return f, nil
}

// runStrip トラック・音色を取り除いたコピーを書き出す
func (app *Application) runStrip() error {
	in, out := app.config.InputPath, app.config.OutputPath
	if filepath.Clean(in) == filepath.Clean(out) {
		return fmt.Errorf("output %s would overwrite the input", out)
	}

	filter := smf.Filter{
		Tracks:  app.config.RemoveTracks,
		Patches: app.config.RemovePatches,
	}
	if filter.Empty() {
		app.log.Warn("Nothing to remove, writing an identical copy")
	}
	if err := smf.WriteFile(in, out, filter); err != nil {
		return err
	}

	app.log.Info("Filtered copy written", "output", out, "tracks", filter.Tracks, "patches", filter.Patches)
	fmt.Fprintf(app.out, "Wrote %s (removed tracks %v, muted patches %v)\n", out, filter.Tracks, filter.Patches)
	return nil
}

// runPlay カラオケ表示をコンソールで再生
func (app *Application) runPlay(ctx context.Context) error {
	f, err := app.load()
	if err != nil {
		return err
	}

	display := karaoke.New(f)
	if !display.Active() {
		app.log.Warn("No karaoke lyrics found", "file", app.config.InputPath)
		return nil
	}

	p := player.New(display, player.NewConsole(app.out, !app.config.NoColor),
		player.WithInterval(app.config.Interval),
		player.WithStart(app.config.Start),
		player.WithLogger(app.log))

	err = p.Run(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		app.log.Info("Timeout reached, terminating", "timeout", app.config.Timeout)
		return nil
	case errors.Is(err, context.Canceled):
		app.log.Info("Interrupted")
		return nil
	}
	return err
}
