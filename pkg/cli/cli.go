package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// サブコマンド
const (
	CommandInfo   = "info"
	CommandLyrics = "lyrics"
	CommandPlay   = "play"
	CommandStrip  = "strip"
)

var commands = map[string]bool{
	CommandInfo:   true,
	CommandLyrics: true,
	CommandPlay:   true,
	CommandStrip:  true,
}

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command       string        // サブコマンド（info, lyrics, play, strip）
	InputPath     string        // 入力MIDI/KARファイル
	OutputPath    string        // strip の出力先
	Encoding      string        // 歌詞テキストの文字コード
	Interval      time.Duration // play の表示更新間隔
	Start         float64       // play の開始位置（秒）
	Timeout       time.Duration // タイムアウト時間（0は無制限）
	LogLevel      string        // ログレベル（debug, info, warn, error）
	RemoveTracks  []int         // strip で削除するトラック番号
	RemovePatches []int         // strip でミュートする音色番号
	NoColor       bool          // ANSIカラーを使わない
	ShowHelp      bool          // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("kmidi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	var removeTracks, removePatches string
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.Encoding, "encoding", "", "歌詞の文字コード")
	fs.StringVar(&config.Encoding, "e", "", "歌詞の文字コード（短縮形）")
	fs.DurationVar(&config.Interval, "interval", 100*time.Millisecond, "表示更新間隔")
	fs.Float64Var(&config.Start, "start", 0, "再生開始位置（秒）")
	fs.StringVar(&removeTracks, "remove-tracks", "", "削除するトラック番号（カンマ区切り）")
	fs.StringVar(&removePatches, "remove-patches", "", "ミュートする音色番号（カンマ区切り）")
	fs.StringVar(&config.OutputPath, "output", "", "出力ファイル")
	fs.StringVar(&config.OutputPath, "o", "", "出力ファイル（短縮形）")
	fs.BoolVar(&config.NoColor, "no-color", false, "カラー表示を無効化")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// 環境変数から文字コードを取得（コマンドラインフラグが優先）
	if config.Encoding == "" {
		config.Encoding = os.Getenv("KMIDI_ENCODING")
	}
	if config.Encoding == "" {
		config.Encoding = "auto"
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", config.Interval)
	}
	if config.Start < 0 {
		return nil, fmt.Errorf("start must be non-negative, got %v", config.Start)
	}

	var err error
	if config.RemoveTracks, err = parseIntList(removeTracks, 0, 65535); err != nil {
		return nil, fmt.Errorf("invalid --remove-tracks: %w", err)
	}
	if config.RemovePatches, err = parseIntList(removePatches, 0, 127); err != nil {
		return nil, fmt.Errorf("invalid --remove-patches: %w", err)
	}

	if config.ShowHelp {
		return config, nil
	}

	// 位置引数（サブコマンドと入力ファイル）
	if fs.NArg() > 0 {
		config.Command = strings.ToLower(fs.Arg(0))
		if !commands[config.Command] {
			return nil, fmt.Errorf("unknown command: %s", fs.Arg(0))
		}
	}
	if fs.NArg() > 1 {
		config.InputPath = fs.Arg(1)
	}
	if fs.NArg() > 2 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(2))
	}
	if config.Command != "" && config.InputPath == "" {
		return nil, fmt.Errorf("%s: missing input file", config.Command)
	}

	// strip の出力先を省略した場合は入力ファイル名から決める
	if config.Command == CommandStrip && config.OutputPath == "" {
		config.OutputPath = DefaultOutputPath(config.InputPath)
	}

	return config, nil
}

// DefaultOutputPath song.kar -> song.stripped.kar
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".stripped" + ext
}

// parseIntList "1,3,5" 形式の数値リストを解析する
func parseIntList(s string, lo, hi int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", field)
		}
		if n < lo || n > hi {
			return nil, fmt.Errorf("%d out of range %d-%d", n, lo, hi)
		}
		out = append(out, n)
	}
	return out, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// --name=value の形式は値を含んでいる
			if strings.Contains(arg, "=") || isBoolFlag(arg) {
				continue
			}
			// 次の引数が値である可能性をチェック（-t 5 のような場合）
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	result := append(flags, "--")
	return append(result, positional...)
}

// isBoolFlag 値を取らないフラグかどうか
func isBoolFlag(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "h", "help", "no-color":
		return true
	}
	return false
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `kmidi - Standard MIDI / KAR karaoke tool

Usage:
  kmidi [options] <command> <file>

Commands:
  info      ヘッダー、テンポマップ、トラック、音色、ノート数を表示
  lyrics    歌詞の音節をタイムスタンプ付きで表示
  play      3行のカラオケ表示をコンソールで再生（音声なし）
  strip     指定したトラック・音色を取り除いたコピーを書き出す

Options:
  -e, --encoding <name>       歌詞の文字コード: auto, utf-8, latin1, windows-1252, shift_jis, euc-jp など（デフォルト: auto）
  --interval <duration>       play の表示更新間隔（デフォルト: 100ms）
  --start <seconds>           play の開始位置（秒）
  --remove-tracks <list>      strip で削除するトラック番号（例: 1,3）
  --remove-patches <list>     strip でミュートする音色番号（例: 0,24）
  -o, --output <file>         strip の出力先（デフォルト: <入力名>.stripped.<拡張子>）
  --no-color                  カラー表示を無効化
  -t, --timeout <seconds>     指定秒数後に終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                  このヘルプを表示

Environment Variables:
  KMIDI_ENCODING=<name>       歌詞の文字コード
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Examples:
  kmidi info song.kar
  kmidi lyrics -e shift_jis song.kar
  kmidi play song.kar --start 30
  kmidi strip song.kar --remove-tracks 2 --remove-patches 24 -o karaoke.kar
`)
}
