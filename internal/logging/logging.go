package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the log directory.
const FileName = "dealflow.log"

// Init installs the global logger: a console sink on stderr and a rotating
// file under LOGS_FOLDER. Stdout stays free for the MCP transport.
func Init(verbose bool) {
	// Init runs before config.Load, so LOGS_FOLDER may only be defined in the
	// .env next to the binary.
	exeDir := binaryDir()
	if exeDir != "" {
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	file, err := RotatingFile(Dir(exeDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Logger = New(verbose, Console(os.Stderr), file)
}

// New builds a timestamped logger fanning out to every writer.
func New(verbose bool, writers ...io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
}

// Console returns a human readable writer, coloured only on a terminal.
func Console(f *os.File) io.Writer {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.RFC3339,
		NoColor:    !tty,
	}
}

// Dir resolves the log directory: LOGS_FOLDER, else logs/ beside the binary.
func Dir(exeDir string) string {
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if exeDir == "" {
		return "logs"
	}
	return filepath.Join(exeDir, "logs")
}

// RotatingFile creates dir if needed, checks that it is writable and returns
// a size-rotated sink for FileName.
func RotatingFile(dir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    8, // megabytes
		MaxBackups: 10,
		MaxAge:     90, // days
		Compress:   true,
	}, nil
}

func binaryDir() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exePath)
}
