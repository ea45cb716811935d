// Command runner is a terminal client for the code editor. It keeps the same
// preferences a browser session would (language, theme, font size, and the
// last buffer per language) in a JSON file and runs code through Piston.
//
// Usage:
//
//	runner [flags] [file]
//
// With no file, the saved buffer for the current language is run. Use "-" to
// read code from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/codecraft/internal/editor"
	"github.com/sakif/codecraft/internal/executor/piston"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "runner:", err)
		}
		os.Exit(1)
	}
}

var errRunFailed = errors.New("run failed")

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "codecraft-editor.json"
	}
	return filepath.Join(dir, "codecraft", "editor.json")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("runner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		prefs     = fs.String("prefs", defaultPrefsPath(), "preferences file")
		lang      = fs.String("lang", "", "switch to this language before running")
		theme     = fs.String("theme", "", "save an editor theme")
		fontSize  = fs.Int("font-size", 0, "save an editor font size")
		pistonURL = fs.String("piston", envOr("PISTON_URL", piston.DefaultURL), "Piston API base URL")
		timeout   = fs.Duration("timeout", 15*time.Second, "execution timeout")
		serverURL = fs.String("server", os.Getenv("CODECRAFT_URL"), "record runs on this codecraft server")
		token     = fs.String("token", os.Getenv("CODECRAFT_TOKEN"), "bearer token for -server")
		verbose   = fs.Bool("v", false, "log debug output to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	store, err := editor.OpenFileStore(*prefs)
	if err != nil {
		return err
	}

	var recorder editor.Recorder
	if *serverURL != "" {
		if *token == "" {
			return errors.New("-server needs -token or CODECRAFT_TOKEN")
		}
		recorder = newHTTPRecorder(*serverURL, *token, *timeout)
	}

	session := editor.NewSession(store, piston.New(*pistonURL, *timeout), recorder, logger)
	logger.Debug("session started", slog.String("session_id", session.ID()), slog.String("prefs", *prefs))

	if *theme != "" {
		if err := session.SetTheme(*theme); err != nil {
			return err
		}
	}
	if *fontSize != 0 {
		if err := session.SetFontSize(*fontSize); err != nil {
			return err
		}
	}
	if *lang != "" {
		if err := session.SetLanguage(*lang); err != nil {
			return err
		}
	}

	if path := fs.Arg(0); path != "" {
		code, err := readCode(path, stdin)
		if err != nil {
			return err
		}
		session.SetCode(code)
		if err := session.SaveCode(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	recordErr := session.Run(ctx)
	st := session.State()
	if st.Error != "" {
		fmt.Fprintln(stderr, st.Error)
	} else {
		fmt.Fprint(stdout, st.Output)
	}
	if recordErr != nil {
		logger.Warn("could not record run", slog.String("error", recordErr.Error()))
	}
	if st.Error != "" {
		return errRunFailed
	}
	return nil
}

func readCode(path string, stdin io.Reader) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading code: %w", err)
	}
	return string(raw), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
