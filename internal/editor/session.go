// Package editor holds the state of one code-editing session: the selected
// language, display preferences, the buffer, and the outcome of the last run.
//
// Preferences survive across sessions through a Store. A Session with a nil
// Store starts from the defaults and persists nothing.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sakif/codecraft/internal/executor"
	"github.com/sakif/codecraft/internal/language"
)

const (
	KeyLanguage   = "editor-language"
	KeyFontSize   = "editor-font-size"
	KeyTheme      = "editor-theme"
	keyCodePrefix = "editor-code-"

	DefaultLanguage = language.Free
	DefaultFontSize = 16
	DefaultTheme    = "vs-dark"

	MsgEmptyCode = "Please enter some code"
	MsgRunFailed = "Error running code"
)

// CodeKey is the store key holding the saved buffer for lang.
func CodeKey(lang string) string {
	return keyCodePrefix + lang
}

// Recorder receives every completed run. Implementations typically append to
// the execution log on the server.
type Recorder interface {
	Record(ctx context.Context, lang, code string, output, errMsg *string) error
}

// State is a snapshot of a Session.
type State struct {
	ID        string
	Language  string
	FontSize  int
	Theme     string
	Code      string
	Output    string
	Error     string
	IsRunning bool
	Result    *executor.Result
}

type Session struct {
	id       string
	store    Store
	runner   executor.Executor
	recorder Recorder
	logger   *slog.Logger

	mu       sync.Mutex
	lang     string
	fontSize int
	theme    string
	code     string
	output   string
	errMsg   string
	running  bool
	result   *executor.Result
}

// NewSession restores preferences from store. runner and recorder may be nil;
// Run then reports MsgRunFailed and nothing is recorded, respectively.
func NewSession(store Store, runner executor.Executor, recorder Recorder, logger *slog.Logger) *Session {
	s := &Session{
		id:       uuid.NewString(),
		store:    store,
		runner:   runner,
		recorder: recorder,
		logger:   logger,
		lang:     DefaultLanguage,
		fontSize: DefaultFontSize,
		theme:    DefaultTheme,
	}
	if store == nil {
		return s
	}
	if v, ok := store.Get(KeyLanguage); ok && v != "" {
		s.lang = v
	}
	if v, ok := store.Get(KeyFontSize); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.fontSize = n
		}
	}
	if v, ok := store.Get(KeyTheme); ok && v != "" {
		s.theme = v
	}
	if v, ok := store.Get(CodeKey(s.lang)); ok {
		s.code = v
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:        s.id,
		Language:  s.lang,
		FontSize:  s.fontSize,
		Theme:     s.theme,
		Code:      s.code,
		Output:    s.output,
		Error:     s.errMsg,
		IsRunning: s.running,
		Result:    s.result,
	}
}

// SetCode replaces the buffer. It is not persisted until the language changes
// or SaveCode is called.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// SaveCode persists the buffer under the current language.
func (s *Session) SaveCode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(CodeKey(s.lang), s.code)
}

func (s *Session) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return s.persist(KeyTheme, theme)
}

func (s *Session) SetFontSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("editor: font size must be positive, got %d", size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSize = size
	return s.persist(KeyFontSize, strconv.Itoa(size))
}

// SetLanguage saves the current buffer under the old language, switches, and
// loads whatever was saved for the new one. Output and error are cleared.
func (s *Session) SetLanguage(lang string) error {
	if _, ok := language.Lookup(lang); !ok {
		return fmt.Errorf("editor: unsupported language %q", lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.code != "" {
		if err := s.persist(CodeKey(s.lang), s.code); err != nil {
			return err
		}
	}
	if err := s.persist(KeyLanguage, lang); err != nil {
		return err
	}

	s.lang = lang
	s.code = ""
	if s.store != nil {
		if v, ok := s.store.Get(CodeKey(lang)); ok {
			s.code = v
		}
	}
	s.output = ""
	s.errMsg = ""
	s.result = nil
	return nil
}

// Run executes the buffer and stores the outcome on the session. Failures are
// reported through State().Error rather than the return value; the returned
// error is only set when recording the run failed.
//
// Run does not guard against a second call while one is in flight.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	lang, code := s.lang, s.code
	if strings.TrimSpace(code) == "" {
		s.output, s.errMsg, s.result = "", MsgEmptyCode, nil
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.output, s.errMsg, s.result = "", "", nil
	s.mu.Unlock()

	result, reached := s.execute(ctx, lang, code)

	s.mu.Lock()
	s.running = false
	s.result = result
	if result.Failed() {
		s.errMsg = result.Error
	} else {
		s.output = result.Output
	}
	s.mu.Unlock()

	if s.recorder == nil || !reached {
		return nil
	}
	var output, errMsg *string
	if result.Failed() {
		errMsg = &result.Error
	} else {
		output = &result.Output
	}
	if err := s.recorder.Record(ctx, lang, code, output, errMsg); err != nil {
		return fmt.Errorf("editor: recording run: %w", err)
	}
	return nil
}

// execute always returns a Result. reached is false when the backend could
// not be called at all; the Result then carries MsgRunFailed.
func (s *Session) execute(ctx context.Context, lang, code string) (result *executor.Result, reached bool) {
	failed := &executor.Result{Error: MsgRunFailed, Stage: executor.StageAPI}
	rt, ok := language.Lookup(lang)
	if !ok || s.runner == nil {
		return failed, false
	}
	result, err := s.runner.Execute(ctx, executor.Request{Language: rt.Runtime, Version: rt.Version, Code: code})
	if err != nil {
		s.logger.Error("code execution failed",
			slog.String("session_id", s.id),
			slog.String("language", lang),
			slog.String("error", err.Error()),
		)
		return failed, false
	}
	return result, true
}

func (s *Session) persist(key, value string) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Set(key, value); err != nil {
		return fmt.Errorf("editor: saving %s: %w", key, err)
	}
	return nil
}
