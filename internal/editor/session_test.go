package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecraft/internal/executor"
)

type fakeRunner struct {
	result *executor.Result
	err    error
	got    executor.Request
}

func (f *fakeRunner) Execute(_ context.Context, req executor.Request) (*executor.Result, error) {
	f.got = req
	return f.result, f.err
}

type recorded struct {
	lang, code     string
	output, errMsg *string
}

type fakeRecorder struct {
	runs []recorded
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, lang, code string, output, errMsg *string) error {
	f.runs = append(f.runs, recorded{lang, code, output, errMsg})
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =========================================================================
// PREFERENCE TESTS
// =========================================================================

func TestNewSession_DefaultsWithoutStore(t *testing.T) {
	s := NewSession(nil, nil, nil, testLogger())
	st := s.State()

	assert.Equal(t, "javascript", st.Language)
	assert.Equal(t, 16, st.FontSize)
	assert.Equal(t, "vs-dark", st.Theme)
	assert.Empty(t, st.Code)
	_, err := uuid.Parse(s.ID())
	assert.NoError(t, err)

	// Setters still work without a store; nothing is persisted.
	require.NoError(t, s.SetTheme("light"))
	assert.Equal(t, "light", s.State().Theme)
}

func TestNewSession_RestoresFromStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyLanguage, "python"))
	require.NoError(t, store.Set(KeyFontSize, "20"))
	require.NoError(t, store.Set(KeyTheme, "vs-light"))
	require.NoError(t, store.Set(CodeKey("python"), "print(1)"))

	st := NewSession(store, nil, nil, testLogger()).State()
	assert.Equal(t, "python", st.Language)
	assert.Equal(t, 20, st.FontSize)
	assert.Equal(t, "vs-light", st.Theme)
	assert.Equal(t, "print(1)", st.Code)
}

func TestNewSession_IgnoresBadFontSize(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyFontSize, "huge"))
	assert.Equal(t, DefaultFontSize, NewSession(store, nil, nil, testLogger()).State().FontSize)
}

func TestSetFontSize_PersistsUnderReadKey(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store, nil, nil, testLogger())
	require.NoError(t, s.SetFontSize(18))

	assert.Equal(t, 18, NewSession(store, nil, nil, testLogger()).State().FontSize)
	assert.Error(t, s.SetFontSize(0))
}

func TestSetLanguage_SwapsBuffers(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store, nil, nil, testLogger())
	s.SetCode("console.log(1)")

	require.NoError(t, s.SetLanguage("python"))
	st := s.State()
	assert.Equal(t, "python", st.Language)
	assert.Empty(t, st.Code)

	saved, ok := store.Get(CodeKey("javascript"))
	require.True(t, ok)
	assert.Equal(t, "console.log(1)", saved)

	s.SetCode("print(2)")
	require.NoError(t, s.SetLanguage("javascript"))
	assert.Equal(t, "console.log(1)", s.State().Code)

	lang, _ := store.Get(KeyLanguage)
	assert.Equal(t, "javascript", lang)
}

func TestSetLanguage_ClearsOutputAndError(t *testing.T) {
	runner := &fakeRunner{result: &executor.Result{Output: "1\n"}}
	s := NewSession(NewMemoryStore(), runner, nil, testLogger())
	s.SetCode("console.log(1)")
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, "1\n", s.State().Output)

	require.NoError(t, s.SetLanguage("python"))
	st := s.State()
	assert.Empty(t, st.Output)
	assert.Empty(t, st.Error)
	assert.Nil(t, st.Result)
}

func TestSetLanguage_RejectsUnknown(t *testing.T) {
	s := NewSession(nil, nil, nil, testLogger())
	assert.Error(t, s.SetLanguage("cobol"))
	assert.Equal(t, DefaultLanguage, s.State().Language)
}

// =========================================================================
// RUN TESTS
// =========================================================================

func TestRun_EmptyCode(t *testing.T) {
	runner := &fakeRunner{result: &executor.Result{Output: "unreachable"}}
	rec := &fakeRecorder{}
	s := NewSession(nil, runner, rec, testLogger())
	s.SetCode("   \n\t")

	require.NoError(t, s.Run(context.Background()))
	st := s.State()
	assert.Equal(t, MsgEmptyCode, st.Error)
	assert.Empty(t, st.Output)
	assert.Empty(t, rec.runs)
}

func TestRun_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		result     *executor.Result
		err        error
		wantOutput string
		wantError  string
		wantRecord bool
	}{
		{
			name:       "success",
			result:     &executor.Result{Output: "hello\n"},
			wantOutput: "hello\n",
			wantRecord: true,
		},
		{
			name:       "compile failure",
			result:     &executor.Result{Error: "SyntaxError", Stage: executor.StageCompile, ExitCode: 1},
			wantError:  "SyntaxError",
			wantRecord: true,
		},
		{
			name:      "transport failure",
			err:       errors.New("connection refused"),
			wantError: MsgRunFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result, err: tt.err}
			rec := &fakeRecorder{}
			s := NewSession(nil, runner, rec, testLogger())
			s.SetCode("console.log('hello')")

			require.NoError(t, s.Run(context.Background()))
			st := s.State()
			assert.Equal(t, tt.wantOutput, st.Output)
			assert.Equal(t, tt.wantError, st.Error)
			assert.False(t, st.IsRunning)

			assert.Equal(t, "javascript", runner.got.Language)
			assert.Equal(t, "18.15.0", runner.got.Version)

			if !tt.wantRecord {
				assert.Empty(t, rec.runs)
				return
			}
			require.Len(t, rec.runs, 1)
			if tt.wantError != "" {
				assert.Nil(t, rec.runs[0].output)
				require.NotNil(t, rec.runs[0].errMsg)
				assert.Equal(t, tt.wantError, *rec.runs[0].errMsg)
			} else {
				assert.Nil(t, rec.runs[0].errMsg)
				require.NotNil(t, rec.runs[0].output)
				assert.Equal(t, tt.wantOutput, *rec.runs[0].output)
			}
		})
	}
}

func TestRun_NoRunner(t *testing.T) {
	s := NewSession(nil, nil, nil, testLogger())
	s.SetCode("1")
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, MsgRunFailed, s.State().Error)
}

func TestRun_RecorderErrorIsReturned(t *testing.T) {
	runner := &fakeRunner{result: &executor.Result{Output: "ok"}}
	rec := &fakeRecorder{err: errors.New("server down")}
	s := NewSession(nil, runner, rec, testLogger())
	s.SetCode("1")

	err := s.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "ok", s.State().Output, "the run outcome is kept even when recording fails")
}
