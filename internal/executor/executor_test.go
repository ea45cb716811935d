package executor

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		compile    *StageOutcome
		run        *StageOutcome
		wantOutput string
		wantError  string
		wantStage  string
	}{
		{
			name:      "api message wins over everything",
			message:   "python-9.9 runtime is unknown",
			compile:   &StageOutcome{ExitCode: 1, Stderr: "compile boom"},
			run:       &StageOutcome{Output: "hi"},
			wantError: "python-9.9 runtime is unknown",
			wantStage: StageAPI,
		},
		{
			name:      "compile failure beats a successful run block",
			compile:   &StageOutcome{ExitCode: 1, Stderr: "main.go:1: syntax error"},
			run:       &StageOutcome{Output: "should be ignored"},
			wantError: "main.go:1: syntax error",
			wantStage: StageCompile,
		},
		{
			name:      "compile failure falls back to stdout",
			compile:   &StageOutcome{ExitCode: 2, Stdout: "error on stdout\n"},
			run:       &StageOutcome{},
			wantError: "error on stdout",
			wantStage: StageCompile,
		},
		{
			name:      "run failure uses stderr",
			compile:   &StageOutcome{},
			run:       &StageOutcome{ExitCode: 1, Stdout: "partial", Stderr: "Traceback"},
			wantError: "Traceback",
			wantStage: StageRun,
		},
		{
			name:      "run failure with empty streams still has a message",
			run:       &StageOutcome{ExitCode: 137},
			wantError: "run failed with exit code 137",
			wantStage: StageRun,
		},
		{
			name:      "signal counts as failure",
			run:       &StageOutcome{Signal: "SIGKILL"},
			wantError: "run killed by SIGKILL",
			wantStage: StageRun,
		},
		{
			name:       "success returns run output",
			run:        &StageOutcome{Output: "hello\n", Stdout: "hello\n"},
			wantOutput: "hello\n",
		},
		{
			name:      "no blocks at all",
			wantError: "no result from execution backend",
			wantStage: StageAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.message, tt.compile, tt.run)
			if got.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", got.Output, tt.wantOutput)
			}
			if got.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", got.Error, tt.wantError)
			}
			if got.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", got.Stage, tt.wantStage)
			}
			if got.Failed() && got.Output != "" {
				t.Error("failed result must have empty Output")
			}
		})
	}
}
