package fuzzy

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	fzf "github.com/junegunn/fzf/src"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFzfRunner implements FzfRunner for testing
type MockFzfRunner struct {
	// Choose picks the line fzf would print from the lines it was fed
	Choose    func(lines []string) string
	ExitCode  int
	Err       error
	CallCount int
	Lines     []string
}

// Run drains the input channel like fzf does and writes the choice
func (m *MockFzfRunner) Run(opts *fzf.Options) (int, error) {
	m.CallCount++
	m.Lines = nil
	for line := range opts.Input {
		m.Lines = append(m.Lines, line)
	}

	if m.Err != nil {
		return fzf.ExitError, m.Err
	}
	if m.Choose != nil {
		if line := m.Choose(m.Lines); line != "" {
			opts.Output <- line
		}
	}
	return m.ExitCode, nil
}

var testOptions = []Option{
	{Value: "all", Description: "every configured path"},
	{Value: "/etc/app/cmd_config.json", Description: "present"},
	{Value: "notes.txt"},
}

func TestNewFzf(t *testing.T) {
	finder := NewFzf("Test prompt")
	require.NotNil(t, finder)
	assert.Equal(t, "Test prompt", finder.prompt)
	assert.Empty(t, finder.options)
	assert.IsType(t, &DefaultFzfRunner{}, finder.runner)
}

func TestFzfSetOptions(t *testing.T) {
	finder := NewFzf("Test")
	assert.Error(t, finder.SetOptions(nil))

	options := append([]Option(nil), testOptions...)
	require.NoError(t, finder.SetOptions(options))

	// the finder keeps its own copy
	options[0].Value = "changed"
	assert.Equal(t, "all", finder.options[0].Value)
}

func TestFzfSelect(t *testing.T) {
	tests := []struct {
		name        string
		choose      func(lines []string) string
		exitCode    int
		expected    string
		expectError error
	}{
		{
			name:     "value with description",
			choose:   func(lines []string) string { return lines[1] },
			expected: "/etc/app/cmd_config.json",
		},
		{
			name:     "value without description",
			choose:   func(lines []string) string { return lines[2] },
			expected: "notes.txt",
		},
		{
			name:        "interrupted",
			exitCode:    fzf.ExitInterrupt,
			expectError: ErrCancelled,
		},
		{
			name:        "no match",
			exitCode:    fzf.ExitNoMatch,
			expectError: ErrCancelled,
		},
		{
			name:        "ok without output",
			exitCode:    fzf.ExitOk,
			expectError: ErrCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockFzfRunner{Choose: tt.choose, ExitCode: tt.exitCode}
			finder := NewFzfWithRunner("Pick:", runner)
			require.NoError(t, finder.SetOptions(testOptions))

			got, err := finder.Select()
			assert.Equal(t, 1, runner.CallCount)
			assert.Equal(t, []string{
				"all  │  every configured path",
				"/etc/app/cmd_config.json  │  present",
				"notes.txt",
			}, runner.Lines)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFzfSelect_NoOptions(t *testing.T) {
	runner := &MockFzfRunner{}
	finder := NewFzfWithRunner("Pick:", runner)

	_, err := finder.Select()
	assert.EqualError(t, err, "no options available")
	assert.Zero(t, runner.CallCount)
}

func TestFzfSelect_FallsBackWhenFzfFails(t *testing.T) {
	runner := &MockFzfRunner{Err: errors.New("not a terminal")}
	finder := NewFzfWithRunner("Pick:", runner)
	require.NoError(t, finder.SetOptions(testOptions))

	var out bytes.Buffer
	finder.fallback = func() *Finder {
		return NewWithIO(finder.prompt, strings.NewReader("notes\n"), &out)
	}

	got, err := finder.Select()
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", got)
	assert.Contains(t, out.String(), "Pick:")
}

func TestFzfValueOf_Unknown(t *testing.T) {
	finder := NewFzfWithRunner("Pick:", &MockFzfRunner{})
	require.NoError(t, finder.SetOptions(testOptions))

	_, err := finder.valueOf("ghost.txt")
	assert.Error(t, err)
}
