package fuzzy

import (
	"errors"
	"fmt"
	"strings"

	fzf "github.com/junegunn/fzf/src"
)

// ErrCancelled is returned when the user leaves the picker without choosing
var ErrCancelled = errors.New("selection cancelled")

const descriptionSeparator = "  │  "

// FzfRunner defines the interface for running fzf
type FzfRunner interface {
	Run(opts *fzf.Options) (int, error)
}

// DefaultFzfRunner implements the FzfRunner interface using the real fzf library
type DefaultFzfRunner struct{}

// Run executes fzf with the given options
func (r *DefaultFzfRunner) Run(opts *fzf.Options) (int, error) {
	return fzf.Run(opts)
}

// FzfFinder implements fuzzy finding using the fzf library
type FzfFinder struct {
	options  []Option
	prompt   string
	runner   FzfRunner
	fallback func() *Finder
}

// NewFzf creates a new fzf-style fuzzy finder
func NewFzf(prompt string) *FzfFinder {
	return NewFzfWithRunner(prompt, &DefaultFzfRunner{})
}

// NewFzfWithRunner creates a new fzf-style fuzzy finder with a custom runner (for testing)
func NewFzfWithRunner(prompt string, runner FzfRunner) *FzfFinder {
	f := &FzfFinder{
		prompt:  prompt,
		options: make([]Option, 0),
		runner:  runner,
	}
	f.fallback = func() *Finder { return New(f.prompt) }
	return f
}

// SetOptions sets the available options for selection
func (f *FzfFinder) SetOptions(options []Option) error {
	if options == nil {
		return fmt.Errorf("options cannot be nil")
	}

	f.options = make([]Option, len(options))
	copy(f.options, options)
	return nil
}

// SetPrompt sets the display prompt
func (f *FzfFinder) SetPrompt(prompt string) {
	f.prompt = prompt
}

// Select feeds the options to fzf and returns the chosen value. If fzf
// cannot start, the line-based Finder takes over.
func (f *FzfFinder) Select() (string, error) {
	if len(f.options) == 0 {
		return "", fmt.Errorf("no options available")
	}

	opts, err := fzf.ParseOptions(true, []string{
		"--prompt=" + f.prompt + " ",
		"--height=40%",
		"--layout=reverse",
		"--no-multi",
		"--cycle",
		"--tiebreak=length",
		"--no-mouse",
		"--border=none",
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse fzf options: %w", err)
	}

	input := make(chan string, len(f.options))
	for _, option := range f.options {
		input <- displayText(option)
	}
	close(input)

	output := make(chan string, len(f.options))
	opts.Input = input
	opts.Output = output

	exitCode, err := f.runner.Run(opts)
	if err != nil {
		return f.fallbackSelect()
	}

	switch exitCode {
	case fzf.ExitOk:
	case fzf.ExitInterrupt, fzf.ExitNoMatch:
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("fzf exited with code %d", exitCode)
	}

	var selected string
	select {
	case selected = <-output:
	default:
	}
	return f.valueOf(selected)
}

func displayText(option Option) string {
	if option.Description == "" {
		return option.Value
	}
	return option.Value + descriptionSeparator + option.Description
}

// valueOf maps a selected line back to its option value
func (f *FzfFinder) valueOf(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrCancelled
	}

	value, _, _ := strings.Cut(line, descriptionSeparator)
	value = strings.TrimSpace(value)
	for _, option := range f.options {
		if option.Value == value {
			return option.Value, nil
		}
	}
	return "", fmt.Errorf("unknown selection %q", value)
}

// FzfFinderInterface defines the interface for fzf-based fuzzy finding
type FzfFinderInterface interface {
	SetOptions(options []Option) error
	SetPrompt(prompt string)
	Select() (string, error)
}

// fallbackSelect provides a simple selection for when fzf fails
func (f *FzfFinder) fallbackSelect() (string, error) {
	finder := f.fallback()
	for _, option := range f.options {
		finder.AddOption(option.Value, option.Description)
	}
	return finder.SelectWithFilter()
}

// Ensure FzfFinder implements the interface
var _ FzfFinderInterface = (*FzfFinder)(nil)
