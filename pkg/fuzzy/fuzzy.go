package fuzzy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Option represents a selectable option in the fuzzy finder
type Option struct {
	Value       string
	Description string
}

// Finder is a line-based picker used when fzf cannot drive the terminal
type Finder struct {
	prompt  string
	options []Option
	in      *bufio.Reader
	out     io.Writer
}

// New creates a finder reading from stdin and writing to stderr
func New(prompt string) *Finder {
	return NewWithIO(prompt, os.Stdin, os.Stderr)
}

// NewWithIO creates a finder on the given streams
func NewWithIO(prompt string, in io.Reader, out io.Writer) *Finder {
	return &Finder{
		prompt:  prompt,
		options: make([]Option, 0),
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// AddOption adds an option to the fuzzy finder
func (f *Finder) AddOption(value, description string) {
	f.options = append(f.options, Option{
		Value:       value,
		Description: description,
	})
}

// GetOptions returns all available options
func (f *Finder) GetOptions() []Option {
	return f.options
}

// SelectWithFilter lets the user pick by number or narrow the list by typing
// part of a value. A filter matching exactly one option selects it.
func (f *Finder) SelectWithFilter() (string, error) {
	if len(f.options) == 0 {
		return "", fmt.Errorf("no options available")
	}

	candidates := f.options
	for {
		fmt.Fprintln(f.out, f.prompt)
		f.list(candidates)
		fmt.Fprintf(f.out, "Filter or select (1-%d): ", len(candidates))

		input, err := f.in.ReadString('\n')
		input = strings.TrimSpace(input)
		if err != nil && input == "" {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if input == "" {
			candidates = f.options
			continue
		}

		if n, convErr := strconv.Atoi(input); convErr == nil {
			if n >= 1 && n <= len(candidates) {
				return candidates[n-1].Value, nil
			}
			fmt.Fprintf(f.out, "Selection %d is out of range (1-%d)\n\n", n, len(candidates))
			continue
		}

		filtered := filterOptions(candidates, input)
		switch len(filtered) {
		case 0:
			fmt.Fprintf(f.out, "No options match filter: %s\n\n", input)
		case 1:
			fmt.Fprintf(f.out, "Selected: %s\n", filtered[0].Value)
			return filtered[0].Value, nil
		default:
			candidates = filtered
		}

		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
}

func (f *Finder) list(options []Option) {
	for i, option := range options {
		if option.Description != "" {
			fmt.Fprintf(f.out, "%d. %s - %s\n", i+1, option.Value, option.Description)
		} else {
			fmt.Fprintf(f.out, "%d. %s\n", i+1, option.Value)
		}
	}
}

// filterOptions keeps options whose value or description contains filter,
// case-insensitively
func filterOptions(options []Option, filter string) []Option {
	filter = strings.ToLower(filter)
	var filtered []Option

	for _, option := range options {
		if strings.Contains(strings.ToLower(option.Value), filter) ||
			strings.Contains(strings.ToLower(option.Description), filter) {
			filtered = append(filtered, option)
		}
	}

	return filtered
}
