package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// errAborted is returned when the user cancels a prompt with Ctrl-C
// or closes input.
var errAborted = errors.New("aborted")

type prompter struct {
	line        *liner.State
	historyPath string
}

func newPrompter(historyPath string) *prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	p := &prompter{line: line, historyPath: historyPath}
	if historyPath == "" {
		return p
	}

	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	return p
}

// Ask reads a line. Answers are never added to history.
func (p *prompter) Ask(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", promptErr(err)
	}
	return strings.TrimSpace(input), nil
}

// Secret reads a line without echoing it.
func (p *prompter) Secret(prompt string) (string, error) {
	input, err := p.line.PasswordPrompt(prompt)
	if err != nil {
		return "", promptErr(err)
	}
	return input, nil
}

// Confirm asks a yes or no question, defaulting to no.
func (p *prompter) Confirm(prompt string) (bool, error) {
	input, err := p.Ask(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Command reads a shell command and records it in history.
func (p *prompter) Command(prompt string) (string, error) {
	input, err := p.Ask(prompt)
	if err != nil {
		return "", err
	}
	if input != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (p *prompter) Close() error {
	defer p.line.Close()

	if p.historyPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.historyPath), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(p.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = p.line.WriteHistory(f)
	return err
}

func promptErr(err error) error {
	if err == liner.ErrPromptAborted || errors.Is(err, io.EOF) {
		return errAborted
	}
	return err
}
