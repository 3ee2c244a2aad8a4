// Package cli implements the command-line front-end.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"askgemini/internal/history"
	"askgemini/internal/llm"
	"askgemini/internal/prompt"
	"askgemini/internal/qa"
)

const (
	inputPrompt = "Enter your question: "
	callerID    = "cli"
)

type Options struct {
	Model string
	Style prompt.Style
	// History is the number of recorded questions to print instead of
	// asking one. Zero means ask.
	History int
}

// ParseArgs reads flags from args and returns the remaining words, which
// form the question. Flag parsing stops at "--", at the first word that does
// not start with "-" and at the first unknown flag, so "-5 plus 3?" is a
// question.
func ParseArgs(name string, args []string, defaults Options, output io.Writer) (Options, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [question words...]\n\n", name)
		fmt.Fprintf(fs.Output(), "Without question words the question is read from standard input.\n")
		fmt.Fprintf(fs.Output(), "Put -- before a question that starts with a known flag name.\n")
		fmt.Fprintf(fs.Output(), "GEMINI_API_KEY must be set for the model call to succeed.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	model := fs.String("model", defaults.Model, "Gemini model identifier.")
	style := fs.String("style", string(defaults.Style), "Prompt style: inline or system.")
	historyLimit := fs.Int("history", defaults.History, "Print the N most recent recorded questions and exit.")

	flagArgs, words := splitFlags(fs, args)
	if err := fs.Parse(flagArgs); err != nil {
		return Options{}, nil, err
	}
	if *historyLimit < 0 {
		return Options{}, nil, fmt.Errorf("history must not be negative (history = %d)", *historyLimit)
	}

	parsedStyle, err := prompt.ParseStyle(*style)
	if err != nil {
		return Options{}, nil, err
	}

	return Options{
		Model:   strings.TrimSpace(*model),
		Style:   parsedStyle,
		History: *historyLimit,
	}, words, nil
}

// splitFlags separates leading flags known to fs from the question words.
func splitFlags(fs *flag.FlagSet, args []string) ([]string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args[:i], args[i+1:]
		}
		if len(arg) < 2 || arg[0] != '-' {
			return args[:i], args[i:]
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "h" || name == "help" {
			continue
		}

		f := fs.Lookup(name)
		if f == nil {
			return args[:i], args[i:]
		}

		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if !hasValue {
			i++
		}
	}

	return args, nil
}

// ReadQuestion joins words with a space, or prompts on out and reads one
// line from in when words is empty.
func ReadQuestion(words []string, in io.Reader, out io.Writer) (string, error) {
	if len(words) > 0 {
		return strings.Join(words, " "), nil
	}

	if _, err := io.WriteString(out, inputPrompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read question: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// HistoryReader lists recorded questions. *history.Store satisfies it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// PrintHistory writes up to limit recorded questions, newest first.
func PrintHistory(ctx context.Context, r HistoryReader, limit int, out io.Writer) error {
	entries, err := r.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if len(entries) == 0 {
		_, err = fmt.Fprintln(out, "No recorded questions.")
		return err
	}

	for _, e := range entries {
		result := "answer: " + e.Answer
		if e.Error != "" {
			result = "error: " + e.Error
		}

		if _, err = fmt.Fprintf(out, "%s [%s] %s\n  processed: %s\n  %s\n",
			e.CreatedAt.Format(time.RFC3339), e.Source, e.Question, e.Processed, result); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}

	return nil
}

// Run asks the question and prints the processed question and the answer
// or fallback. A failed model call is not an error of Run.
func Run(ctx context.Context, svc *qa.Service, question string, out io.Writer) error {
	result := svc.Ask(llm.WithCaller(ctx, callerID), question)

	if _, err := fmt.Fprintln(out, "\nProcessed question:\n", result.Processed); err != nil {
		return fmt.Errorf("write processed question: %w", err)
	}
	if _, err := fmt.Fprintln(out, "\nAnswer:\n", result.AnswerOrFallback()); err != nil {
		return fmt.Errorf("write answer: %w", err)
	}

	return nil
}
