package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
)

const replHelp = `Commands:
  load <youtube-url>          list transcript languages for a video
  fetch <language-code>       fetch the transcript in a listed language
  manual <text>               paste a transcript after automatic retrieval failed
  key <api-key>               validate and store the chat provider API key
  task <task> [language]      run a primary task on the transcript
  followup <task> [language]  run a follow-up task on the summary
  languages                   list translation target languages
  show                        print the session record
  reset                       clear the session
  help                        show this help
  exit                        quit`

// repl drives one in-process session from line commands
type repl struct {
	orchestrator *workflow.Orchestrator
	languages    []transcript.Language
	record       workflow.Record
	outDir       string

	in  io.Reader
	out io.Writer
}

// run reads commands until exit or end of input
func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, "Learn With AI started. Type 'help' for commands, 'exit' to quit.")

	// Create scanner for reading user input
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for {
		fmt.Fprintf(r.out, "\n[%s]> ", r.record.State())

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.out, "Error: %s\n", apperrors.MessageOf(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// execute runs a single command line
func (r *repl) execute(ctx context.Context, line string) error {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	var (
		result *workflow.Result
		err    error
	)

	switch strings.ToLower(command) {
	case "help":
		fmt.Fprintln(r.out, replHelp)
		return nil

	case "show":
		r.show()
		return nil

	case "languages":
		for _, lang := range r.languages {
			fmt.Fprintf(r.out, "  %s - %s\n", lang.Code, lang.Name)
		}
		return nil

	case "load":
		if len(args) != 1 {
			return apperrors.NewInvalidInput("usage: load <youtube-url>")
		}
		result, err = r.orchestrator.LoadTranscriptOptions(ctx, &r.record, args[0])
		if err == nil {
			for _, lang := range r.record.AvailableLanguages {
				fmt.Fprintf(r.out, "  %s - %s\n", lang.Code, lang.Name)
			}
		} else if r.record.ManualFallbackActive {
			fmt.Fprintln(r.out, "Automatic transcript retrieval failed. Paste the transcript in English with 'manual <text>'.")
		}

	case "fetch":
		if len(args) != 1 {
			return apperrors.NewInvalidInput("usage: fetch <language-code>")
		}
		result, err = r.orchestrator.FetchTranscript(ctx, &r.record, args[0])
		if err != nil && r.record.ManualFallbackActive {
			fmt.Fprintln(r.out, "Automatic transcript retrieval failed. Paste the transcript in English with 'manual <text>'.")
		}

	case "manual":
		result, err = r.orchestrator.AcceptManualTranscript(ctx, &r.record, rest)

	case "key":
		if len(args) != 1 {
			return apperrors.NewInvalidInput("usage: key <api-key>")
		}
		result, err = r.orchestrator.SetCredential(ctx, &r.record, args[0])

	case "task":
		if len(args) < 1 || len(args) > 2 {
			return apperrors.NewInvalidInput("usage: task <task> [language]")
		}
		task, perr := workflow.ParsePrimaryTask(args[0])
		if perr != nil {
			return perr
		}
		result, err = r.orchestrator.RunPrimary(ctx, &r.record, task, argAt(args, 1), r.progress)

	case "followup":
		if len(args) < 1 || len(args) > 2 {
			return apperrors.NewInvalidInput("usage: followup <task> [language]")
		}
		task, perr := workflow.ParseFollowupTask(args[0])
		if perr != nil {
			return perr
		}
		result, err = r.orchestrator.RunFollowup(ctx, &r.record, task, argAt(args, 1), r.progress)

	case "reset":
		result = r.orchestrator.Reset(ctx, &r.record)

	default:
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown command %q (type 'help')", command))
	}

	if err != nil {
		return err
	}
	return r.print(result)
}

// progress prints per-chunk progress
func (r *repl) progress(task string, done, total int) {
	fmt.Fprintf(r.out, "  %s: chunk %d/%d\n", task, done, total)
}

// print shows a result, writing binary artifacts to the output directory
func (r *repl) print(result *workflow.Result) error {
	for _, warning := range result.Warnings {
		fmt.Fprintf(r.out, "Warning: %s\n", warning)
	}
	fmt.Fprintln(r.out, result.Message)

	artifact := result.Artifact
	if artifact == nil {
		return nil
	}

	if len(artifact.Data) > 0 {
		path := filepath.Join(r.outDir, artifact.Filename)
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(r.out, "Saved %s\n", path)
		return nil
	}

	if artifact.Kind != workflow.ArtifactTranscript {
		fmt.Fprintf(r.out, "\n%s\n", artifact.Text)
	}
	return nil
}

// show prints the current record without the credential
func (r *repl) show() {
	rec := r.record.Redacted()

	fmt.Fprintf(r.out, "State:      %s\n", rec.State())
	fmt.Fprintf(r.out, "Video:      %s\n", rec.VideoID)
	fmt.Fprintf(r.out, "Transcript: %s (%d chars)\n", rec.TranscriptLang, len(rec.TranscriptText))
	fmt.Fprintf(r.out, "Summary:    %s (%d chars)\n", rec.SummaryLang, len(rec.SummaryText))
	fmt.Fprintf(r.out, "API key:    %t\n", rec.CredentialValid)
	if rec.SummaryText != "" {
		fmt.Fprintf(r.out, "\n%s\n", rec.SummaryText)
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
