package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethanbaker/learnwithai/internal/bootstrap"
	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/sdk"
	"github.com/ethanbaker/learnwithai/pkg/utils"
)

// newCLIApp creates the command line application. With no command it starts
// an interactive session in process; the remote commands drive a running API.
func newCLIApp(cfg *utils.Config, in io.Reader, out io.Writer) *cli.App {
	app := &cli.App{
		Name:   "learnwithai",
		Usage:  "Turn YouTube transcripts into summaries, steps, quizzes and narration",
		Reader: in,
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "Directory for downloaded summaries and audio"},
		},
		Action: func(c *cli.Context) error {
			wf, err := bootstrap.NewWorkflow(c.Context, cfg)
			if err != nil {
				return outputError(err)
			}

			r := &repl{
				orchestrator: wf.Orchestrator,
				languages:    wf.Transforms.Matrix().Languages,
				outDir:       c.String("out"),
				in:           c.App.Reader,
				out:          c.App.Writer,
			}
			return r.run(c.Context)
		},
		Commands: []*cli.Command{
			remoteCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// remoteCmd groups the commands that call a running API server
func remoteCmd(cfg *utils.Config) *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Drive a session on a running API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Value: cfg.GetWithDefault("API_URL", "http://localhost:8080"), Usage: "API server base URL"},
			&cli.StringFlag{Name: "api-key", Value: cfg.Get("API_KEY"), Usage: "Value for the X-API-KEY header"},
		},
		Subcommands: []*cli.Command{
			createCmd(),
			showCmd(),
			optionsCmd(),
			fetchCmd(),
			manualCmd(),
			keyCmd(),
			taskCmd(),
			followupCmd(),
			resetCmd(),
			deleteCmd(),
			languagesCmd(),
			downloadCmd(),
		},
	}
}

// client builds an SDK client from the remote flags
func client(c *cli.Context) *sdk.Client {
	return sdk.NewClient(strings.TrimRight(c.String("url"), "/"), c.String("api-key"))
}

// sessionArg returns the required session id argument
func sessionArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", apperrors.NewInvalidInput("session id is required")
	}
	return c.Args().First(), nil
}

// argsCmd builds a command taking a session id and one more required
// argument, posting them through call
func argsCmd(name, usage, argsUsage, argName string, call func(c *cli.Context, id, arg string) (*sdk.ActionResponse, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(apperrors.NewInvalidInput(fmt.Sprintf("session id and %s are required", argName)))
			}

			resp, err := call(c, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, resp)
		},
	}
}

// createCmd creates the create command.
func createCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an empty session",
		Action: func(c *cli.Context) error {
			sess, err := client(c).CreateSession(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, sess)
		},
	}
}

// showCmd creates the show command.
func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a session",
		ArgsUsage: "<session>",
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return outputError(err)
			}

			sess, err := client(c).GetSession(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, sess)
		},
	}
}

func optionsCmd() *cli.Command {
	return argsCmd("options", "List transcript languages for a video", "<session> <youtube-url>", "a YouTube URL",
		func(c *cli.Context, id, url string) (*sdk.ActionResponse, error) {
			return client(c).LoadTranscriptOptions(c.Context, id, url)
		})
}

func fetchCmd() *cli.Command {
	return argsCmd("fetch", "Fetch the transcript in a listed language", "<session> <language-code>", "a language code",
		func(c *cli.Context, id, language string) (*sdk.ActionResponse, error) {
			return client(c).FetchTranscript(c.Context, id, language)
		})
}

func keyCmd() *cli.Command {
	return argsCmd("key", "Validate and store a chat provider API key", "<session> <api-key>", "an API key",
		func(c *cli.Context, id, key string) (*sdk.ActionResponse, error) {
			return client(c).SetCredential(c.Context, id, key)
		})
}

// manualCmd creates the manual command.
func manualCmd() *cli.Command {
	return &cli.Command{
		Name:      "manual",
		Usage:     "Submit a pasted English transcript (reads text from stdin)",
		ArgsUsage: "<session>",
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return outputError(err)
			}

			// Require stdin input
			if c.App.Reader == os.Stdin && !stdinHasData() {
				return outputError(apperrors.NewInvalidInput("transcript text must be piped via stdin"))
			}

			text, err := readAll(c.App.Reader)
			if err != nil {
				return outputError(apperrors.NewInternal(err))
			}
			if text == "" {
				return outputError(apperrors.NewInvalidInput("transcript text is required"))
			}

			resp, err := client(c).SubmitManualTranscript(c.Context, id, text)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, resp)
		},
	}
}

// taskFlags are shared by the primary and follow-up commands
func taskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Target language code for translations"},
	}
}

// taskCmd creates the task command.
func taskCmd() *cli.Command {
	return &cli.Command{
		Name:      "task",
		Usage:     "Run a primary task: translation, summarisation-local, summarisation-chat, steps-chat, quiz-chat",
		ArgsUsage: "<session> <task>",
		Flags:     taskFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(apperrors.NewInvalidInput("session id and task are required"))
			}

			resp, err := client(c).RunPrimaryTask(c.Context, c.Args().Get(0), &sdk.TaskRequest{
				Task:           c.Args().Get(1),
				TargetLanguage: c.String("target"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, resp)
		},
	}
}

// followupCmd creates the followup command.
func followupCmd() *cli.Command {
	return &cli.Command{
		Name:      "followup",
		Usage:     "Run a follow-up task: download-summary, summary-translation, summary-audio-local, summary-audio-chat",
		ArgsUsage: "<session> <task>",
		Flags: append(taskFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "Directory for downloaded files"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(apperrors.NewInvalidInput("session id and task are required"))
			}

			resp, err := client(c).RunFollowupTask(c.Context, c.Args().Get(0), &sdk.TaskRequest{
				Task:           c.Args().Get(1),
				TargetLanguage: c.String("target"),
			})
			if err != nil {
				return outputError(err)
			}

			// Write binary artifacts to disk instead of printing base64
			if resp.Artifact != nil && resp.Artifact.Data != "" {
				path, err := saveArtifact(c.String("out"), resp.Artifact)
				if err != nil {
					return outputError(apperrors.NewInternal(err))
				}
				resp.Artifact.Data = path
			}
			return outputJSON(c, resp)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Clear a session",
		ArgsUsage: "<session>",
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return outputError(err)
			}

			resp, err := client(c).ResetSession(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, resp)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a session",
		ArgsUsage: "<session>",
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return outputError(err)
			}

			if err := client(c).DeleteSession(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"deleted": true, "id": id})
		},
	}
}

// languagesCmd creates the languages command.
func languagesCmd() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List translation target languages",
		Action: func(c *cli.Context) error {
			resp, err := client(c).ListLanguages(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, resp)
		},
	}
}

// downloadCmd creates the download command.
func downloadCmd() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Print the current summary as plain text",
		ArgsUsage: "<session>",
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return outputError(err)
			}

			text, err := client(c).DownloadSummary(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			_, err = fmt.Fprintln(c.App.Writer, text)
			return err
		},
	}
}

// saveArtifact decodes an artifact's payload into dir and returns the path
func saveArtifact(dir string, artifact *sdk.Artifact) (string, error) {
	data, err := artifact.Decode()
	if err != nil {
		return "", err
	}

	name := artifact.Filename
	if name == "" {
		name = string(artifact.Kind)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// outputJSON writes JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := apperrors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}

	var respErr *sdk.ResponseError
	if stderrors.As(err, &respErr) {
		if respErr.Detail != nil {
			return cli.Exit(fmt.Sprintf("[%s] %s", respErr.Detail.Code, respErr.Message), 1)
		}
		return cli.Exit(fmt.Sprintf("[%d] %s", respErr.Code, respErr.Message), 1)
	}

	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readAll reads all content from r.
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
