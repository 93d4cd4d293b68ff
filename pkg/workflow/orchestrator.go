package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/transform"
)

// Transforms are the text transforms available to a session. transform.Service
// satisfies it.
type Transforms interface {
	Translate(ctx context.Context, text, source, target string, progress transform.Progress) (*transform.Output, error)
	Summarize(ctx context.Context, text string, progress transform.Progress) (*transform.Output, error)
	ChatSummary(ctx context.Context, text, credential string, progress transform.Progress) (*transform.Output, error)
	Steps(ctx context.Context, text, credential string, progress transform.Progress) (*transform.Output, error)
	Quiz(ctx context.Context, text, credential string, progress transform.Progress) (*transform.Output, error)
}

// Voices hands out speech synthesizers. The returned func releases the
// synthesizer and must always be called.
type Voices interface {
	LocalSpeech(ctx context.Context) (narration.Synthesizer, func(), error)
	RemoteSpeech(ctx context.Context, credential string) (narration.Synthesizer, func(), error)
}

// Credentials validates chat provider keys
type Credentials interface {
	ValidateCredential(ctx context.Context, credential string) error
	InvalidateCredential(credential string)
}

// Reporter receives per-chunk progress for the running task. It may be nil.
type Reporter func(task string, done, total int)

func (r Reporter) progress(task string) transform.Progress {
	if r == nil {
		return nil
	}
	return func(done, total int) {
		r(task, done, total)
	}
}

// ArtifactKind identifies what a task produced
type ArtifactKind string

const (
	ArtifactTranscript  ArtifactKind = "transcript"
	ArtifactTranslation ArtifactKind = "translation"
	ArtifactSummary     ArtifactKind = "summary"
	ArtifactSteps       ArtifactKind = "steps"
	ArtifactQuiz        ArtifactKind = "quiz"
	ArtifactDownload    ArtifactKind = "download"
	ArtifactAudio       ArtifactKind = "audio"
)

// Artifact is the output of a task. Text artifacts carry Text, downloads and
// audio carry Data.
type Artifact struct {
	Kind        ArtifactKind `json:"kind"`
	Text        string       `json:"text,omitempty"`
	Lang        string       `json:"lang,omitempty"`
	Filename    string       `json:"filename,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	Data        []byte       `json:"-"`
}

// Result describes the outcome of an operation
type Result struct {
	State    State     `json:"state"`
	Message  string    `json:"message"`
	Artifact *Artifact `json:"artifact,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Dependencies are the collaborators an orchestrator drives
type Dependencies struct {
	Source      transcript.Source
	Transforms  Transforms
	Voices      Voices
	Credentials Credentials
	Narrator    *narration.Narrator
}

// Orchestrator applies user actions to a session record. It holds no
// session state itself; callers own the record and serialize actions on it.
type Orchestrator struct {
	source      transcript.Source
	transforms  Transforms
	voices      Voices
	credentials Credentials
	narrator    *narration.Narrator
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(deps Dependencies) *Orchestrator {
	narrator := deps.Narrator
	if narrator == nil {
		narrator = narration.NewNarrator(narration.DefaultChunkWords)
	}

	return &Orchestrator{
		source:      deps.Source,
		transforms:  deps.Transforms,
		voices:      deps.Voices,
		credentials: deps.Credentials,
		narrator:    narrator,
	}
}

// LoadTranscriptOptions resolves a watch URL and lists its caption languages.
// A retrieval failure activates the manual transcript fallback unless a
// transcript is already loaded.
func (o *Orchestrator) LoadTranscriptOptions(ctx context.Context, rec *Record, url string) (*Result, error) {
	videoID, ok := transcript.ResolveVideoID(url)
	if !ok {
		return nil, apperrors.NewInvalidInput("Invalid YouTube URL.")
	}

	// A different video starts a new hub
	if videoID != rec.VideoID {
		rec.clearTranscript()
	}
	rec.VideoID = videoID
	rec.AvailableLanguages = nil

	langs, err := o.source.ListLanguages(ctx, videoID)
	if err != nil {
		log.Printf("[WORKFLOW]: listing transcripts for %s failed: %v", videoID, err)
		rec.ManualFallbackActive = !rec.HasTranscript()
		return nil, retrievalError("Error listing transcripts", err)
	}

	rec.AvailableLanguages = langs
	rec.ManualFallbackActive = false
	return &Result{
		State:   rec.State(),
		Message: fmt.Sprintf("Transcript options loaded (%d languages).", len(langs)),
	}, nil
}

// FetchTranscript retrieves the transcript in one of the listed languages
func (o *Orchestrator) FetchTranscript(ctx context.Context, rec *Record, code string) (*Result, error) {
	if rec.VideoID == "" || len(rec.AvailableLanguages) == 0 {
		return nil, apperrors.NewInvariant("load transcript options before fetching a transcript")
	}
	code = strings.TrimSpace(code)
	if !transcript.HasLanguage(rec.AvailableLanguages, code) {
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("no transcript in language %q", code))
	}

	text, err := o.source.Fetch(ctx, rec.VideoID, code)
	if err != nil {
		log.Printf("[WORKFLOW]: fetching %s transcript for %s failed: %v", code, rec.VideoID, err)
		rec.ManualFallbackActive = !rec.HasTranscript()
		return nil, retrievalError("Error fetching transcript", err)
	}

	rec.clearTranscript()
	rec.TranscriptText = text
	rec.TranscriptLang = code
	rec.ManualFallbackActive = false
	return &Result{
		State:   rec.State(),
		Message: "Transcript fetched successfully.",
		Artifact: &Artifact{
			Kind: ArtifactTranscript,
			Text: text,
			Lang: code,
		},
	}, nil
}

// AcceptManualTranscript stores pasted transcript text as English. It is only
// available once automatic retrieval failed and no transcript is loaded.
func (o *Orchestrator) AcceptManualTranscript(_ context.Context, rec *Record, text string) (*Result, error) {
	if !rec.ManualFallbackActive || rec.HasTranscript() {
		return nil, apperrors.NewInvariant("manual transcripts are only accepted after automatic retrieval failed")
	}

	accepted, err := transcript.AcceptManual(text)
	if err != nil {
		return nil, err
	}

	rec.clearTranscript()
	rec.TranscriptText = accepted
	rec.TranscriptLang = transcript.ManualLanguage
	rec.ManualFallbackActive = false
	return &Result{
		State:   rec.State(),
		Message: "Transcript loaded from manual input.",
	}, nil
}

// SetCredential validates a chat provider key and stores it on success. An
// already validated key is not checked again.
func (o *Orchestrator) SetCredential(ctx context.Context, rec *Record, credential string) (*Result, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, apperrors.NewInvalidInput("API key is empty")
	}

	if credential == rec.Credential && rec.CredentialValid {
		return &Result{State: rec.State(), Message: "API key already validated."}, nil
	}

	if err := o.credentials.ValidateCredential(ctx, credential); err != nil {
		if apperrors.Is(err, apperrors.ErrCredential) {
			rec.forgetCredential()
		}
		return nil, apperrors.Wrap("Error validating API key", err)
	}

	rec.Credential = credential
	rec.CredentialValid = true
	return &Result{State: rec.State(), Message: "API key validated."}, nil
}

// RunPrimary applies a primary task to the transcript. Summaries become the
// session summary; every other output is returned without touching the record.
func (o *Orchestrator) RunPrimary(ctx context.Context, rec *Record, task PrimaryTask, target string, report Reporter) (*Result, error) {
	if !rec.HasTranscript() {
		return nil, apperrors.NewInvariant("a transcript is required before running a task")
	}
	if task.RequiresCredential() && !rec.HasCredential() {
		return nil, apperrors.NewCredential("a validated API key is required for this task", nil)
	}
	if task == TaskTranslation && strings.TrimSpace(target) == "" {
		return nil, apperrors.NewInvalidInput("target language is required")
	}

	rec.Running = StateRunningPrimary
	defer func() { rec.Running = "" }()

	var (
		out  *transform.Output
		kind ArtifactKind
		lang = rec.TranscriptLang
		err  error
	)

	switch task {
	case TaskTranslation:
		target = strings.TrimSpace(target)
		out, err = o.transforms.Translate(ctx, rec.TranscriptText, rec.TranscriptLang, target, report.progress("Translation"))
		kind, lang = ArtifactTranslation, target
	case TaskSummaryLocal:
		out, err = o.transforms.Summarize(ctx, rec.TranscriptText, report.progress("Summarization"))
		kind = ArtifactSummary
	case TaskSummaryChat:
		out, err = o.transforms.ChatSummary(ctx, rec.TranscriptText, rec.Credential, report.progress("Summarization"))
		kind = ArtifactSummary
	case TaskStepsChat:
		out, err = o.transforms.Steps(ctx, rec.TranscriptText, rec.Credential, report.progress("Step generation"))
		kind = ArtifactSteps
	case TaskQuizChat:
		out, err = o.transforms.Quiz(ctx, rec.TranscriptText, rec.Credential, report.progress("Quiz generation"))
		kind = ArtifactQuiz
	default:
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("unknown primary task %q", task))
	}

	if err != nil {
		return nil, o.handleTaskError(rec, string(task), err)
	}

	if task.Chainable() {
		rec.SummaryText = out.Text
		rec.SummaryLang = lang
	}

	return &Result{
		State:    rec.stateAfterRun(),
		Message:  completionMessage(kind, out.Report),
		Artifact: &Artifact{Kind: kind, Text: out.Text, Lang: lang},
		Warnings: out.Report.Warnings,
	}, nil
}

// RunFollowup applies a follow-up task to the current summary
func (o *Orchestrator) RunFollowup(ctx context.Context, rec *Record, task FollowupTask, target string, report Reporter) (*Result, error) {
	if !rec.HasSummary() {
		return nil, apperrors.NewInvariant("a summary is required before running a follow-up task")
	}
	if task.RequiresCredential() && !rec.HasCredential() {
		return nil, apperrors.NewCredential("a validated API key is required for this task", nil)
	}
	if task == TaskSummaryTranslation && strings.TrimSpace(target) == "" {
		return nil, apperrors.NewInvalidInput("target language is required")
	}

	rec.Running = StateRunningFollowup
	defer func() { rec.Running = "" }()

	switch task {
	case TaskDownloadSummary:
		return &Result{
			State:   rec.stateAfterRun(),
			Message: "Summary ready for download.",
			Artifact: &Artifact{
				Kind:        ArtifactDownload,
				Text:        rec.SummaryText,
				Lang:        rec.SummaryLang,
				Filename:    "summary.txt",
				ContentType: "text/plain; charset=utf-8",
				Data:        []byte(rec.SummaryText),
			},
		}, nil

	case TaskSummaryTranslation:
		target = strings.TrimSpace(target)
		out, err := o.transforms.Translate(ctx, rec.SummaryText, rec.SummaryLang, target, report.progress("Translation"))
		if err != nil {
			return nil, o.handleTaskError(rec, string(task), err)
		}

		rec.SummaryText = out.Text
		rec.SummaryLang = target
		return &Result{
			State:    rec.stateAfterRun(),
			Message:  completionMessage(ArtifactTranslation, out.Report),
			Artifact: &Artifact{Kind: ArtifactSummary, Text: out.Text, Lang: target},
			Warnings: out.Report.Warnings,
		}, nil

	case TaskSummaryAudioLocal, TaskSummaryAudioChat:
		var (
			synth   narration.Synthesizer
			release func()
			err     error
		)
		if task == TaskSummaryAudioLocal {
			synth, release, err = o.voices.LocalSpeech(ctx)
		} else {
			synth, release, err = o.voices.RemoteSpeech(ctx, rec.Credential)
		}
		if err != nil {
			return nil, o.handleTaskError(rec, string(task), err)
		}
		defer release()

		recording, err := o.narrator.Narrate(ctx, synth, rec.SummaryText, report.progress("Audio generation"))
		if err != nil {
			return nil, o.handleTaskError(rec, string(task), err)
		}

		return &Result{
			State:   rec.stateAfterRun(),
			Message: completionMessage(ArtifactAudio, recording.Report),
			Artifact: &Artifact{
				Kind:        ArtifactAudio,
				Lang:        rec.SummaryLang,
				Filename:    "summary.wav",
				ContentType: narration.ContentType,
				Data:        recording.Data,
			},
			Warnings: recording.Report.Warnings,
		}, nil
	}

	return nil, apperrors.NewInvalidInput(fmt.Sprintf("unknown follow-up task %q", task))
}

// Reset clears every field of the record, credential included
func (o *Orchestrator) Reset(_ context.Context, rec *Record) *Result {
	*rec = Record{}
	return &Result{State: rec.State(), Message: "App has been reset successfully."}
}

// handleTaskError drops a credential the provider rejected so the user is
// asked for a new one on the next chat task. It returns err with a
// user-facing message.
func (o *Orchestrator) handleTaskError(rec *Record, task string, err error) error {
	log.Printf("[WORKFLOW]: %s failed: %v", task, err)

	if apperrors.Is(err, apperrors.ErrCredential) && rec.Credential != "" {
		if o.credentials != nil {
			o.credentials.InvalidateCredential(rec.Credential)
		}
		rec.forgetCredential()
	}
	return apperrors.Wrap("Error running "+task, err)
}

// retrievalError classifies an untyped transcript source failure as RETRIEVAL
func retrievalError(msg string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewRetrieval(fmt.Sprintf("%s: %v", msg, err), err)
}

func completionMessage(kind ArtifactKind, report transform.Report) string {
	var label string
	switch kind {
	case ArtifactTranslation:
		label = "Translation"
	case ArtifactSummary:
		label = "Summary"
	case ArtifactSteps:
		label = "Steps"
	case ArtifactQuiz:
		label = "Quiz"
	case ArtifactAudio:
		label = "Audio"
	default:
		label = "Task"
	}

	if report.Succeeded < report.Total {
		return fmt.Sprintf("%s generated from %d of %d chunks.", label, report.Succeeded, report.Total)
	}
	return fmt.Sprintf("%s generated.", label)
}
