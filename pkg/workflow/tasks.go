package workflow

import (
	"fmt"
	"strings"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
)

// PrimaryTask is a transform applied to the transcript
type PrimaryTask string

const (
	TaskTranslation  PrimaryTask = "translation"
	TaskSummaryLocal PrimaryTask = "summarisation-local"
	TaskSummaryChat  PrimaryTask = "summarisation-chat"
	TaskStepsChat    PrimaryTask = "steps-chat"
	TaskQuizChat     PrimaryTask = "quiz-chat"
)

// PrimaryTasks lists every primary task in display order
var PrimaryTasks = []PrimaryTask{TaskTranslation, TaskSummaryLocal, TaskSummaryChat, TaskStepsChat, TaskQuizChat}

// ParsePrimaryTask converts a task name into a PrimaryTask
func ParsePrimaryTask(s string) (PrimaryTask, error) {
	task := PrimaryTask(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range PrimaryTasks {
		if t == task {
			return t, nil
		}
	}
	return "", apperrors.NewInvalidInput(fmt.Sprintf("unknown primary task %q", s))
}

// RequiresCredential reports whether the task calls the chat provider
func (t PrimaryTask) RequiresCredential() bool {
	switch t {
	case TaskSummaryChat, TaskStepsChat, TaskQuizChat:
		return true
	}
	return false
}

// Chainable reports whether the task output becomes the session summary
func (t PrimaryTask) Chainable() bool {
	return t == TaskSummaryLocal || t == TaskSummaryChat
}

// FollowupTask is an action applied to the current summary
type FollowupTask string

const (
	TaskDownloadSummary    FollowupTask = "download-summary"
	TaskSummaryTranslation FollowupTask = "summary-translation"
	TaskSummaryAudioLocal  FollowupTask = "summary-audio-local"
	TaskSummaryAudioChat   FollowupTask = "summary-audio-chat"
)

// FollowupTasks lists every follow-up task in display order
var FollowupTasks = []FollowupTask{TaskDownloadSummary, TaskSummaryTranslation, TaskSummaryAudioLocal, TaskSummaryAudioChat}

// ParseFollowupTask converts a task name into a FollowupTask
func ParseFollowupTask(s string) (FollowupTask, error) {
	task := FollowupTask(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range FollowupTasks {
		if t == task {
			return t, nil
		}
	}
	return "", apperrors.NewInvalidInput(fmt.Sprintf("unknown follow-up task %q", s))
}

// RequiresCredential reports whether the task calls the chat provider
func (t FollowupTask) RequiresCredential() bool {
	return t == TaskSummaryAudioChat
}
