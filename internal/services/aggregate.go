package services

import (
	"math"

	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
)

// Release status and progress are never stored; they are recomputed from the
// stage and task sets on every read. This file is the single source of the
// precedence rules.

// OutcomeFilter selects releases by their derived outcome.
type OutcomeFilter string

const (
	OutcomeAll      OutcomeFilter = "all"
	OutcomeOngoing  OutcomeFilter = "ongoing"
	OutcomeFinished OutcomeFilter = "finished"
	OutcomeFailed   OutcomeFilter = "failed"
)

// ValidOutcomeFilter reports whether f is a known filter.
func ValidOutcomeFilter(f OutcomeFilter) bool {
	switch f {
	case OutcomeAll, OutcomeOngoing, OutcomeFinished, OutcomeFailed:
		return true
	}
	return false
}

// ParseOutcomeFilter maps a request parameter to a filter. The empty string
// means no filtering.
func ParseOutcomeFilter(raw string) (OutcomeFilter, error) {
	if raw == "" {
		return OutcomeAll, nil
	}
	f := OutcomeFilter(raw)
	if !ValidOutcomeFilter(f) {
		return "", appErr.New(appErr.CodeInvalid, "unknown filter: "+raw)
	}
	return f, nil
}

// ReleaseSummary decorates a release with its derived status and progress.
type ReleaseSummary struct {
	models.Release
	Status           models.StageStatus `json:"status"`
	Progress         int                `json:"progress"`
	StageCount       int                `json:"stage_count"`
	HasActiveBlocker bool               `json:"has_active_blocker"`
}

// ReleaseStatus derives the overall status from the release's stages.
// Precedence: any blocked stage makes the release blocked; otherwise all
// stages done makes it done; otherwise any stage in_progress or done makes
// it in_progress; otherwise not_started. A release with no stages is
// not_started.
func ReleaseStatus(stages []models.Stage) models.StageStatus {
	if len(stages) == 0 {
		return models.StageNotStarted
	}
	allDone := true
	anyActive := false
	for _, s := range stages {
		switch s.Status {
		case models.StageBlocked:
			return models.StageBlocked
		case models.StageDone:
			anyActive = true
		case models.StageInProgress:
			anyActive = true
			allDone = false
		default:
			allDone = false
		}
	}
	if allDone {
		return models.StageDone
	}
	if anyActive {
		return models.StageInProgress
	}
	return models.StageNotStarted
}

// ReleaseProgress returns the completed-task percentage across all tasks of
// all stages, rounded to the nearest integer. Zero tasks means zero percent.
func ReleaseProgress(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.TaskDone {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(tasks))))
}

// matchesOutcome applies the filter semantics:
// failed   = any blocked stage OR any active blocker;
// finished = every stage done (a release with zero stages is never finished);
// ongoing  = everything else.
func matchesOutcome(s ReleaseSummary, f OutcomeFilter) bool {
	failed := s.Status == models.StageBlocked || s.HasActiveBlocker
	finished := s.StageCount > 0 && s.Status == models.StageDone
	switch f {
	case OutcomeFailed:
		return failed
	case OutcomeFinished:
		return finished
	case OutcomeOngoing:
		return !failed && !finished
	default:
		return true
	}
}

// FilterByOutcome keeps the summaries matching the filter, preserving order.
func FilterByOutcome(summaries []ReleaseSummary, f OutcomeFilter) []ReleaseSummary {
	if f == OutcomeAll || f == "" {
		return summaries
	}
	out := make([]ReleaseSummary, 0, len(summaries))
	for _, s := range summaries {
		if matchesOutcome(s, f) {
			out = append(out, s)
		}
	}
	return out
}
