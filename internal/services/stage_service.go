package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"github.com/shipgate/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StageService is the stage lifecycle engine. It owns every transition of
// Stage.status: blocker creation/resolution, direct status updates, and the
// gated approve transition into "done".
type StageService interface {
	CreateDefaultStages(ctx context.Context, release *models.Release, envs []models.Environment) ([]models.Stage, error)
	AddEnvironmentStage(ctx context.Context, actx ActorContext, releaseID uuid.UUID, input *AddStageInput) (*models.Stage, error)
	GetStage(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*StageDetail, error)
	UpdateStage(ctx context.Context, actx ActorContext, stageID uuid.UUID, updates *UpdateStageInput) (*models.Stage, error)
	Approve(ctx context.Context, actx ActorContext, stageID uuid.UUID, approver uuid.UUID, note string) (*models.Stage, error)

	CreateTask(ctx context.Context, actx ActorContext, stageID uuid.UUID, input *CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, actx ActorContext, taskID uuid.UUID, updates *UpdateTaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, actx ActorContext, taskID uuid.UUID) error

	CreateBlocker(ctx context.Context, actx ActorContext, stageID uuid.UUID, input *CreateBlockerInput) (*models.Blocker, error)
	UpdateBlocker(ctx context.Context, actx ActorContext, blockerID uuid.UUID, updates *UpdateBlockerInput) (*models.Blocker, error)
	DeleteBlocker(ctx context.Context, actx ActorContext, blockerID uuid.UUID) error
}

// AddStageInput adds one environment's stage to an existing release. Either
// an environment id or a name must be provided; a duplicate name reuses the
// existing environment instead of failing.
type AddStageInput struct {
	EnvironmentID   *uuid.UUID
	EnvironmentName string
	Color           string
}

// StageDetail is a stage with its checklist and blockers.
type StageDetail struct {
	models.Stage
	Tasks    []models.Task    `json:"tasks"`
	Blockers []models.Blocker `json:"blockers"`
}

type UpdateStageInput struct {
	Status    *models.StageStatus
	Approver  *uuid.UUID
	StartedAt *time.Time
	EndedAt   *time.Time
}

type CreateTaskInput struct {
	Title       string
	Details     string
	Owner       string
	Required    *bool
	Status      models.TaskStatus
	EvidenceURL string
}

type UpdateTaskInput struct {
	Title       *string
	Details     *string
	Owner       *string
	Required    *bool
	Status      *models.TaskStatus
	EvidenceURL *string
}

type CreateBlockerInput struct {
	Severity models.BlockerSeverity
	Reason   string
	Owner    string
	ETA      *time.Time
}

type UpdateBlockerInput struct {
	Severity *models.BlockerSeverity
	Reason   *string
	Owner    *string
	ETA      *time.Time
	Active   *bool
}

// StageServiceOptions tunes lifecycle behavior.
type StageServiceOptions struct {
	// ReblockDone allows an active blocker to force a stage that already
	// reached "done" back to "blocked". Defaults to the historic behavior
	// (true) when constructed via NewStageService with config.
	ReblockDone bool
}

type stageService struct {
	db          *gorm.DB
	guard       Guard
	envRepo     repository.EnvironmentRepository
	stageRepo   repository.StageRepository
	taskRepo    repository.TaskRepository
	blockerRepo repository.BlockerRepository
	activity    ActivityService
	notifier    Notifier
	opts        StageServiceOptions
}

func NewStageService(
	db *gorm.DB,
	g Guard,
	envRepo repository.EnvironmentRepository,
	stageRepo repository.StageRepository,
	taskRepo repository.TaskRepository,
	blockerRepo repository.BlockerRepository,
	activity ActivityService,
	notifier Notifier,
	opts StageServiceOptions,
) StageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &stageService{
		db:          db,
		guard:       g,
		envRepo:     envRepo,
		stageRepo:   stageRepo,
		taskRepo:    taskRepo,
		blockerRepo: blockerRepo,
		activity:    activity,
		notifier:    notifier,
		opts:        opts,
	}
}

var _ StageService = (*stageService)(nil)

// CreateDefaultStages instantiates one not_started stage per environment.
// Called exactly once, at release creation; environments added to the team
// later never retrofit stages onto existing releases.
func (s *stageService) CreateDefaultStages(ctx context.Context, release *models.Release, envs []models.Environment) ([]models.Stage, error) {
	stages := make([]models.Stage, 0, len(envs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, env := range envs {
			st := models.Stage{
				ReleaseID:     release.ID,
				EnvironmentID: env.ID,
				Status:        models.StageNotStarted,
			}
			if err := tx.Create(&st).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "create default stage failed")
			}
			stages = append(stages, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stages, nil
}

func (s *stageService) AddEnvironmentStage(ctx context.Context, actx ActorContext, releaseID uuid.UUID, input *AddStageInput) (*models.Stage, error) {
	rel, err := s.guard.release(ctx, actx, releaseID)
	if err != nil {
		return nil, err
	}

	var env models.Environment
	switch {
	case input.EnvironmentID != nil:
		if err := s.envRepo.GetByID(ctx, *input.EnvironmentID, &env); err != nil {
			return nil, err
		}
		if env.TeamID != rel.TeamID {
			return nil, appErr.New(appErr.CodeForbidden, "environment belongs to another team")
		}
	case input.EnvironmentName != "":
		env = models.Environment{TeamID: rel.TeamID, Name: input.EnvironmentName, Color: input.Color}
		if err := s.envRepo.Create(ctx, &env); err != nil {
			if !appErr.IsCode(err, appErr.CodeConflict) {
				return nil, err
			}
			// duplicate name: reuse the existing environment
			if err := s.envRepo.FindByTeamAndName(ctx, rel.TeamID, input.EnvironmentName, &env); err != nil {
				return nil, err
			}
		}
	default:
		return nil, appErr.New(appErr.CodeInvalid, "environment id or name is required")
	}

	st := &models.Stage{
		ReleaseID:     rel.ID,
		EnvironmentID: env.ID,
		Status:        models.StageNotStarted,
	}
	if err := s.stageRepo.Create(ctx, st); err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, appErr.New(appErr.CodeConflict, "stage already exists for this environment")
		}
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "stage.created",
		Meta:      map[string]any{"environment": env.Name},
	})
	return st, nil
}

func (s *stageService) GetStage(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*StageDetail, error) {
	st, _, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByStage(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	blockers, err := s.blockerRepo.ListByStage(ctx, st.ID, false)
	if err != nil {
		return nil, err
	}
	return &StageDetail{Stage: *st, Tasks: tasks, Blockers: blockers}, nil
}

// UpdateStage applies a direct status patch. The "done" status is reserved
// for the approval gate and rejected here.
func (s *stageService) UpdateStage(ctx context.Context, actx ActorContext, stageID uuid.UUID, updates *UpdateStageInput) (*models.Stage, error) {
	st, rel, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}

	if updates.Status != nil {
		if !models.ValidStageStatus(*updates.Status) {
			return nil, appErr.New(appErr.CodeInvalid, "unknown stage status")
		}
		if *updates.Status == models.StageDone {
			return nil, appErr.New(appErr.CodeInvalid, "stage can only reach done through approval")
		}
		if *updates.Status == models.StageInProgress && st.StartedAt == nil {
			now := time.Now()
			st.StartedAt = &now
		}
		st.Status = *updates.Status
	}
	if updates.Approver != nil {
		st.Approver = updates.Approver
	}
	if updates.StartedAt != nil {
		st.StartedAt = updates.StartedAt
	}
	if updates.EndedAt != nil {
		st.EndedAt = updates.EndedAt
	}

	if err := s.stageRepo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "stage.updated",
		Meta:      map[string]any{"status": string(st.Status)},
	})
	return st, nil
}

// Approve is the only path into "done". It fails unless every required task
// on the stage is done; tasks marked not-required or "na" are ignored.
func (s *stageService) Approve(ctx context.Context, actx ActorContext, stageID uuid.UUID, approver uuid.UUID, note string) (*models.Stage, error) {
	st, rel, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByStage(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	var incomplete []string
	for _, t := range tasks {
		if t.Required && t.Status != models.TaskDone && t.Status != models.TaskNA {
			incomplete = append(incomplete, t.Title)
		}
	}
	if len(incomplete) > 0 {
		return nil, appErr.New(appErr.CodeApprovalRejected, "required tasks are not done").
			WithMeta("incomplete_tasks", incomplete)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Stage{}).Where("id = ?", st.ID).Updates(map[string]any{
			"status":   models.StageDone,
			"approver": approver,
			"ended_at": now,
		})
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "approve stage failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "stage not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	st.Status = models.StageDone
	st.Approver = &approver
	st.EndedAt = &now

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     approver.String(),
		Action:    "stage.approved",
		Meta:      map[string]any{"note": note},
	})
	s.notifyTeam(ctx, rel.TeamID, Notification{
		Subject: "Stage approved",
		Event:   "stage.approved",
		Payload: map[string]any{"release": rel.Name, "stage_id": st.ID.String()},
	})
	return st, nil
}

func (s *stageService) CreateTask(ctx context.Context, actx ActorContext, stageID uuid.UUID, input *CreateTaskInput) (*models.Task, error) {
	st, rel, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, appErr.New(appErr.CodeInvalid, "task title is required")
	}
	if input.Status != "" && !models.ValidTaskStatus(input.Status) {
		return nil, appErr.New(appErr.CodeInvalid, "unknown task status")
	}

	t := &models.Task{
		StageID:     st.ID,
		Title:       input.Title,
		Details:     input.Details,
		Owner:       input.Owner,
		Required:    true,
		Status:      input.Status,
		EvidenceURL: input.EvidenceURL,
	}
	if input.Required != nil {
		t.Required = *input.Required
	}
	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "task.created",
		Meta:      map[string]any{"task_id": t.ID.String(), "title": t.Title},
	})
	return t, nil
}

// UpdateTask mutates checklist state. Task completion never advances the
// stage status on its own; only explicit stage updates or the approval gate
// move a stage.
func (s *stageService) UpdateTask(ctx context.Context, actx ActorContext, taskID uuid.UUID, updates *UpdateTaskInput) (*models.Task, error) {
	var t models.Task
	if err := s.taskRepo.GetByID(ctx, taskID, &t); err != nil {
		return nil, err
	}
	st, rel, err := s.guard.stage(ctx, actx, t.StageID)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		t.Title = *updates.Title
	}
	if updates.Details != nil {
		t.Details = *updates.Details
	}
	if updates.Owner != nil {
		t.Owner = *updates.Owner
	}
	if updates.Required != nil {
		t.Required = *updates.Required
	}
	if updates.Status != nil {
		if !models.ValidTaskStatus(*updates.Status) {
			return nil, appErr.New(appErr.CodeInvalid, "unknown task status")
		}
		t.Status = *updates.Status
	}
	if updates.EvidenceURL != nil {
		t.EvidenceURL = *updates.EvidenceURL
	}

	if err := s.taskRepo.Update(ctx, &t); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "task.updated",
		Meta:      map[string]any{"task_id": t.ID.String(), "status": string(t.Status)},
	})
	return &t, nil
}

func (s *stageService) DeleteTask(ctx context.Context, actx ActorContext, taskID uuid.UUID) error {
	var t models.Task
	if err := s.taskRepo.GetByID(ctx, taskID, &t); err != nil {
		return err
	}
	st, rel, err := s.guard.stage(ctx, actx, t.StageID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "task.deleted",
		Meta:      map[string]any{"task_id": taskID.String(), "title": t.Title},
	})
	return nil
}

// CreateBlocker attaches an active blocker and forces the stage to blocked.
// The force applies from any status, including not_started; whether it also
// applies to done stages is controlled by StageServiceOptions.ReblockDone.
// Blocker insert and stage transition commit atomically.
func (s *stageService) CreateBlocker(ctx context.Context, actx ActorContext, stageID uuid.UUID, input *CreateBlockerInput) (*models.Blocker, error) {
	st, rel, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}
	if input.Reason == "" {
		return nil, appErr.New(appErr.CodeInvalid, "blocker reason is required")
	}
	if input.Severity != "" && !models.ValidBlockerSeverity(input.Severity) {
		return nil, appErr.New(appErr.CodeInvalid, "unknown blocker severity")
	}

	b := &models.Blocker{
		StageID:  st.ID,
		Severity: input.Severity,
		Reason:   input.Reason,
		Owner:    input.Owner,
		ETA:      input.ETA,
		Active:   true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create blocker failed")
		}
		if s.shouldBlock(st.Status) {
			if err := tx.Model(&models.Stage{}).Where("id = ?", st.ID).
				Update("status", models.StageBlocked).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "block stage failed")
			}
			st.Status = models.StageBlocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "blocker.created",
		Meta:      map[string]any{"blocker_id": b.ID.String(), "severity": string(b.Severity)},
	})
	s.notifyTeam(ctx, rel.TeamID, Notification{
		Subject: "Stage blocked",
		Event:   "blocker.created",
		Payload: map[string]any{"release": rel.Name, "severity": string(b.Severity), "reason": b.Reason},
	})
	return b, nil
}

func (s *stageService) shouldBlock(current models.StageStatus) bool {
	if current == models.StageBlocked {
		return false
	}
	if current == models.StageDone && !s.opts.ReblockDone {
		return false
	}
	return true
}

// UpdateBlocker patches a blocker. Deactivating the last active blocker on a
// blocked stage returns the stage to in_progress; re-activating applies the
// same force-block rule as creation. Both run atomically with the patch.
func (s *stageService) UpdateBlocker(ctx context.Context, actx ActorContext, blockerID uuid.UUID, updates *UpdateBlockerInput) (*models.Blocker, error) {
	var b models.Blocker
	if err := s.blockerRepo.GetByID(ctx, blockerID, &b); err != nil {
		return nil, err
	}
	st, rel, err := s.guard.stage(ctx, actx, b.StageID)
	if err != nil {
		return nil, err
	}

	wasActive := b.Active
	if updates.Severity != nil {
		if !models.ValidBlockerSeverity(*updates.Severity) {
			return nil, appErr.New(appErr.CodeInvalid, "unknown blocker severity")
		}
		b.Severity = *updates.Severity
	}
	if updates.Reason != nil {
		b.Reason = *updates.Reason
	}
	if updates.Owner != nil {
		b.Owner = *updates.Owner
	}
	if updates.ETA != nil {
		b.ETA = updates.ETA
	}
	if updates.Active != nil {
		b.Active = *updates.Active
	}

	resolved := wasActive && !b.Active
	reactivated := !wasActive && b.Active

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&b).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "update blocker failed")
		}
		if resolved {
			var remaining int64
			if err := tx.Model(&models.Blocker{}).
				Where("stage_id = ? AND active = ?", st.ID, true).
				Count(&remaining).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "count active blockers failed")
			}
			if remaining == 0 && st.Status == models.StageBlocked {
				if err := tx.Model(&models.Stage{}).Where("id = ?", st.ID).
					Update("status", models.StageInProgress).Error; err != nil {
					return appErr.Wrap(err, appErr.CodeInternal, "unblock stage failed")
				}
				st.Status = models.StageInProgress
			}
		}
		if reactivated && s.shouldBlock(st.Status) {
			if err := tx.Model(&models.Stage{}).Where("id = ?", st.ID).
				Update("status", models.StageBlocked).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "block stage failed")
			}
			st.Status = models.StageBlocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "blocker.updated"
	if resolved {
		action = "blocker.resolved"
	}
	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    action,
		Meta:      map[string]any{"blocker_id": b.ID.String(), "active": b.Active},
	})
	return &b, nil
}

func (s *stageService) DeleteBlocker(ctx context.Context, actx ActorContext, blockerID uuid.UUID) error {
	var b models.Blocker
	if err := s.blockerRepo.GetByID(ctx, blockerID, &b); err != nil {
		return err
	}
	st, rel, err := s.guard.stage(ctx, actx, b.StageID)
	if err != nil {
		return err
	}
	if err := s.blockerRepo.Delete(ctx, blockerID); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "blocker.deleted",
		Meta:      map[string]any{"blocker_id": blockerID.String()},
	})
	return nil
}

// notifyTeam fans a notification out to every member of the workspace
// owning teamID, one enqueued task per recipient. Lookup and enqueue
// failures are logged and never fail the mutation.
func (s *stageService) notifyTeam(ctx context.Context, teamID uuid.UUID, n Notification) {
	var team models.Team
	if err := s.guard.teamRepo.GetByID(ctx, teamID, &team); err != nil {
		logger.L().Warn("notification recipient lookup failed", zap.String("event", n.Event), zap.Error(err))
		return
	}
	emails, err := s.guard.workspaceRepo.ListMemberEmails(ctx, team.WorkspaceID)
	if err != nil {
		logger.L().Warn("notification recipient lookup failed", zap.String("event", n.Event), zap.Error(err))
		return
	}
	for _, email := range emails {
		n.To = email
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.L().Warn("notification enqueue failed", zap.String("event", n.Event), zap.Error(err))
		}
	}
}
