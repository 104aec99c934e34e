package services

import (
	"context"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	"github.com/shipgate/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "console"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Invitation{},
		&models.Team{},
		&models.Environment{},
		&models.Release{},
		&models.Stage{},
		&models.Task{},
		&models.Blocker{},
		&models.Diagram{},
		&models.TaskDiagram{},
		&models.ActivityLog{},
	))
	return db
}

// captureNotifier records what the services would have enqueued.
type captureNotifier struct {
	sent []Notification
}

func (c *captureNotifier) Notify(ctx context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

// fixture wires every service against one in-memory database and seeds a
// workspace member plus a team with the default environments.
type fixture struct {
	db *gorm.DB

	stages     StageService
	releases   ReleaseService
	diagrams   DiagramService
	teams      TeamService
	workspaces WorkspaceService
	activity   ActivityService

	stageRepo   repository.StageRepository
	taskRepo    repository.TaskRepository
	blockerRepo repository.BlockerRepository
	envRepo     repository.EnvironmentRepository

	notifier *captureNotifier

	user      models.User
	workspace models.Workspace
	team      models.Team
	envs      []models.Environment
	actx      ActorContext
}

func newFixture(t *testing.T, opts StageServiceOptions) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	teamRepo := repository.NewTeamRepository(db)
	envRepo := repository.NewEnvironmentRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	stageRepo := repository.NewStageRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	blockerRepo := repository.NewBlockerRepository(db)
	diagramRepo := repository.NewDiagramRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)

	guard := NewGuard(teamRepo, releaseRepo, stageRepo, workspaceRepo)
	activity := NewActivityService(guard, activityRepo)
	notifier := &captureNotifier{}
	stages := NewStageService(db, guard, envRepo, stageRepo, taskRepo, blockerRepo, activity, notifier, opts)
	releases := NewReleaseService(guard, releaseRepo, envRepo, stageRepo, taskRepo, blockerRepo, stages, activity)
	diagrams := NewDiagramService(guard, diagramRepo, taskRepo, activity)
	teams := NewTeamService(db, guard, teamRepo, envRepo, workspaceRepo, activity)
	workspaces := NewWorkspaceService(workspaceRepo, activity, notifier, "http://localhost:8080")

	f := &fixture{
		db:          db,
		stages:      stages,
		releases:    releases,
		diagrams:    diagrams,
		teams:       teams,
		workspaces:  workspaces,
		activity:    activity,
		stageRepo:   stageRepo,
		taskRepo:    taskRepo,
		blockerRepo: blockerRepo,
		envRepo:     envRepo,
		notifier:    notifier,
	}

	f.user = models.User{Email: "dev@example.com", PasswordHash: "x", Name: "Dev"}
	require.NoError(t, db.Create(&f.user).Error)

	ws, err := workspaces.CreateWorkspace(ctx, "Acme", f.user.ID)
	require.NoError(t, err)
	f.workspace = *ws
	f.actx = ActorContext{ActorID: f.user.ID}

	team, err := teams.CreateTeam(ctx, f.actx, ws.ID, "Platform", "")
	require.NoError(t, err)
	f.team = *team

	f.envs, err = teams.ListEnvironments(ctx, f.actx, team.ID)
	require.NoError(t, err)
	require.Len(t, f.envs, 3)

	return f
}

// newRelease creates a release, which fans out one stage per environment.
func (f *fixture) newRelease(t *testing.T, name string) (*models.Release, []models.Stage) {
	t.Helper()
	ctx := context.Background()
	rel, err := f.releases.CreateRelease(ctx, f.actx, &CreateReleaseInput{TeamID: f.team.ID, Name: name})
	require.NoError(t, err)
	stages, err := f.stageRepo.ListByRelease(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, stages, len(f.envs))
	return rel, stages
}
