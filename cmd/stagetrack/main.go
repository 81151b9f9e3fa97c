package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anirudhsen/stagetrack/internal/cli"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.stagetrack/stagetrack.db
	dbPath := os.Getenv("STAGETRACK_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".stagetrack", "stagetrack.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ambient repositories for read paths. Write paths open their own
	// tx-scoped repositories inside the unit of work.
	projectRepo := repository.NewSQLiteProjectRepo(database)
	stageRepo := repository.NewSQLiteStageRepo(database)
	templateRepo := repository.NewSQLiteTemplateRepo(database)
	requestRepo := repository.NewSQLiteRequestRepo(database)
	changeLogRepo := repository.NewSQLiteChangeLogRepo(database)
	scheduleRepo := repository.NewSQLiteScheduleRepo(database)
	snapshotRepo := repository.NewSQLiteSnapshotRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	clock := service.SystemClock{}

	var observers []service.UseCaseObserver
	if os.Getenv("STAGETRACK_LOG") != "" {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}

	app := &cli.App{
		Projects:    service.NewProjectService(projectRepo, stageRepo, templateRepo, requestRepo, changeLogRepo, uow, clock, observers...),
		Validation:  service.NewValidationService(projectRepo, stageRepo, templateRepo, clock),
		Requests:    service.NewRequestService(requestRepo, uow, clock, observers...),
		DirectApply: service.NewDirectApplyService(uow, clock, observers...),
		Actuals:     service.NewActualsService(uow, clock, observers...),
		Plans:       service.NewPlanService(uow, clock, observers...),
		Snapshots:   service.NewSnapshotService(stageRepo, templateRepo, scheduleRepo, snapshotRepo, uow, clock, observers...),

		UoW: uow,
	}

	return cli.NewRootCmd(app).Execute()
}
