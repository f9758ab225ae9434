package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/formulab-api/dto"
	"github.com/formulab-api/lib/events"
	"github.com/formulab-api/models"
	"github.com/formulab-api/runengine"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunRecordStore persists completed runs.
// *repositories.RunRecordRepository implements it.
type RunRecordStore interface {
	Create(ctx context.Context, record models.RunRecord) error
	FindByProjectID(ctx context.Context, projectID string, limit int) ([]models.RunRecord, error)
	CountByProjectID(ctx context.Context, projectID string) (int64, error)
}

// RunRecorder persists and publishes what the run engine reports.
// Failures are logged; the run itself has already completed.
type RunRecorder struct {
	records   RunRecordStore
	publisher events.Publisher
	log       *zap.Logger
}

// NewRunRecorder creates the run engine listener
func NewRunRecorder(records RunRecordStore, publisher events.Publisher, log *zap.Logger) *RunRecorder {
	return &RunRecorder{
		records:   records,
		publisher: publisher,
		log:       log,
	}
}

// RunCompleted stores the record and publishes it
func (r *RunRecorder) RunCompleted(ctx context.Context, record models.RunRecord) {
	if err := r.records.Create(ctx, record); err != nil {
		r.log.Error("failed to persist run record",
			zap.String("run_id", record.ID),
			zap.String("batch_code", record.BatchCode),
			zap.Error(err),
		)
	}

	event := events.RunCompleted{
		RunID:       record.ID,
		ProjectID:   record.ProjectID,
		ProjectName: record.ProjectName,
		BatchCode:   record.BatchCode,
		OperatorID:  record.OperatorID,
		StartTime:   record.StartTime,
		EndTime:     record.EndTime,
		Duration:    record.Duration,
		Data:        record.Values(),
	}
	if err := r.publisher.Publish(ctx, events.RoutingRunCompleted, event); err != nil {
		r.log.Warn("failed to publish run completed event", zap.String("run_id", record.ID), zap.Error(err))
	}
}

// TimerCompleted publishes the timer alert
func (r *RunRecorder) TimerCompleted(ctx context.Context, session *runengine.Session, step models.RecipeStep) {
	event := events.TimerCompleted{
		SessionID:  session.ID,
		StepID:     step.ID,
		Label:      step.Label,
		OperatorID: session.OperatorID,
		FiredAt:    session.UpdatedAt,
	}
	if err := r.publisher.Publish(ctx, events.RoutingTimerCompleted, event); err != nil {
		r.log.Warn("failed to publish timer completed event", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// RunService starts runs from stored projects and reads the run history
type RunService struct {
	engine   *runengine.Engine
	projects ProjectStore
	records  RunRecordStore
}

// NewRunService creates a new run service instance
func NewRunService(engine *runengine.Engine, projects ProjectStore, records RunRecordStore) *RunService {
	return &RunService{
		engine:   engine,
		projects: projects,
		records:  records,
	}
}

// Engine exposes the run engine for step level operations
func (s *RunService) Engine() *runengine.Engine {
	return s.engine
}

// Start begins a run of the project for the operator
func (s *RunService) Start(ctx context.Context, operatorID, projectID string) (runengine.View, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return runengine.View{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return runengine.View{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	return s.engine.Start(ctx, operatorID, &project)
}

// History returns the runs completed by this process, newest first
func (s *RunService) History() dto.RunListResponse {
	runs := s.engine.History()
	return dto.RunListResponse{Runs: runs, Total: int64(len(runs))}
}

// ProjectRuns returns the persisted runs of a project, newest first
func (s *RunService) ProjectRuns(ctx context.Context, projectID string, limit int) (dto.RunListResponse, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RunListResponse{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return dto.RunListResponse{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	runs, err := s.records.FindByProjectID(ctx, projectID, limit)
	if err != nil {
		return dto.RunListResponse{}, fmt.Errorf("listing runs of project %s: %w", projectID, err)
	}
	total, err := s.records.CountByProjectID(ctx, projectID)
	if err != nil {
		return dto.RunListResponse{}, fmt.Errorf("counting runs of project %s: %w", projectID, err)
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	return dto.RunListResponse{Runs: runs, Total: total}, nil
}
