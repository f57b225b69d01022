package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/concurrent"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/editor"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/repository"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/validation"
)

// nextRunsPreview is how many upcoming runs the job detail shows
const nextRunsPreview = 5

// Editor types produced by the console service
type (
	CollectionEditor = editor.Editor[model.Collection, model.CollectionInput]
	JobEditor        = ScopedEditor[model.Job, model.JobInput]
	VariableEditor   = ScopedEditor[model.Variable, model.VariableInput]
)

// CollectionsView is the state of the collections list
type CollectionsView struct {
	Collections []model.Collection `json:"collections"`
	Errors      map[string]string  `json:"errors,omitempty"`
}

// JobsView is the state of the jobs list
type JobsView struct {
	CollectionID string             `json:"collectionId,omitempty"`
	Collections  []model.Collection `json:"collections"`
	Jobs         []model.Job        `json:"jobs"`
	Errors       map[string]string  `json:"errors,omitempty"`
}

// VariablesView is the state of the variables list
type VariablesView struct {
	CollectionID string             `json:"collectionId,omitempty"`
	Collections  []model.Collection `json:"collections"`
	Variables    []model.Variable   `json:"variables"`
	Errors       map[string]string  `json:"errors,omitempty"`
}

// JobDetailView is a job with its run status and history
type JobDetailView struct {
	Job        *model.Job         `json:"job,omitempty"`
	Status     *model.JobStatus   `json:"status,omitempty"`
	StatusETag string             `json:"statusEtag,omitempty"`
	History    []model.JobHistory `json:"history"`
	NextRuns   []time.Time        `json:"nextRuns,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

// ConsoleService defines the operations behind the console pages
type ConsoleService interface {
	NewCollectionEditor(id string, nav editor.Navigator) *CollectionEditor
	NewJobEditor(id, collectionID string, nav editor.Navigator) *JobEditor
	NewVariableEditor(id, collectionID string, nav editor.Navigator) *VariableEditor

	ListCollections(ctx context.Context) CollectionsView
	ListJobs(ctx context.Context, collectionID string) JobsView
	ListVariables(ctx context.Context, collectionID string) VariablesView

	GetJobDetail(ctx context.Context, id string) JobDetailView
	SetJobRunning(ctx context.Context, id string, running bool, statusETag string) error
	ClearJobHistory(ctx context.Context, id string) error

	Pending() *signal.Pending
}

// consoleService implements ConsoleService
type consoleService struct {
	repo    repository.SchedulerRepository
	pending *signal.Pending
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewConsoleService creates a new console service
func NewConsoleService(repo repository.SchedulerRepository, pending *signal.Pending, logger *zap.SugaredLogger) ConsoleService {
	return &consoleService{
		repo:    repo,
		pending: pending,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *consoleService) Pending() *signal.Pending {
	return s.pending
}

// NewCollectionEditor creates an editor for collection id, or a new collection when id is empty
func (s *consoleService) NewCollectionEditor(id string, nav editor.Navigator) *CollectionEditor {
	return editor.New(editor.Config[model.Collection, model.CollectionInput]{
		Resource:  collectionResource{repo: s.repo},
		Navigator: nav,
		Pending:   s.pending,
		Logger:    s.logger.With("editor", "collection", "id", id),
		ToInput:   model.Collection.Input,
		Validate:  validation.Collection,
		ListRoute: func(model.CollectionInput) string { return CollectionsRoute },
	}, id, model.CollectionInput{State: model.StateEnabled})
}

// NewJobEditor creates an editor for job id, or a new job in collectionID when id is empty
func (s *consoleService) NewJobEditor(id, collectionID string, nav editor.Navigator) *JobEditor {
	selector := &collectionSelector{}

	e := editor.New(editor.Config[model.Job, model.JobInput]{
		Resource:  jobResource{repo: s.repo},
		Navigator: nav,
		Pending:   s.pending,
		Logger:    s.logger.With("editor", "job", "id", id),
		ToInput:   model.Job.Input,
		Validate: func(in model.JobInput) map[string]string {
			return validation.Job(in, selector.get())
		},
		ListRoute: func(in model.JobInput) string { return JobsRoute(in.CollectionID) },
	}, id, model.NewJobInput(collectionID))

	return &JobEditor{Editor: e, collections: s.repo, selector: selector}
}

// NewVariableEditor creates an editor for variable id, or a new variable in collectionID when id is empty
func (s *consoleService) NewVariableEditor(id, collectionID string, nav editor.Navigator) *VariableEditor {
	selector := &collectionSelector{}

	e := editor.New(editor.Config[model.Variable, model.VariableInput]{
		Resource:  variableResource{repo: s.repo},
		Navigator: nav,
		Pending:   s.pending,
		Logger:    s.logger.With("editor", "variable", "id", id),
		ToInput:   model.Variable.Input,
		Validate: func(in model.VariableInput) map[string]string {
			return validation.Variable(in, selector.get())
		},
		ListRoute: func(in model.VariableInput) string { return VariablesRoute(in.CollectionID) },
	}, id, model.VariableInput{CollectionID: collectionID})

	return &VariableEditor{Editor: e, collections: s.repo, selector: selector}
}

func (s *consoleService) ListCollections(ctx context.Context) CollectionsView {
	collections, err := s.repo.ListCollections(ctx)
	if err != nil {
		s.logger.Warnw("failed to list collections", "error", err.Error())
	}
	return CollectionsView{
		Collections: collections,
		Errors:      apierror.ToErrorMap(err),
	}
}

// ListJobs fetches the jobs of collectionID (all when empty) together with
// the collections for the filter. The view is built after both settled.
func (s *consoleService) ListJobs(ctx context.Context, collectionID string) JobsView {
	view := JobsView{CollectionID: collectionID}

	err := concurrent.Join(ctx,
		func(ctx context.Context) error {
			var err error
			view.Collections, err = s.repo.ListCollections(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			view.Jobs, err = s.repo.ListJobs(ctx, collectionID)
			return err
		},
	)
	if err != nil {
		s.logger.Warnw("failed to list jobs",
			"collection_id", collectionID,
			"error", err.Error(),
		)
		view.Errors = apierror.ToErrorMap(err)
	}

	return view
}

// ListVariables fetches the variables of collectionID (all when empty)
// together with the collections for the filter
func (s *consoleService) ListVariables(ctx context.Context, collectionID string) VariablesView {
	view := VariablesView{CollectionID: collectionID}

	err := concurrent.Join(ctx,
		func(ctx context.Context) error {
			var err error
			view.Collections, err = s.repo.ListCollections(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			view.Variables, err = s.repo.ListVariables(ctx, collectionID)
			return err
		},
	)
	if err != nil {
		s.logger.Warnw("failed to list variables",
			"collection_id", collectionID,
			"error", err.Error(),
		)
		view.Errors = apierror.ToErrorMap(err)
	}

	return view
}

// GetJobDetail fetches the job, its status and its history concurrently
func (s *consoleService) GetJobDetail(ctx context.Context, id string) JobDetailView {
	var (
		view    JobDetailView
		job     model.Job
		status  model.JobStatus
		history []model.JobHistory
	)

	err := concurrent.Join(ctx,
		func(ctx context.Context) error {
			var err error
			job, _, err = s.repo.GetJob(ctx, id)
			if err == nil {
				view.Job = &job
			}
			return err
		},
		func(ctx context.Context) error {
			var err error
			status, view.StatusETag, err = s.repo.GetJobStatus(ctx, id)
			if err == nil {
				view.Status = &status
			}
			return err
		},
		func(ctx context.Context) error {
			var err error
			history, err = s.repo.ListJobHistory(ctx, id)
			view.History = history
			return err
		},
	)
	if err != nil {
		s.logger.Warnw("failed to get job detail",
			"job_id", id,
			"error", err.Error(),
		)
		view.Errors = apierror.ToErrorMap(err)
	}

	if view.Job != nil && view.Job.State == model.StateEnabled {
		// the schedule was accepted by the scheduler, a parse failure only hides the preview
		if runs, err := validation.NextRuns(view.Job.Schedule, s.now(), nextRunsPreview); err == nil {
			view.NextRuns = runs
		}
	}

	return view
}

// SetJobRunning starts a manual run (running=true) or stops the current one
func (s *consoleService) SetJobRunning(ctx context.Context, id string, running bool, statusETag string) error {
	return s.pending.Track(func() error {
		if err := s.repo.UpdateJobStatus(ctx, id, model.JobStatusInput{Running: running}, statusETag); err != nil {
			s.logger.Warnw("failed to change job run state",
				"job_id", id,
				"running", running,
				"error", err.Error(),
			)
			return err
		}

		s.logger.Infow("job run state changed",
			"job_id", id,
			"running", running,
		)
		return nil
	})
}

// ClearJobHistory deletes the run history of a job
func (s *consoleService) ClearJobHistory(ctx context.Context, id string) error {
	return s.pending.Track(func() error {
		if err := s.repo.DeleteJobHistory(ctx, id); err != nil {
			s.logger.Warnw("failed to clear job history",
				"job_id", id,
				"error", err.Error(),
			)
			return err
		}
		return nil
	})
}
