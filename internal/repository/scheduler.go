package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/client"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

// jobListFields is the projection requested when listing jobs
const jobListFields = "status,errorRate"

// CollectionRepository defines the scheduler operations on collections
type CollectionRepository interface {
	ListCollections(ctx context.Context) ([]model.Collection, error)
	GetCollection(ctx context.Context, id string) (model.Collection, string, error)
	CreateCollection(ctx context.Context, in model.CollectionInput) (string, error)
	UpdateCollection(ctx context.Context, id string, in model.CollectionInput, etag string) error
	DeleteCollection(ctx context.Context, id, etag string) error
}

// JobRepository defines the scheduler operations on jobs, their status and history
type JobRepository interface {
	ListJobs(ctx context.Context, collectionID string) ([]model.Job, error)
	GetJob(ctx context.Context, id string) (model.Job, string, error)
	CreateJob(ctx context.Context, in model.JobInput) (string, error)
	UpdateJob(ctx context.Context, id string, in model.JobInput, etag string) error
	DeleteJob(ctx context.Context, id, etag string) error
	GetJobStatus(ctx context.Context, id string) (model.JobStatus, string, error)
	UpdateJobStatus(ctx context.Context, id string, in model.JobStatusInput, etag string) error
	ListJobHistory(ctx context.Context, id string) ([]model.JobHistory, error)
	DeleteJobHistory(ctx context.Context, id string) error
}

// VariableRepository defines the scheduler operations on variables
type VariableRepository interface {
	ListVariables(ctx context.Context, collectionID string) ([]model.Variable, error)
	GetVariable(ctx context.Context, id string) (model.Variable, string, error)
	CreateVariable(ctx context.Context, in model.VariableInput) (string, error)
	UpdateVariable(ctx context.Context, id string, in model.VariableInput, etag string) error
	DeleteVariable(ctx context.Context, id, etag string) error
}

// SchedulerRepository is the full scheduler REST surface used by the console
type SchedulerRepository interface {
	CollectionRepository
	JobRepository
	VariableRepository
}

// schedulerRepository implements SchedulerRepository on top of the REST client
type schedulerRepository struct {
	client *client.Client
}

// NewSchedulerRepository creates a repository backed by c
func NewSchedulerRepository(c *client.Client) SchedulerRepository {
	return &schedulerRepository{client: c}
}

func (r *schedulerRepository) ListCollections(ctx context.Context) ([]model.Collection, error) {
	return client.List[model.Collection](ctx, r.client, "/collections")
}

func (r *schedulerRepository) GetCollection(ctx context.Context, id string) (model.Collection, string, error) {
	return client.Get[model.Collection](ctx, r.client, "/collections/"+url.PathEscape(id))
}

func (r *schedulerRepository) CreateCollection(ctx context.Context, in model.CollectionInput) (string, error) {
	return r.create(ctx, "/collections", in)
}

func (r *schedulerRepository) UpdateCollection(ctx context.Context, id string, in model.CollectionInput, etag string) error {
	return r.client.Patch(ctx, "/collections/"+url.PathEscape(id), in, etag)
}

func (r *schedulerRepository) DeleteCollection(ctx context.Context, id, etag string) error {
	return r.client.Delete(ctx, "/collections/"+url.PathEscape(id), etag)
}

func (r *schedulerRepository) ListJobs(ctx context.Context, collectionID string) ([]model.Job, error) {
	path := "/jobs?fields=" + jobListFields
	if collectionID != "" {
		path += "&collectionId=" + url.QueryEscape(collectionID)
	}
	return client.List[model.Job](ctx, r.client, path)
}

func (r *schedulerRepository) GetJob(ctx context.Context, id string) (model.Job, string, error) {
	return client.Get[model.Job](ctx, r.client, "/jobs/"+url.PathEscape(id))
}

func (r *schedulerRepository) CreateJob(ctx context.Context, in model.JobInput) (string, error) {
	return r.create(ctx, "/jobs", in)
}

func (r *schedulerRepository) UpdateJob(ctx context.Context, id string, in model.JobInput, etag string) error {
	return r.client.Patch(ctx, "/jobs/"+url.PathEscape(id), in, etag)
}

func (r *schedulerRepository) DeleteJob(ctx context.Context, id, etag string) error {
	return r.client.Delete(ctx, "/jobs/"+url.PathEscape(id), etag)
}

func (r *schedulerRepository) GetJobStatus(ctx context.Context, id string) (model.JobStatus, string, error) {
	return client.Get[model.JobStatus](ctx, r.client, "/jobs/"+url.PathEscape(id)+"/status")
}

func (r *schedulerRepository) UpdateJobStatus(ctx context.Context, id string, in model.JobStatusInput, etag string) error {
	return r.client.Patch(ctx, "/jobs/"+url.PathEscape(id)+"/status", in, etag)
}

func (r *schedulerRepository) ListJobHistory(ctx context.Context, id string) ([]model.JobHistory, error) {
	return client.List[model.JobHistory](ctx, r.client, "/jobs/"+url.PathEscape(id)+"/history")
}

func (r *schedulerRepository) DeleteJobHistory(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/jobs/"+url.PathEscape(id)+"/history", "")
}

func (r *schedulerRepository) ListVariables(ctx context.Context, collectionID string) ([]model.Variable, error) {
	path := "/variables"
	if collectionID != "" {
		path += "?collectionId=" + url.QueryEscape(collectionID)
	}
	return client.List[model.Variable](ctx, r.client, path)
}

func (r *schedulerRepository) GetVariable(ctx context.Context, id string) (model.Variable, string, error) {
	return client.Get[model.Variable](ctx, r.client, "/variables/"+url.PathEscape(id))
}

func (r *schedulerRepository) CreateVariable(ctx context.Context, in model.VariableInput) (string, error) {
	return r.create(ctx, "/variables", in)
}

func (r *schedulerRepository) UpdateVariable(ctx context.Context, id string, in model.VariableInput, etag string) error {
	return r.client.Patch(ctx, "/variables/"+url.PathEscape(id), in, etag)
}

func (r *schedulerRepository) DeleteVariable(ctx context.Context, id, etag string) error {
	return r.client.Delete(ctx, "/variables/"+url.PathEscape(id), etag)
}

// create posts in and extracts the id of the new resource.
// The scheduler answers with the bare id, {"id": ...}, or nothing at all.
// Once the POST succeeded the resource exists, so an unusable body yields
// an empty id rather than an error.
func (r *schedulerRepository) create(ctx context.Context, path string, in any) (string, error) {
	var raw []byte
	if err := r.client.Post(ctx, path, in, &raw); err != nil {
		return "", err
	}

	return parseCreatedID(raw), nil
}

func parseCreatedID(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if !json.Valid(raw) {
		if bytes.ContainsAny(raw, " \t\r\n") {
			return ""
		}
		return string(raw)
	}

	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return ""
	}

	if obj, ok := value.(map[string]any); ok {
		value = obj["id"]
	}

	switch id := value.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
