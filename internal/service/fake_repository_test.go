package service

import (
	"context"
	"sync"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

// fakeRepository is an in-memory scheduler used by the service tests
type fakeRepository struct {
	mu          sync.Mutex
	collections []model.Collection
	jobs        []model.Job
	variables   []model.Variable
	status      model.JobStatus
	history     []model.JobHistory
	etag        string
	listErr     error
	calls       []string
	lastETag    string
	lastJob     model.JobInput
	lastRunning *bool
}

var notFound = &apierror.DomainError{Status: 404, Message: "The requested resource could not be found on the server."}

func (f *fakeRepository) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRepository) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRepository) ListCollections(ctx context.Context) ([]model.Collection, error) {
	f.record("ListCollections")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collections, nil
}

func (f *fakeRepository) GetCollection(ctx context.Context, id string) (model.Collection, string, error) {
	f.record("GetCollection " + id)
	for _, c := range f.collections {
		if c.ID == id {
			return c, f.etag, nil
		}
	}
	return model.Collection{}, "", notFound
}

func (f *fakeRepository) CreateCollection(ctx context.Context, in model.CollectionInput) (string, error) {
	f.record("CreateCollection")
	return "c-new", nil
}

func (f *fakeRepository) UpdateCollection(ctx context.Context, id string, in model.CollectionInput, etag string) error {
	f.record("UpdateCollection " + id)
	f.lastETag = etag
	return nil
}

func (f *fakeRepository) DeleteCollection(ctx context.Context, id, etag string) error {
	f.record("DeleteCollection " + id)
	f.lastETag = etag
	return nil
}

func (f *fakeRepository) ListJobs(ctx context.Context, collectionID string) ([]model.Job, error) {
	f.record("ListJobs " + collectionID)
	var jobs []model.Job
	for _, j := range f.jobs {
		if collectionID == "" || j.CollectionID == collectionID {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func (f *fakeRepository) GetJob(ctx context.Context, id string) (model.Job, string, error) {
	f.record("GetJob " + id)
	for _, j := range f.jobs {
		if j.ID == id {
			return j, f.etag, nil
		}
	}
	return model.Job{}, "", notFound
}

func (f *fakeRepository) CreateJob(ctx context.Context, in model.JobInput) (string, error) {
	f.record("CreateJob")
	f.lastJob = in
	return "j-new", nil
}

func (f *fakeRepository) UpdateJob(ctx context.Context, id string, in model.JobInput, etag string) error {
	f.record("UpdateJob " + id)
	f.lastJob = in
	f.lastETag = etag
	return nil
}

func (f *fakeRepository) DeleteJob(ctx context.Context, id, etag string) error {
	f.record("DeleteJob " + id)
	f.lastETag = etag
	return nil
}

func (f *fakeRepository) GetJobStatus(ctx context.Context, id string) (model.JobStatus, string, error) {
	f.record("GetJobStatus " + id)
	return f.status, `"s1"`, nil
}

func (f *fakeRepository) UpdateJobStatus(ctx context.Context, id string, in model.JobStatusInput, etag string) error {
	f.record("UpdateJobStatus " + id)
	f.lastETag = etag
	running := in.Running
	f.lastRunning = &running
	return nil
}

func (f *fakeRepository) ListJobHistory(ctx context.Context, id string) ([]model.JobHistory, error) {
	f.record("ListJobHistory " + id)
	return f.history, nil
}

func (f *fakeRepository) DeleteJobHistory(ctx context.Context, id string) error {
	f.record("DeleteJobHistory " + id)
	return nil
}

func (f *fakeRepository) ListVariables(ctx context.Context, collectionID string) ([]model.Variable, error) {
	f.record("ListVariables " + collectionID)
	return f.variables, nil
}

func (f *fakeRepository) GetVariable(ctx context.Context, id string) (model.Variable, string, error) {
	f.record("GetVariable " + id)
	for _, v := range f.variables {
		if v.ID == id {
			return v, f.etag, nil
		}
	}
	return model.Variable{}, "", notFound
}

func (f *fakeRepository) CreateVariable(ctx context.Context, in model.VariableInput) (string, error) {
	f.record("CreateVariable")
	return "v-new", nil
}

func (f *fakeRepository) UpdateVariable(ctx context.Context, id string, in model.VariableInput, etag string) error {
	f.record("UpdateVariable " + id)
	f.lastETag = etag
	return nil
}

func (f *fakeRepository) DeleteVariable(ctx context.Context, id, etag string) error {
	f.record("DeleteVariable " + id)
	f.lastETag = etag
	return nil
}
