package service

import (
	"context"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/repository"
)

// collectionResource adapts the repository to editor.Resource
type collectionResource struct {
	repo repository.CollectionRepository
}

func (r collectionResource) Load(ctx context.Context, id string) (model.Collection, string, error) {
	return r.repo.GetCollection(ctx, id)
}

func (r collectionResource) Create(ctx context.Context, in model.CollectionInput) (string, error) {
	return r.repo.CreateCollection(ctx, in)
}

func (r collectionResource) Update(ctx context.Context, id string, in model.CollectionInput, etag string) error {
	return r.repo.UpdateCollection(ctx, id, in, etag)
}

func (r collectionResource) Delete(ctx context.Context, id, etag string) error {
	return r.repo.DeleteCollection(ctx, id, etag)
}

type jobResource struct {
	repo repository.JobRepository
}

func (r jobResource) Load(ctx context.Context, id string) (model.Job, string, error) {
	return r.repo.GetJob(ctx, id)
}

func (r jobResource) Create(ctx context.Context, in model.JobInput) (string, error) {
	return r.repo.CreateJob(ctx, in)
}

func (r jobResource) Update(ctx context.Context, id string, in model.JobInput, etag string) error {
	return r.repo.UpdateJob(ctx, id, in, etag)
}

func (r jobResource) Delete(ctx context.Context, id, etag string) error {
	return r.repo.DeleteJob(ctx, id, etag)
}

type variableResource struct {
	repo repository.VariableRepository
}

func (r variableResource) Load(ctx context.Context, id string) (model.Variable, string, error) {
	return r.repo.GetVariable(ctx, id)
}

func (r variableResource) Create(ctx context.Context, in model.VariableInput) (string, error) {
	return r.repo.CreateVariable(ctx, in)
}

func (r variableResource) Update(ctx context.Context, id string, in model.VariableInput, etag string) error {
	return r.repo.UpdateVariable(ctx, id, in, etag)
}

func (r variableResource) Delete(ctx context.Context, id, etag string) error {
	return r.repo.DeleteVariable(ctx, id, etag)
}
