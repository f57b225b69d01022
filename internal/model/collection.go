package model

import "time"

// State represents whether a collection or job is scheduled
type State string

// Possible collection and job states
const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
)

// Collection represents a logical grouping of jobs and variables
type Collection struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	State   State     `json:"state"`
	Updated time.Time `json:"updated"`
}

// CollectionInput is the writable part of a collection
type CollectionInput struct {
	Name  string `json:"name" validate:"required,max=64,identifier"`
	State State  `json:"state" validate:"required,oneof=enabled disabled"`
}

// Input returns the writable part of the collection
func (c Collection) Input() CollectionInput {
	return CollectionInput{
		Name:  c.Name,
		State: c.State,
	}
}

