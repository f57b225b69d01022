package model

import "time"

// Variable represents a named value scoped to a collection
type Variable struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Name         string    `json:"name"`
	Value        string    `json:"value"`
	Updated      time.Time `json:"updated"`
}

// VariableInput is the writable part of a variable
type VariableInput struct {
	CollectionID string `json:"collectionId" validate:"required"`
	Name         string `json:"name" validate:"required,max=64,identifier"`
	Value        string `json:"value" validate:"max=4096"`
}

// Input returns the writable part of the variable
func (v Variable) Input() VariableInput {
	return VariableInput{
		CollectionID: v.CollectionID,
		Name:         v.Name,
		Value:        v.Value,
	}
}
