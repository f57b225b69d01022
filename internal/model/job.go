package model

import "time"

// ActionTypeHTTP is the only action type supported by the scheduler
const ActionTypeHTTP = "HTTP"

// Job represents a scheduled HTTP action
type Job struct {
	ID           string     `json:"id"`
	CollectionID string     `json:"collectionId"`
	Name         string     `json:"name"`
	State        State      `json:"state"`
	Schedule     string     `json:"schedule"`
	Action       JobAction  `json:"action"`
	Status       *JobStatus `json:"status,omitempty"`    // only present when requested via fields=status
	ErrorRate    *float64   `json:"errorRate,omitempty"` // only present when requested via fields=errorRate
	Updated      time.Time  `json:"updated"`
}

// JobInput is the writable part of a job
type JobInput struct {
	CollectionID string    `json:"collectionId" validate:"required"`
	Name         string    `json:"name" validate:"required,max=64,identifier"`
	State        State     `json:"state" validate:"required,oneof=enabled disabled"`
	Schedule     string    `json:"schedule" validate:"required,cron"`
	Action       JobAction `json:"action" validate:"-"`
}

// JobAction describes what the scheduler performs on each run
type JobAction struct {
	Type        string      `json:"type" validate:"required,eq=HTTP"`
	Request     HTTPRequest `json:"request" validate:"-"`
	RetryPolicy RetryPolicy `json:"retryPolicy" validate:"-"`
}

// HTTPRequest is the request issued by an HTTP action
type HTTPRequest struct {
	Method  string   `json:"method" validate:"required,httpmethod"`
	URI     string   `json:"uri" validate:"required,max=2048,url"`
	Headers []Header `json:"headers" validate:"max=32,dive"`
	Body    string   `json:"body" validate:"max=65536"`
}

// Header is a single HTTP header of an action request
type Header struct {
	Name  string `json:"name" validate:"required,max=256"`
	Value string `json:"value" validate:"max=4096"`
}

// RetryPolicy controls how failed runs are retried by the scheduler
type RetryPolicy struct {
	RetryCount    int    `json:"retryCount" validate:"min=0,max=10"`
	RetryInterval string `json:"retryInterval" validate:"required,isoduration"` // ISO-8601 duration, e.g. PT30S
	Deadline      string `json:"deadline" validate:"required,isoduration"`
}

// JobStatus represents the run state of a job
type JobStatus struct {
	Running    bool       `json:"running"`
	RunCount   int        `json:"runCount"`
	ErrorCount int        `json:"errorCount"`
	LastRun    *time.Time `json:"lastRun,omitempty"`
	NextRun    *time.Time `json:"nextRun,omitempty"`
}

// JobStatusInput toggles the run state of a job
type JobStatusInput struct {
	Running bool `json:"running"`
}

// JobHistory is the record of one completed run
type JobHistory struct {
	Action     JobAction `json:"action"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	Status     int       `json:"status"` // HTTP status code returned by the action
	RetryCount int       `json:"retryCount"`
	Message    string    `json:"message"`
}

// Input returns the writable part of the job
func (j Job) Input() JobInput {
	return JobInput{
		CollectionID: j.CollectionID,
		Name:         j.Name,
		State:        j.State,
		Schedule:     j.Schedule,
		Action:       j.Action,
	}
}

// NewJobInput returns a draft with the defaults used by the add form
func NewJobInput(collectionID string) JobInput {
	return JobInput{
		CollectionID: collectionID,
		State:        StateEnabled,
		Action: JobAction{
			Type: ActionTypeHTTP,
			Request: HTTPRequest{
				Method:  "GET",
				Headers: []Header{},
			},
			RetryPolicy: RetryPolicy{
				RetryCount:    0,
				RetryInterval: "PT1M",
				Deadline:      "PT1H",
			},
		},
	}
}
