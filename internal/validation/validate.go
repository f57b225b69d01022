package validation

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

// Messages for the collection reference of jobs and variables
const (
	MsgNoCollections     = "Create a collection first"
	MsgUnknownCollection = "Collection does not exist"
)

var rules = MustRules(nil)

// Collection validates a collection draft
func Collection(in model.CollectionInput) map[string]string {
	return rules.Check(in).ToMap()
}

// Variable validates a variable draft. collections is the selector content;
// nil means it was not loaded and the reference is not checked.
func Variable(in model.VariableInput, collections []model.Collection) map[string]string {
	violations := collectionRef(in.CollectionID, collections)
	violations = append(violations, rules.Check(in)...)
	return violations.ToMap()
}

// Job validates a job draft in four passes (request, retry policy, action and
// the job itself) and merges them into one flat map, matching the locations
// the scheduler uses: "uri" rather than "action.request.uri".
func Job(in model.JobInput, collections []model.Collection) map[string]string {
	violations := collectionRef(in.CollectionID, collections)
	violations = append(violations, rules.Check(in.Action.Request)...)
	violations = append(violations, rules.Check(in.Action.RetryPolicy)...)
	violations = append(violations, rules.Check(in.Action)...)
	violations = append(violations, rules.Check(in)...)
	return violations.ToMap()
}

func collectionRef(id string, collections []model.Collection) Violations {
	if collections == nil {
		return nil
	}
	if len(collections) == 0 {
		return Violations{{Location: "collectionId", Message: MsgNoCollections}}
	}
	if id == "" {
		return nil
	}
	for _, c := range collections {
		if c.ID == id {
			return nil
		}
	}
	return Violations{{Location: "collectionId", Message: MsgUnknownCollection}}
}

// NextRuns returns the next n fire times of schedule after from
func NextRuns(schedule string, from time.Time, n int) ([]time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", schedule)
	}

	runs := make([]time.Time, 0, n)
	next := from
	for range n {
		next = sched.Next(next)
		if next.IsZero() {
			break
		}
		runs = append(runs, next)
	}
	return runs, nil
}
