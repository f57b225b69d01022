package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

func newJobsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage jobs and inspect their runs",
	}

	cmd.AddCommand(
		newJobsListCommand(rt),
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a job with its run status",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				view := rt.app.service.GetJobDetail(cmd.Context(), args[0])
				if view.Job == nil {
					p.errorMap(view.Errors)
					return ErrReported
				}

				job := view.Job
				pairs := [][]string{
					{"ID", job.ID},
					{"Collection", job.CollectionID},
					{"Name", job.Name},
					{"State", string(job.State)},
					{"Schedule", job.Schedule},
					{"Request", job.Action.Request.Method + " " + job.Action.Request.URI},
					{"Retries", fmt.Sprintf("%d every %s within %s",
						job.Action.RetryPolicy.RetryCount, job.Action.RetryPolicy.RetryInterval, job.Action.RetryPolicy.Deadline)},
				}
				for _, h := range job.Action.Request.Headers {
					pairs = append(pairs, []string{"Header", h.Name + ": " + h.Value})
				}
				if s := view.Status; s != nil {
					pairs = append(pairs,
						[]string{"Running", strconv.FormatBool(s.Running)},
						[]string{"Runs", fmt.Sprintf("%d (%d failed)", s.RunCount, s.ErrorCount)},
						[]string{"Last run", formatTimePtr(s.LastRun)},
					)
				}
				for _, next := range view.NextRuns {
					pairs = append(pairs, []string{"Next run", formatTime(next)})
				}
				if err := p.fields(pairs); err != nil {
					return err
				}

				// the job loaded but its status or history did not
				if view.Errors != nil {
					p.errorMap(view.Errors)
					return ErrReported
				}
				return nil
			},
		},
		newJobCreateCommand(rt),
		newJobRunCommand(rt, "run", true),
		newJobRunCommand(rt, "stop", false),
		&cobra.Command{
			Use:   "history <id>",
			Short: "Show the run history of a job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				view := rt.app.service.GetJobDetail(cmd.Context(), args[0])
				if view.Errors != nil {
					p.errorMap(view.Errors)
					return ErrReported
				}

				rows := make([][]string, 0, len(view.History))
				for _, h := range view.History {
					rows = append(rows, []string{
						formatTime(h.Started),
						formatTime(h.Finished),
						strconv.Itoa(h.Status),
						strconv.Itoa(h.RetryCount),
						h.Message,
					})
				}
				return p.table([]string{"Started", "Finished", "Status", "Retries", "Message"}, rows)
			},
		},
		&cobra.Command{
			Use:   "clear-history <id>",
			Short: "Delete the run history of a job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				err := p.spin("Clearing history", func() error {
					return rt.app.service.ClearJobHistory(cmd.Context(), args[0])
				})
				if err != nil {
					return p.fail(err)
				}

				p.success("History of job %s cleared", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				e := rt.app.service.NewJobEditor(args[0], "", &navigation{})
				errs := func() map[string]string { return e.View().Errors }
				if err := removeResource[model.JobInput](cmd.Context(), p, e, errs); err != nil {
					return err
				}

				p.success("Job %s deleted", args[0])
				return nil
			},
		},
	)

	return cmd
}

func newJobsListCommand(rt *runtime) *cobra.Command {
	var collectionID string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			view := rt.app.service.ListJobs(cmd.Context(), collectionID)
			if view.Errors != nil {
				p.errorMap(view.Errors)
				return ErrReported
			}
			if len(view.Jobs) == 0 {
				p.info("No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(view.Jobs))
			for _, j := range view.Jobs {
				running, runs := "-", "-"
				if j.Status != nil {
					running = strconv.FormatBool(j.Status.Running)
					runs = strconv.Itoa(j.Status.RunCount)
				}
				errorRate := "-"
				if j.ErrorRate != nil {
					errorRate = strconv.FormatFloat(*j.ErrorRate, 'f', 2, 64)
				}
				rows = append(rows, []string{j.ID, j.CollectionID, j.Name, j.Schedule, string(j.State), running, runs, errorRate})
			}
			return p.table([]string{"ID", "Collection", "Name", "Schedule", "State", "Running", "Runs", "Error rate"}, rows)
		},
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "only list jobs of this collection")
	return cmd
}

func newJobCreateCommand(rt *runtime) *cobra.Command {
	var (
		collectionID  string
		name          string
		schedule      string
		method        string
		uri           string
		headers       []string
		body          string
		retries       int
		retryInterval string
		deadline      string
		disabled      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an HTTP job",
		Example: `  scheduler-console jobs create --collection c1 --name ping \
    --schedule "*/5 * * * *" --uri https://example.com/ping --header "Authorization: Bearer x"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			parsed := make([]model.Header, 0, len(headers))
			for _, h := range headers {
				hName, hValue, err := parseHeader(h)
				if err != nil {
					return err
				}
				parsed = append(parsed, model.Header{Name: hName, Value: hValue})
			}

			e := rt.app.service.NewJobEditor("", collectionID, &navigation{})
			errs := func() map[string]string { return e.View().Errors }
			err := saveDraft[model.JobInput](cmd.Context(), p, e, errs, func(in *model.JobInput) error {
				in.Name = name
				in.Schedule = schedule
				in.Action.Request.Method = strings.ToUpper(method)
				in.Action.Request.URI = uri
				in.Action.Request.Headers = parsed
				in.Action.Request.Body = body
				in.Action.RetryPolicy.RetryCount = retries
				in.Action.RetryPolicy.RetryInterval = retryInterval
				in.Action.RetryPolicy.Deadline = deadline
				if disabled {
					in.State = model.StateDisabled
				}
				return nil
			})
			if err != nil {
				return err
			}

			p.created("Job", name, e.View().ID)
			return nil
		},
	}

	defaults := model.NewJobInput("")
	cmd.Flags().StringVar(&collectionID, "collection", "", "collection id")
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule, e.g. \"0 * * * *\" or @daily")
	cmd.Flags().StringVar(&method, "method", defaults.Action.Request.Method, "HTTP method")
	cmd.Flags().StringVar(&uri, "uri", "", "request URI")
	cmd.Flags().StringArrayVar(&headers, "header", nil, "request header as \"Name: value\", repeatable")
	cmd.Flags().StringVar(&body, "body", "", "request body")
	cmd.Flags().IntVar(&retries, "retries", defaults.Action.RetryPolicy.RetryCount, "retry count")
	cmd.Flags().StringVar(&retryInterval, "retry-interval", defaults.Action.RetryPolicy.RetryInterval, "ISO-8601 duration between retries")
	cmd.Flags().StringVar(&deadline, "deadline", defaults.Action.RetryPolicy.Deadline, "ISO-8601 duration after which retries stop")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the job disabled")

	return cmd
}

func newJobRunCommand(rt *runtime, use string, running bool) *cobra.Command {
	short := "Start a manual run of a job"
	if !running {
		short = "Stop the current run of a job"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			// the status ETag guards against racing another operator
			view := rt.app.service.GetJobDetail(cmd.Context(), args[0])
			if view.Status == nil {
				p.errorMap(view.Errors)
				return ErrReported
			}

			err := p.spin(short, func() error {
				return rt.app.service.SetJobRunning(cmd.Context(), args[0], running, view.StatusETag)
			})
			if err != nil {
				return p.fail(err)
			}

			if running {
				p.success("Job %s started", args[0])
			} else {
				p.success("Job %s stopped", args[0])
			}
			return nil
		},
	}
}
