package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

func newCollectionsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				view := rt.app.service.ListCollections(cmd.Context())
				if view.Errors != nil {
					p.errorMap(view.Errors)
					return ErrReported
				}
				if len(view.Collections) == 0 {
					p.info("No collections found")
					return nil
				}

				rows := make([][]string, 0, len(view.Collections))
				for _, c := range view.Collections {
					rows = append(rows, []string{c.ID, c.Name, string(c.State), formatTime(c.Updated)})
				}
				return p.table([]string{"ID", "Name", "State", "Updated"}, rows)
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				e := rt.app.service.NewCollectionEditor(args[0], &navigation{})
				errs := func() map[string]string { return e.View().Errors }
				if err := loadResource[model.CollectionInput](cmd.Context(), p, e, errs); err != nil {
					return err
				}

				draft := e.View().Draft
				return p.fields([][]string{
					{"ID", args[0]},
					{"Name", draft.Name},
					{"State", string(draft.State)},
				})
			},
		},
		newCollectionCreateCommand(rt),
		newCollectionStateCommand(rt, "enable", model.StateEnabled),
		newCollectionStateCommand(rt, "disable", model.StateDisabled),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				e := rt.app.service.NewCollectionEditor(args[0], &navigation{})
				if err := removeResource[model.CollectionInput](cmd.Context(), p, e, func() map[string]string { return e.View().Errors }); err != nil {
					return err
				}

				p.success("Collection %s deleted", args[0])
				return nil
			},
		},
	)

	return cmd
}

func newCollectionCreateCommand(rt *runtime) *cobra.Command {
	var disabled bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			e := rt.app.service.NewCollectionEditor("", &navigation{})
			errs := func() map[string]string { return e.View().Errors }
			err := saveDraft[model.CollectionInput](cmd.Context(), p, e, errs, func(in *model.CollectionInput) error {
				in.Name = args[0]
				if disabled {
					in.State = model.StateDisabled
				}
				return nil
			})
			if err != nil {
				return err
			}

			p.created("Collection", args[0], e.View().ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the collection disabled")
	return cmd
}

func newCollectionStateCommand(rt *runtime, use string, state model.State) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: "Set a collection " + string(state),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			e := rt.app.service.NewCollectionEditor(args[0], &navigation{})
			errs := func() map[string]string { return e.View().Errors }
			err := saveDraft[model.CollectionInput](cmd.Context(), p, e, errs, func(in *model.CollectionInput) error {
				in.State = state
				return nil
			})
			if err != nil {
				return err
			}

			p.success("Collection %s %s", args[0], state)
			return nil
		},
	}
}
