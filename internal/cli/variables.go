package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
)

func newVariablesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "variables",
		Aliases: []string{"variable", "vars"},
		Short:   "Manage collection variables",
	}

	var collectionID string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			view := rt.app.service.ListVariables(cmd.Context(), collectionID)
			if view.Errors != nil {
				p.errorMap(view.Errors)
				return ErrReported
			}
			if len(view.Variables) == 0 {
				p.info("No variables found")
				return nil
			}

			rows := make([][]string, 0, len(view.Variables))
			for _, v := range view.Variables {
				rows = append(rows, []string{v.ID, v.CollectionID, v.Name, v.Value, formatTime(v.Updated)})
			}
			return p.table([]string{"ID", "Collection", "Name", "Value", "Updated"}, rows)
		},
	}
	ls.Flags().StringVar(&collectionID, "collection", "", "only list variables of this collection")

	cmd.AddCommand(
		ls,
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a variable",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				e := rt.app.service.NewVariableEditor(args[0], "", &navigation{})
				errs := func() map[string]string { return e.View().Errors }
				if err := loadResource[model.VariableInput](cmd.Context(), p, e, errs); err != nil {
					return err
				}

				draft := e.View().Draft
				return p.fields([][]string{
					{"ID", args[0]},
					{"Collection", draft.CollectionID},
					{"Name", draft.Name},
					{"Value", draft.Value},
				})
			},
		},
		&cobra.Command{
			Use:   "set <collection-id> <name> <value>",
			Short: "Create or update a variable",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
				collection, name, value := args[0], args[1], args[2]

				existing := rt.app.service.ListVariables(cmd.Context(), collection)
				if existing.Errors != nil {
					p.errorMap(existing.Errors)
					return ErrReported
				}

				var id string
				for _, v := range existing.Variables {
					if v.CollectionID == collection && v.Name == name {
						id = v.ID
						break
					}
				}

				e := rt.app.service.NewVariableEditor(id, collection, &navigation{})
				errs := func() map[string]string { return e.View().Errors }
				err := saveDraft[model.VariableInput](cmd.Context(), p, e, errs, func(in *model.VariableInput) error {
					in.CollectionID = collection
					in.Name = name
					in.Value = value
					return nil
				})
				if err != nil {
					return err
				}

				if id == "" {
					p.created("Variable", name, e.View().ID)
				} else {
					p.success("Variable %s updated", name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a variable",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

				e := rt.app.service.NewVariableEditor(args[0], "", &navigation{})
				errs := func() map[string]string { return e.View().Errors }
				if err := removeResource[model.VariableInput](cmd.Context(), p, e, errs); err != nil {
					return err
				}

				p.success("Variable %s deleted", args[0])
				return nil
			},
		},
	)

	return cmd
}
