package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

// collection is the part of a workflow service shared by every resource.
type collection[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Delete(ctx context.Context, id string) error
}

// service builds a workflow service over the app's client.
func service[S any](a *app, build func(workflow.API) S) (S, error) {
	c, err := a.client()
	if err != nil {
		var zero S
		return zero, err
	}
	return build(c), nil
}

// collectionCmds returns the list, get and delete commands of a resource.
func collectionCmds[T any, S collection[T]](a *app, l listing[T], build func(workflow.API) S) []*cobra.Command {
	fetch := func(cmd *cobra.Command) ([]T, error) {
		svc, err := service(a, build)
		if err != nil {
			return nil, err
		}
		return svc.ListAll(cmd.Context())
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", l.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, build)
			if err != nil {
				return err
			}
			item, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(out(cmd), item)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", l.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, build)
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted %s %s\n", l.singular, args[0])
			return nil
		},
	}

	return []*cobra.Command{newListCmd(a, l, fetch), get, del}
}

// newListCmd fetches every page with fetch, then filters and pages locally.
func newListCmd[T any](a *app, l listing[T], fetch func(cmd *cobra.Command) ([]T, error)) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", l.noun),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			items, err := fetch(cmd)
			if err != nil {
				return err
			}
			return l.show(cmd, a, opts, items)
		},
	}
	opts.bind(cmd)
	return cmd
}

// overlay copies the values of the changed string flags onto dst.
func overlay(cmd *cobra.Command, dst map[string]*string) {
	for name, ptr := range dst {
		if cmd.Flags().Changed(name) {
			*ptr, _ = cmd.Flags().GetString(name)
		}
	}
}

// printed writes a created or updated item.
func printed[T any](cmd *cobra.Command, verb, singular string, item *T, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", verb, singular)
	return writeJSON(out(cmd), item)
}
