package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

var taskListing = listing[workflow.Task]{
	noun:     "tasks",
	singular: "task",
	fields:   workflow.TaskFields,
	columns: []column[workflow.Task]{
		{"ID", func(t workflow.Task) string { return t.ID }},
		{"NAME", func(t workflow.Task) string { return t.Name }},
		{"STATE", func(t workflow.Task) string { return t.State }},
		{"ASSIGNEE", func(t workflow.Task) string { return t.Assignee }},
		{"GROUPS", func(t workflow.Task) string { return strings.Join(t.CandidateGroups, ",") }},
		{"PRIORITY", func(t workflow.Task) string { return strconv.Itoa(t.Priority) }},
		{"CREATED", func(t workflow.Task) string { return t.Created.Local().Format(time.DateTime) }},
	},
}

type taskFilterFlags struct {
	filter workflow.TaskFilter
	mine   bool
}

func (f *taskFilterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filter.Assignee, "assignee", "", "Only tasks assigned to this user")
	cmd.Flags().StringVar(&f.filter.CandidateGroup, "group", "", "Only tasks offered to this workgroup")
	cmd.Flags().StringVar(&f.filter.ProcessInstanceID, "process", "", "Only tasks of this process instance")
	cmd.Flags().StringVar(&f.filter.State, "state", "", "Only tasks in this state (created, assigned, delegated, completed)")
	cmd.Flags().BoolVar(&f.mine, "mine", false, "Only tasks assigned to the logged-in user")
}

func (f *taskFilterFlags) resolve(cmd *cobra.Command, a *app) (workflow.TaskFilter, error) {
	filter := f.filter
	if f.mine {
		cred, err := a.session.Current(cmd.Context())
		if err != nil {
			return filter, fmt.Errorf("--mine: %w", err)
		}
		filter.Assignee = cred.Username
	}
	return filter, nil
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "inbox"},
		Short:   "Work the task inbox",
	}

	var filter taskFilterFlags
	list := newListCmd(a, taskListing, func(cmd *cobra.Command) ([]workflow.Task, error) {
		f, err := filter.resolve(cmd, a)
		if err != nil {
			return nil, err
		}
		svc, err := service(a, workflow.NewTasks)
		if err != nil {
			return nil, err
		}
		return svc.ListAll(cmd.Context(), f)
	})
	filter.bind(list)

	get := &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewTasks)
			if err != nil {
				return err
			}
			t, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(out(cmd), t)
		},
	}

	cmd.AddCommand(list, get, newTaskWatchCmd(a))
	cmd.AddCommand(taskActionCmds(a)...)
	return cmd
}

// taskActionCmds returns assign, claim, delegate, complete and unassign.
func taskActionCmds(a *app) []*cobra.Command {
	action := func(use, short, done string, nargs int, do func(*cobra.Command, *workflow.Tasks, []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := service(a, workflow.NewTasks)
				if err != nil {
					return err
				}
				if err := do(cmd, svc, args); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "%s task %s\n", done, args[0])
				return nil
			},
		}
	}

	assign := action("assign <task-id> <user-id>", "Assign a task to a user", "Assigned", 2,
		func(cmd *cobra.Command, svc *workflow.Tasks, args []string) error {
			return svc.Assign(cmd.Context(), args[0], args[1])
		})
	claim := action("claim <task-id>", "Assign a task to yourself", "Claimed", 1,
		func(cmd *cobra.Command, svc *workflow.Tasks, args []string) error {
			return svc.Claim(cmd.Context(), args[0])
		})
	delegate := action("delegate <task-id> <user-id>", "Delegate a task to another user", "Delegated", 2,
		func(cmd *cobra.Command, svc *workflow.Tasks, args []string) error {
			return svc.Delegate(cmd.Context(), args[0], args[1])
		})
	unassign := action("unassign <task-id>", "Return a task to its candidate groups", "Unassigned", 1,
		func(cmd *cobra.Command, svc *workflow.Tasks, args []string) error {
			return svc.Unassign(cmd.Context(), args[0])
		})

	var vars map[string]string
	complete := action("complete <task-id>", "Complete a task", "Completed", 1,
		func(cmd *cobra.Command, svc *workflow.Tasks, args []string) error {
			variables := lo.MapValues(vars, func(v string, _ string) any { return parseVariable(v) })
			return svc.Complete(cmd.Context(), args[0], variables)
		})
	complete.Flags().StringToStringVar(&vars, "var", nil, "Process variable key=value (repeatable)")

	return []*cobra.Command{assign, claim, delegate, complete, unassign}
}

// parseVariable turns "true", "42" and "1.5" into typed values; anything
// else stays a string.
func parseVariable(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func newTaskWatchCmd(a *app) *cobra.Command {
	var (
		filter   taskFilterFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the inbox and print tasks as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive (got %s)", interval)
			}
			f, err := filter.resolve(cmd, a)
			if err != nil {
				return err
			}
			svc, err := service(a, workflow.NewTasks)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			seen := map[string]bool{}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				tasks, err := svc.ListAll(ctx, f)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					a.logger.Warn().Err(err).Msg("Inbox poll failed")
				}
				for _, t := range tasks {
					if seen[t.ID] {
						continue
					}
					seen[t.ID] = true
					fmt.Fprintf(out(cmd), "%s  %-10s %s  %s\n",
						t.Created.Local().Format(time.DateTime), t.State, t.ID, t.Name)
				}

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	filter.bind(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Poll interval")
	return cmd
}
