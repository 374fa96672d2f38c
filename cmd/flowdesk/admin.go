package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

var workgroupListing = listing[workflow.Workgroup]{
	noun:     "workgroups",
	singular: "workgroup",
	fields:   workflow.WorkgroupFields,
	columns: []column[workflow.Workgroup]{
		{"ID", func(w workflow.Workgroup) string { return w.ID }},
		{"CODE", func(w workflow.Workgroup) string { return w.Code }},
		{"NAME", func(w workflow.Workgroup) string { return w.Name }},
		{"MEMBERS", func(w workflow.Workgroup) string { return strconv.Itoa(len(w.Members)) }},
	},
}

var roleListing = listing[workflow.Role]{
	noun:     "roles",
	singular: "role",
	fields:   workflow.RoleFields,
	columns: []column[workflow.Role]{
		{"ID", func(r workflow.Role) string { return r.ID }},
		{"CODE", func(r workflow.Role) string { return r.Code }},
		{"NAME", func(r workflow.Role) string { return r.Name }},
		{"PERMISSIONS", func(r workflow.Role) string { return strings.Join(r.Permissions, ",") }},
	},
}

var userListing = listing[workflow.User]{
	noun:     "users",
	singular: "user",
	fields:   workflow.UserFields,
	columns: []column[workflow.User]{
		{"ID", func(u workflow.User) string { return u.ID }},
		{"USERNAME", func(u workflow.User) string { return u.Username }},
		{"NAME", func(u workflow.User) string { return u.FullName }},
		{"EMAIL", func(u workflow.User) string { return u.Email }},
		{"ROLES", func(u workflow.User) string { return strings.Join(u.Roles, ",") }},
		{"ACTIVE", func(u workflow.User) string { return strconv.FormatBool(u.Active) }},
	},
}

func newWorkgroupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workgroups",
		Aliases: []string{"workgroup", "groups"},
		Short:   "Manage workgroups and their members",
	}
	cmd.AddCommand(collectionCmds(a, workgroupListing, workflow.NewWorkgroups)...)

	var in workflow.WorkgroupInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a workgroup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(a, workflow.NewWorkgroups)
			if err != nil {
				return err
			}
			w, err := svc.Create(cmd.Context(), in)
			return printed(cmd, "Created", "workgroup", w, err)
		},
	}
	create.Flags().StringVar(&in.Code, "code", "", "Unique code, e.g. claims.review")
	create.Flags().StringVar(&in.Name, "name", "", "Name")
	create.Flags().StringVar(&in.Description, "description", "", "Description")

	addMember := &cobra.Command{
		Use:   "add-member <workgroup-id> <user-id>",
		Short: "Add a user to a workgroup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewWorkgroups)
			if err != nil {
				return err
			}
			if err := svc.AddMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Added %s to workgroup %s\n", args[1], args[0])
			return nil
		},
	}

	removeMember := &cobra.Command{
		Use:   "remove-member <workgroup-id> <user-id>",
		Short: "Remove a user from a workgroup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewWorkgroups)
			if err != nil {
				return err
			}
			if err := svc.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Removed %s from workgroup %s\n", args[1], args[0])
			return nil
		},
	}

	cmd.AddCommand(create, addMember, removeMember)
	return cmd
}

func newRolesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roles",
		Aliases: []string{"role"},
		Short:   "Manage roles and role assignments",
	}
	cmd.AddCommand(collectionCmds(a, roleListing, workflow.NewRoles)...)

	var in workflow.RoleInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(a, workflow.NewRoles)
			if err != nil {
				return err
			}
			r, err := svc.Create(cmd.Context(), in)
			return printed(cmd, "Created", "role", r, err)
		},
	}
	create.Flags().StringVar(&in.Code, "code", "", "Unique code, e.g. ops.admin")
	create.Flags().StringVar(&in.Name, "name", "", "Name")
	create.Flags().StringVar(&in.Description, "description", "", "Description")
	create.Flags().StringSliceVar(&in.Permissions, "permission", nil, "Granted permission (repeatable)")

	assign := &cobra.Command{
		Use:   "assign <role-code> <user-id>",
		Short: "Grant a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewRoles)
			if err != nil {
				return err
			}
			if err := svc.AssignToUser(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Assigned role %s to %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(create, assign)
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage operator accounts",
	}
	cmd.AddCommand(collectionCmds(a, userListing, workflow.NewUsers)...)

	var in workflow.UserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(a, workflow.NewUsers)
			if err != nil {
				return err
			}
			u, err := svc.Create(cmd.Context(), in)
			return printed(cmd, "Created", "user", u, err)
		},
	}
	create.Flags().StringVar(&in.Username, "username", "", "Login name")
	create.Flags().StringVar(&in.Email, "email", "", "E-mail address")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password")
	create.Flags().StringVar(&in.FullName, "full-name", "", "Full name")
	create.Flags().StringVar(&in.Birthdate, "birthdate", "", "Birthdate (YYYY-MM-DD)")

	cmd.AddCommand(create)
	return cmd
}
