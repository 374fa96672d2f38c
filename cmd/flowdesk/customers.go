package main

import (
	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

var customerListing = listing[workflow.Customer]{
	noun:     "customers",
	singular: "customer",
	fields:   workflow.CustomerFields,
	columns: []column[workflow.Customer]{
		{"ID", func(c workflow.Customer) string { return c.ID }},
		{"TYPE", func(c workflow.Customer) string { return c.Type }},
		{"NAME", func(c workflow.Customer) string { return c.Name }},
		{"EMAIL", func(c workflow.Customer) string { return c.Email }},
		{"PHONE", func(c workflow.Customer) string { return c.Phone }},
	},
}

func newCustomersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Manage customers",
	}
	cmd.AddCommand(collectionCmds(a, customerListing, workflow.NewCustomers)...)
	cmd.AddCommand(newCustomerCreateCmd(a), newCustomerUpdateCmd(a))
	return cmd
}

func bindCustomerFlags(cmd *cobra.Command, in *workflow.CustomerInput) {
	cmd.Flags().StringVar(&in.Type, "type", workflow.CustomerIndividual, "individual or company")
	cmd.Flags().StringVar(&in.Name, "name", "", "Name")
	cmd.Flags().StringVar(&in.Email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&in.Birthdate, "birthdate", "", "Birthdate of an individual (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Address, "address", "", "Postal address")
}

func newCustomerCreateCmd(a *app) *cobra.Command {
	var in workflow.CustomerInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(a, workflow.NewCustomers)
			if err != nil {
				return err
			}
			c, err := svc.Create(cmd.Context(), in)
			return printed(cmd, "Created", "customer", c, err)
		},
	}
	bindCustomerFlags(cmd, &in)
	return cmd
}

func newCustomerUpdateCmd(a *app) *cobra.Command {
	var flags workflow.CustomerInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a customer; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewCustomers)
			if err != nil {
				return err
			}
			current, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			in := workflow.CustomerInput{
				Type:      current.Type,
				Name:      current.Name,
				Email:     current.Email,
				Phone:     current.Phone,
				Birthdate: current.Birthdate,
				Address:   current.Address,
			}
			overlay(cmd, map[string]*string{
				"type":      &in.Type,
				"name":      &in.Name,
				"email":     &in.Email,
				"phone":     &in.Phone,
				"birthdate": &in.Birthdate,
				"address":   &in.Address,
			})

			c, err := svc.Update(cmd.Context(), args[0], in)
			return printed(cmd, "Updated", "customer", c, err)
		},
	}
	bindCustomerFlags(cmd, &flags)
	return cmd
}
