package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

var vendorListing = listing[workflow.Vendor]{
	noun:     "vendors",
	singular: "vendor",
	fields:   workflow.VendorFields,
	columns: []column[workflow.Vendor]{
		{"ID", func(v workflow.Vendor) string { return v.ID }},
		{"NAME", func(v workflow.Vendor) string { return v.Name }},
		{"EMAIL", func(v workflow.Vendor) string { return v.Email }},
		{"TAX ID", func(v workflow.Vendor) string { return v.TaxID }},
		{"DOCUMENT", func(v workflow.Vendor) string { return v.DocumentURL }},
	},
}

func newVendorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vendors",
		Aliases: []string{"vendor"},
		Short:   "Manage vendors",
	}
	cmd.AddCommand(collectionCmds(a, vendorListing, workflow.NewVendors)...)
	cmd.AddCommand(newVendorCreateCmd(a), newVendorUpdateCmd(a))
	return cmd
}

func bindVendorFlags(cmd *cobra.Command, in *workflow.VendorInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Name")
	cmd.Flags().StringVar(&in.Email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&in.TaxID, "tax-id", "", "Tax identifier")
}

func newVendorCreateCmd(a *app) *cobra.Command {
	var (
		in       workflow.VendorInput
		document string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vendor, optionally uploading a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(a, workflow.NewVendors)
			if err != nil {
				return err
			}

			if document != "" {
				f, err := os.Open(document)
				if err != nil {
					return fmt.Errorf("open document: %w", err)
				}
				defer f.Close()
				in.Document = &workflow.Document{Name: filepath.Base(document), Content: f}
			}

			v, err := svc.Create(cmd.Context(), in)
			return printed(cmd, "Created", "vendor", v, err)
		},
	}
	bindVendorFlags(cmd, &in)
	cmd.Flags().StringVar(&document, "document", "", "File to attach (e.g. a signed contract)")
	return cmd
}

func newVendorUpdateCmd(a *app) *cobra.Command {
	var flags workflow.VendorInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a vendor; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service(a, workflow.NewVendors)
			if err != nil {
				return err
			}
			current, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			in := workflow.VendorInput{
				Name:  current.Name,
				Email: current.Email,
				Phone: current.Phone,
				TaxID: current.TaxID,
			}
			overlay(cmd, map[string]*string{
				"name":   &in.Name,
				"email":  &in.Email,
				"phone":  &in.Phone,
				"tax-id": &in.TaxID,
			})

			v, err := svc.Update(cmd.Context(), args[0], in)
			return printed(cmd, "Updated", "vendor", v, err)
		},
	}
	bindVendorFlags(cmd, &flags)
	return cmd
}
