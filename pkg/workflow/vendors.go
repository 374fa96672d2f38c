package workflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Vendors administers vendors.
type Vendors struct {
	resource[Vendor]
}

// NewVendors creates the vendor service.
func NewVendors(api API) *Vendors {
	return &Vendors{resource: newResource[Vendor](api, "vendor", "vendors")}
}

// Create uploads in as multipart/form-data, attaching the document when set.
func (s *Vendors) Create(ctx context.Context, in VendorInput) (*Vendor, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	form := client.Form{
		Fields: map[string]string{
			"name":  in.Name,
			"email": in.Email,
		},
	}
	if in.Phone != "" {
		form.Fields["phone"] = in.Phone
	}
	if in.TaxID != "" {
		form.Fields["taxId"] = in.TaxID
	}
	if in.Document != nil {
		if in.Document.Name == "" || in.Document.Content == nil {
			return nil, validation.FieldErrors{"document": "needs a file name and content"}
		}
		form.Files = append(form.Files, client.File{
			Field:   "document",
			Name:    in.Document.Name,
			Content: in.Document.Content,
		})
	}

	var v Vendor
	if err := s.api.CallMultipart(ctx, http.MethodPost, s.path, form, &v); err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}
	s.logger.Info().
		Str("id", v.ID).
		Bool("document", in.Document != nil).
		Msg("Vendor created")
	return &v, nil
}

// Update replaces vendor id. The document cannot be changed here.
func (s *Vendors) Update(ctx context.Context, id string, in VendorInput) (*Vendor, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, id, in)
}
