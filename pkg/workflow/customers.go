package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/flowdesk/pkg/validation"
)

// Customers administers customers.
type Customers struct {
	resource[Customer]
	now func() time.Time
}

// NewCustomers creates the customer service.
func NewCustomers(api API) *Customers {
	return &Customers{
		resource: newResource[Customer](api, "customer", "customers"),
		now:      time.Now,
	}
}

// Create validates in and creates a customer.
func (s *Customers) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	c, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", c.ID).Str("name", c.Name).Msg("Customer created")
	return c, nil
}

// Update validates in and replaces customer id.
func (s *Customers) Update(ctx context.Context, id string, in CustomerInput) (*Customer, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	return s.update(ctx, id, in)
}

// validate applies the struct rules, then the minimum age for individuals.
func (s *Customers) validate(in CustomerInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Type != CustomerIndividual {
		return nil
	}

	birth, err := time.Parse(time.DateOnly, in.Birthdate)
	if err != nil {
		return validation.FieldErrors{"birthdate": "must match 2006-01-02"}
	}
	age, err := validation.AgeFromBirthdate(birth, s.now())
	if err != nil {
		return validation.FieldErrors{"birthdate": err.Error()}
	}
	if age < MinCustomerAge {
		return validation.FieldErrors{"birthdate": fmt.Sprintf("customer must be at least %d years old", MinCustomerAge)}
	}
	return nil
}
