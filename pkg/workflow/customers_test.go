package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/flowdesk/internal/testutil"
	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCustomers(api API) *Customers {
	svc := NewCustomers(api)
	svc.now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCustomers_Create(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPost, "/api/v1/customers", Customer{ID: "c-1", Name: "Jane Roe"})
	api, _ := newTestAPI(t, mock)
	svc := fixedCustomers(api)

	got, err := svc.Create(context.Background(), CustomerInput{
		Type:      CustomerIndividual,
		Name:      "Jane Roe",
		Email:     "jane@example.com",
		Birthdate: "2000-06-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	req := mock.LastRequest()
	assert.Equal(t, "Bearer tok-alice", req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"type":"individual","name":"Jane Roe","email":"jane@example.com","birthdate":"2000-06-15"}`, string(req.Body))
}

func TestCustomers_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    CustomerInput
		field string
		msg   string
	}{
		{
			name:  "bad email",
			in:    CustomerInput{Type: CustomerCompany, Name: "Acme", Email: "acme"},
			field: "email",
			msg:   "must be a valid e-mail address",
		},
		{
			name:  "missing name",
			in:    CustomerInput{Type: CustomerCompany, Email: "ops@acme.io"},
			field: "name",
			msg:   "is required",
		},
		{
			name:  "unknown type",
			in:    CustomerInput{Type: "robot", Name: "R2", Email: "r2@acme.io"},
			field: "type",
			msg:   "must be one of: individual company",
		},
		{
			name:  "individual without birthdate",
			in:    CustomerInput{Type: CustomerIndividual, Name: "Jo", Email: "jo@acme.io"},
			field: "birthdate",
			msg:   "is required",
		},
		{
			name:  "individual under age",
			in:    CustomerInput{Type: CustomerIndividual, Name: "Kid", Email: "kid@acme.io", Birthdate: "2010-01-01"},
			field: "birthdate",
			msg:   "customer must be at least 18 years old",
		},
		{
			name:  "malformed birthdate",
			in:    CustomerInput{Type: CustomerIndividual, Name: "Jo", Email: "jo@acme.io", Birthdate: "01/02/2000"},
			field: "birthdate",
			msg:   "must match 2006-01-02",
		},
		{
			name:  "future birthdate",
			in:    CustomerInput{Type: CustomerIndividual, Name: "Jo", Email: "jo@acme.io", Birthdate: "2030-01-01"},
			field: "birthdate",
			msg:   "birthdate 2030-01-01 is in the future",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			api, _ := newTestAPI(t, mock)

			_, err := fixedCustomers(api).Create(context.Background(), tt.in)

			var fe validation.FieldErrors
			require.True(t, errors.As(err, &fe), "error %v should be FieldErrors", err)
			assert.Equal(t, tt.msg, fe[tt.field])
			assert.Zero(t, mock.GetRequestCount(), "invalid input must not reach the API")
		})
	}
}

func TestCustomers_CompanyWithoutBirthdate(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPut, "/api/v1/customers/c-9", Customer{ID: "c-9", Name: "Acme"})
	api, _ := newTestAPI(t, mock)

	got, err := fixedCustomers(api).Update(context.Background(), "c-9", CustomerInput{
		Type:  CustomerCompany,
		Name:  "Acme",
		Email: "ops@acme.io",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
}

func TestCustomers_MissingID(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)
	svc := NewCustomers(api)
	ctx := context.Background()

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrMissingID)
	assert.EqualError(t, err, "customer id is required")

	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrMissingID)

	_, err = svc.Update(ctx, "", CustomerInput{Type: CustomerCompany, Name: "Acme", Email: "a@acme.io"})
	assert.ErrorIs(t, err, ErrMissingID)

	assert.Zero(t, mock.GetRequestCount())
}

func TestCustomers_GetNotFound(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)

	_, err := NewCustomers(api).Get(context.Background(), "nope")
	assert.True(t, client.IsNotFound(err), "error = %v", err)
	assert.Contains(t, err.Error(), "get customer nope")
}

func TestCustomers_ListAll(t *testing.T) {
	items := make([]Customer, 230)
	for i := range items {
		items[i] = Customer{ID: fmt.Sprintf("c-%03d", i), Name: fmt.Sprintf("Customer %d", i)}
	}

	mock := newMock(t)
	mock.SetHandler(http.MethodGet, "/api/v1/customers", testutil.NewPagedHandler(items))
	api, _ := newTestAPI(t, mock)

	got, err := NewCustomers(api).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 230)
	assert.Equal(t, "c-000", got[0].ID)
	assert.Equal(t, "c-229", got[229].ID)
	assert.Equal(t, 3, mock.GetRequestCount())
}

func TestCustomers_List(t *testing.T) {
	items := []Customer{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	mock := newMock(t)
	mock.SetHandler(http.MethodGet, "/api/v1/customers", testutil.NewPagedHandler(items))
	api, _ := newTestAPI(t, mock)

	page, err := NewCustomers(api).List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Data, 1)
	assert.Equal(t, "3", page.Data[0].ID)

	q := mock.LastRequest().Query
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "2", q.Get("pageSize"))
}
