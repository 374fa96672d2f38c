package workflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/Sternrassler/flowdesk/internal/testutil"
	"github.com/Sternrassler/flowdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendors_CreateWithDocument(t *testing.T) {
	mock := newMock(t)
	mock.SetHandler(http.MethodPost, "/api/v1/vendors", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("document")
		if !assert.NoError(t, err) {
			testutil.WriteEnvelope(w, http.StatusBadRequest, 400, "document missing", nil)
			return
		}
		content, _ := io.ReadAll(file)
		file.Close()

		testutil.WriteEnvelope(w, http.StatusOK, 200, "ok", Vendor{
			ID:          "v-1",
			Name:        r.FormValue("name"),
			TaxID:       r.FormValue("taxId"),
			DocumentURL: "/files/" + header.Filename + "?size=" + strconv.Itoa(len(content)),
		})
	})
	api, _ := newTestAPI(t, mock)

	got, err := NewVendors(api).Create(context.Background(), VendorInput{
		Name:     "Parts Co",
		Email:    "sales@parts.co",
		TaxID:    "DE123",
		Document: &Document{Name: "w9.pdf", Content: strings.NewReader("%PDF")},
	})
	require.NoError(t, err)
	assert.Equal(t, "v-1", got.ID)
	assert.Equal(t, "Parts Co", got.Name)
	assert.Equal(t, "DE123", got.TaxID)
	assert.Equal(t, "/files/w9.pdf?size=4", got.DocumentURL)
}

func TestVendors_CreateValidation(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)
	svc := NewVendors(api)
	ctx := context.Background()

	_, err := svc.Create(ctx, VendorInput{Name: "Parts Co", Email: "not-an-email"})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "email")

	_, err = svc.Create(ctx, VendorInput{Name: "Parts Co", Email: "a@parts.co", Document: &Document{}})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "needs a file name and content", fe["document"])

	assert.Zero(t, mock.GetRequestCount())
}

func TestWorkgroups_Membership(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPost, "/api/v1/workgroups/wg-1/members", nil)
	mock.SetData(http.MethodDelete, "/api/v1/workgroups/wg-1/members/u-7", nil)
	api, _ := newTestAPI(t, mock)
	svc := NewWorkgroups(api)
	ctx := context.Background()

	require.NoError(t, svc.AddMember(ctx, "wg-1", "u-7"))
	assert.JSONEq(t, `{"userId":"u-7"}`, string(mock.LastRequest().Body))

	require.NoError(t, svc.RemoveMember(ctx, "wg-1", "u-7"))
	assert.Equal(t, http.MethodDelete, mock.LastRequest().Method)

	assert.EqualError(t, svc.AddMember(ctx, "", "u-7"), "workgroup id is required")
	assert.EqualError(t, svc.RemoveMember(ctx, "wg-1", ""), "user id is required")
	assert.Equal(t, 2, mock.GetRequestCount())
}

func TestWorkgroups_CreateRejectsBadCode(t *testing.T) {
	mock := newMock(t)
	api, _ := newTestAPI(t, mock)

	_, err := NewWorkgroups(api).Create(context.Background(), WorkgroupInput{Code: "night shift", Name: "Night"})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe["code"], "may only contain")
}

func TestRoles_AssignToUser(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPost, "/api/v1/users/u-7/roles", nil)
	api, _ := newTestAPI(t, mock)
	svc := NewRoles(api)
	ctx := context.Background()

	require.NoError(t, svc.AssignToUser(ctx, "ops.admin", "u-7"))
	assert.JSONEq(t, `{"roleCode":"ops.admin"}`, string(mock.LastRequest().Body))

	var fe validation.FieldErrors
	require.True(t, errors.As(svc.AssignToUser(ctx, "ops admin", "u-7"), &fe))
	assert.ErrorIs(t, svc.AssignToUser(ctx, "ops.admin", ""), ErrMissingID)
	assert.Equal(t, 1, mock.GetRequestCount())
}

func TestRoles_Create(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPost, "/api/v1/roles", Role{ID: "r-1", Code: "auditor", Name: "Auditor"})
	api, _ := newTestAPI(t, mock)

	got, err := NewRoles(api).Create(context.Background(), RoleInput{Code: "auditor", Name: "Auditor", Permissions: []string{"tasks:read"}})
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	assert.JSONEq(t, `{"code":"auditor","name":"Auditor","permissions":["tasks:read"]}`, string(mock.LastRequest().Body))
}

func TestUsers_Create(t *testing.T) {
	mock := newMock(t)
	mock.SetData(http.MethodPost, "/api/v1/users", User{ID: "u-1", Username: "bob"})
	api, _ := newTestAPI(t, mock)
	svc := NewUsers(api)
	ctx := context.Background()

	_, err := svc.Create(ctx, UserInput{Username: "bob", Email: "bob@example.com", Password: "password"})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "is too weak", fe["password"])
	assert.Zero(t, mock.GetRequestCount())

	got, err := svc.Create(ctx, UserInput{Username: "bob", Email: "bob@example.com", Password: "Sup3r!Secret"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
}
