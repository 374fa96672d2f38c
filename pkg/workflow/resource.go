package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BasePath prefixes every API route.
const BasePath = "/api/v1"

// ErrMissingID is returned before a request when a required identifier is
// empty.
var ErrMissingID = errors.New("id is required")

// API is the transport the services call. *client.Client implements it.
type API interface {
	Call(ctx context.Context, method, path string, body, out any) error
	CallMultipart(ctx context.Context, method, path string, form client.Form, out any) error
	MaxConcurrency() int
}

// resource implements the list/get/delete calls shared by every collection.
type resource[T any] struct {
	api    API
	kind   string
	path   string
	logger zerolog.Logger
}

func newResource[T any](api API, kind, collection string) resource[T] {
	return resource[T]{
		api:    api,
		kind:   kind,
		path:   BasePath + "/" + collection,
		logger: log.With().Str("component", "workflow").Str("resource", collection).Logger(),
	}
}

func (r resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r resource[T]) requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%s %w", r.kind, ErrMissingID)
	}
	return nil
}

// List returns one server page.
func (r resource[T]) List(ctx context.Context, page, pageSize int) (*pagination.Page[T], error) {
	return r.list(ctx, url.Values{}, page, pageSize)
}

func (r resource[T]) list(ctx context.Context, query url.Values, page, pageSize int) (*pagination.Page[T], error) {
	if page < 1 {
		page = 1
	}
	query.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}

	var result pagination.Page[T]
	if err := r.api.Call(ctx, http.MethodGet, r.path+"?"+query.Encode(), nil, &result); err != nil {
		return nil, fmt.Errorf("list %ss: %w", r.kind, err)
	}
	return &result, nil
}

// ListAll fetches every page in parallel.
func (r resource[T]) ListAll(ctx context.Context) ([]T, error) {
	return r.fetchAll(ctx, pagination.SourceFunc[T](r.List))
}

func (r resource[T]) fetchAll(ctx context.Context, source pagination.PageSource[T]) ([]T, error) {
	config := pagination.DefaultConfig()
	config.MaxConcurrency = r.api.MaxConcurrency()
	return pagination.FetchAll(ctx, source, config)
}

// Get returns a single item.
func (r resource[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := r.requireID(id); err != nil {
		return nil, err
	}
	var item T
	if err := r.api.Call(ctx, http.MethodGet, r.itemPath(id), nil, &item); err != nil {
		return nil, fmt.Errorf("get %s %s: %w", r.kind, id, err)
	}
	return &item, nil
}

// Delete removes a single item.
func (r resource[T]) Delete(ctx context.Context, id string) error {
	if err := r.requireID(id); err != nil {
		return err
	}
	if err := r.api.Call(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.kind, id, err)
	}
	r.logger.Info().Str("id", id).Msgf("Deleted %s", r.kind)
	return nil
}

func (r resource[T]) create(ctx context.Context, body any) (*T, error) {
	var item T
	if err := r.api.Call(ctx, http.MethodPost, r.path, body, &item); err != nil {
		return nil, fmt.Errorf("create %s: %w", r.kind, err)
	}
	return &item, nil
}

func (r resource[T]) update(ctx context.Context, id string, body any) (*T, error) {
	if err := r.requireID(id); err != nil {
		return nil, err
	}
	var item T
	if err := r.api.Call(ctx, http.MethodPut, r.itemPath(id), body, &item); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.kind, id, err)
	}
	return &item, nil
}
