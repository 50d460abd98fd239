package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

// Resource is one REST collection such as /tables/.
type Resource[T any] struct {
	client *Client
	path   string
}

func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id int) string {
	return r.path + strconv.Itoa(id) + "/"
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	resp, err := r.client.do(ctx, http.MethodGet, r.path, nil, nil)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if err := resp.decodeList(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int) (T, error) {
	item, _, err := r.GetVersioned(ctx, id)
	return item, err
}

// GetVersioned also returns the ETag of the item, empty when the API sends
// none.
func (r *Resource[T]) GetVersioned(ctx context.Context, id int) (T, string, error) {
	var item T
	resp, err := r.client.do(ctx, http.MethodGet, r.itemPath(id), nil, nil)
	if err != nil {
		return item, "", err
	}
	if err := resp.decode(&item); err != nil {
		return item, "", err
	}
	return item, resp.header.Get("ETag"), nil
}

func (r *Resource[T]) Create(ctx context.Context, payload interface{}) (T, error) {
	return r.write(ctx, http.MethodPost, r.path, payload, "")
}

func (r *Resource[T]) Patch(ctx context.Context, id int, fields interface{}) (T, error) {
	return r.write(ctx, http.MethodPatch, r.itemPath(id), fields, "")
}

// PatchIfMatch only applies when the item still carries etag; otherwise the
// API answers 412 and the error matches ErrPreconditionFailed.
func (r *Resource[T]) PatchIfMatch(ctx context.Context, id int, fields interface{}, etag string) (T, error) {
	return r.write(ctx, http.MethodPatch, r.itemPath(id), fields, etag)
}

func (r *Resource[T]) Put(ctx context.Context, id int, payload interface{}) (T, error) {
	return r.write(ctx, http.MethodPut, r.itemPath(id), payload, "")
}

func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
	return err
}

func (r *Resource[T]) write(ctx context.Context, method, path string, payload interface{}, etag string) (T, error) {
	var item T
	var header http.Header
	if etag != "" {
		header = http.Header{"If-Match": []string{etag}}
	}
	resp, err := r.client.do(ctx, method, path, payload, header)
	if err != nil {
		return item, err
	}
	if err := resp.decode(&item); err != nil {
		return item, err
	}
	return item, nil
}
