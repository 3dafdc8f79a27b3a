package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/ipam-client/internal/http"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// ResourceClient provides the REST operations shared by every collection.
type ResourceClient[T any] struct {
	httpClient   *http.Client
	resourcePath string
	resourceName string
}

// NewResourceClient creates a client for the collection at resourcePath.
// resourceName is used in error messages.
func NewResourceClient[T any](httpClient *http.Client, resourcePath, resourceName string) *ResourceClient[T] {
	return &ResourceClient[T]{
		httpClient:   httpClient,
		resourcePath: resourcePath,
		resourceName: resourceName,
	}
}

func (c *ResourceClient[T]) itemPath(id int) string {
	return c.resourcePath + strconv.Itoa(id) + "/"
}

// List retrieves one page of the collection.
func (c *ResourceClient[T]) List(ctx context.Context, params ipam.Params) (*ipam.ListResponse[T], error) {
	resp, err := c.httpClient.Get(ctx, c.resourcePath, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.resourceName, err)
	}

	var list ipam.ListResponse[T]

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", c.resourceName, err)
	}

	return &list, nil
}

// Get retrieves one item by ID.
func (c *ResourceClient[T]) Get(ctx context.Context, id int) (*T, error) {
	if id <= 0 {
		return nil, ipam.ErrMissingResourceID
	}

	resp, err := c.httpClient.Get(ctx, c.itemPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", c.resourceName, err)
	}

	return decodeItem[T](resp, c.resourceName)
}

// Create adds item to the collection.
func (c *ResourceClient[T]) Create(ctx context.Context, item *T) (*T, error) {
	resp, err := c.httpClient.Post(ctx, c.resourcePath, item)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.resourceName, err)
	}

	return decodeItem[T](resp, c.resourceName)
}

// Update replaces the item with the given ID.
func (c *ResourceClient[T]) Update(ctx context.Context, id int, item *T) (*T, error) {
	if id <= 0 {
		return nil, ipam.ErrMissingResourceID
	}

	resp, err := c.httpClient.Put(ctx, c.itemPath(id), item)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", c.resourceName, err)
	}

	return decodeItem[T](resp, c.resourceName)
}

// Patch changes the given fields of the item.
func (c *ResourceClient[T]) Patch(ctx context.Context, id int, fields map[string]any) (*T, error) {
	if id <= 0 {
		return nil, ipam.ErrMissingResourceID
	}

	resp, err := c.httpClient.Patch(ctx, c.itemPath(id), fields)
	if err != nil {
		return nil, fmt.Errorf("patching %s: %w", c.resourceName, err)
	}

	return decodeItem[T](resp, c.resourceName)
}

// Delete removes the item.
func (c *ResourceClient[T]) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return ipam.ErrMissingResourceID
	}

	_, err := c.httpClient.Delete(ctx, c.itemPath(id))
	if err != nil {
		return fmt.Errorf("deleting %s: %w", c.resourceName, err)
	}

	return nil
}

func decodeItem[T any](resp *http.Response, resourceName string) (*T, error) {
	var item T

	err := json.Unmarshal(resp.Body, &item)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", resourceName, err)
	}

	return &item, nil
}
