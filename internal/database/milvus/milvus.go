package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"lifequery/internal/config"
)

// Client wraps the Milvus SDK client together with its configuration. It is
// constructed explicitly and shared by reference; there is no global
// instance.
type Client struct {
	Client client.Client
	Config *config.MilvusConfig
}

// Connect dials Milvus and verifies the fragment collection exists.
func Connect(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus at %s: %w", cfg.Address, err)
	}

	has, err := c.HasCollection(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check Milvus collection %s: %w", cfg.Collection, err)
	}
	if !has {
		return nil, fmt.Errorf("milvus collection %s does not exist", cfg.Collection)
	}

	if err := c.LoadCollection(ctx, cfg.Collection, false); err != nil {
		return nil, fmt.Errorf("failed to load Milvus collection %s: %w", cfg.Collection, err)
	}

	return &Client{Client: c, Config: cfg}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
