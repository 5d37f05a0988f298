package pubsub

import (
	"context"
	"testing"

	"github.com/onetwoclick/rinkshots-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "rink-prod"}

	if got := c.topicResourceName("orders"); got != "projects/rink-prod/topics/orders" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName("projects/other/topics/orders"); got != "projects/other/topics/orders" {
		t.Fatalf("full resource names should pass through, got %q", got)
	}
	if got := c.topicResourceName("  "); got != "" {
		t.Fatalf("blank topic should resolve empty, got %q", got)
	}
	if got := (&Client{}).topicResourceName("orders"); got != "" {
		t.Fatalf("missing project should resolve empty, got %q", got)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected errProjectIDRequired, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if _, err := c.Publish(context.Background(), "orders", []byte("{}"), nil); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if err := c.Ping(context.Background()); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close should be a no-op, got %v", err)
	}
	if c.OrdersTopic() != "" {
		t.Fatal("nil client should report no topic")
	}
}
