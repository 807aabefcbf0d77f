//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a throwaway Redpanda broker for integration tests.
// Redpanda speaks the Kafka protocol, so the franz-go client works unchanged.
type RedpandaContainer struct {
	Container testcontainers.Container
	Broker    string
	Admin     *kadm.Client
}

// NewRedpandaContainer starts a Redpanda container and connects an admin
// client to it. The container and client are torn down when the test
// finishes.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "redpandadata/redpanda:v24.2.4")
	if err != nil {
		t.Fatalf("start redpanda container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		t.Fatalf("redpanda seed broker: %v", err)
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		t.Fatalf("connect kafka admin client: %v", err)
	}
	t.Cleanup(client.Close)

	return &RedpandaContainer{Container: container, Broker: broker, Admin: kadm.NewClient(client)}
}

// CreateTopic creates a single-partition topic, failing the test on error.
func (r *RedpandaContainer) CreateTopic(t *testing.T, topic string) {
	t.Helper()

	if _, err := r.Admin.CreateTopic(context.Background(), 1, 1, nil, topic); err != nil {
		t.Fatalf("create topic %q: %v", topic, err)
	}
}
