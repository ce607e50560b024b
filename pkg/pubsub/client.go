package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoOrdersTopic     = errors.New("pubsub orders topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// topicAdmin is the slice of the topic admin API the client uses.
type topicAdmin interface {
	topicExists(ctx context.Context, fullName string) (bool, error)
	createTopic(ctx context.Context, fullName string) error
}

type grpcTopicAdmin struct {
	client *pubsub.Client
}

func (a grpcTopicAdmin) topicExists(ctx context.Context, fullName string) (bool, error) {
	_, err := a.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	switch {
	case err == nil:
		return true, nil
	case status.Code(err) == codes.NotFound:
		return false, nil
	default:
		return false, err
	}
}

func (a grpcTopicAdmin) createTopic(ctx context.Context, fullName string) error {
	_, err := a.client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: fullName})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}

// Client owns the Pub/Sub connection used to publish order events.
type Client struct {
	client  *pubsub.Client
	admin   topicAdmin
	project string
	topic   string
}

// NewClient dials Pub/Sub and checks the orders topic. With CreateTopic set a
// missing topic is created instead of failing, which suits the emulator.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	topic := topicResourceName(project, cfg.OrdersTopic)
	if topic == "" {
		return nil, errNoOrdersTopic
	}

	psClient, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, admin: grpcTopicAdmin{client: psClient}, project: project, topic: topic}
	if err := c.prepareTopic(ctx, cfg.CreateTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", topic), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) prepareTopic(ctx context.Context, create bool) error {
	ok, err := c.admin.topicExists(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("checking topic %q: %w", c.topic, err)
	}
	if ok {
		return nil
	}
	if !create {
		return fmt.Errorf("topic %q does not exist", c.topic)
	}
	if err := c.admin.createTopic(ctx, c.topic); err != nil {
		return fmt.Errorf("creating topic %q: %w", c.topic, err)
	}
	return nil
}

// Publisher returns a publisher for a topic ID or full resource name. Bare
// IDs resolve against the client's project.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := topicResourceName(c.project, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// Ping reports whether the orders topic is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.admin == nil {
		return errNotInitialized
	}
	ok, err := c.admin.topicExists(ctx, c.topic)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("topic %q does not exist", c.topic)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func topicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return "projects/" + p + "/topics/" + n
}
