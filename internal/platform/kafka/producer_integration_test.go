//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"brokerdesk/internal/platform/kafka"
	"brokerdesk/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	brokers  []string
	producer *kafka.Producer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	rp := containers.GetManager().GetRedpanda(s.T())
	s.brokers = rp.Brokers

	p, err := kafka.NewProducer(kafka.Config{Brokers: s.brokers, ClientID: "producer-test"})
	s.Require().NoError(err)
	s.producer = p
}

func (s *ProducerSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close(context.Background())
	}
}

func (s *ProducerSuite) TestEnsureTopicIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.producer.EnsureTopic(ctx, "quote-status-idem", 1, 1))
	s.Require().NoError(s.producer.EnsureTopic(ctx, "quote-status-idem", 1, 1))
}

func (s *ProducerSuite) TestPublishedRecordIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	const topic = "quote-status-roundtrip"

	s.Require().NoError(s.producer.Ping(ctx))
	s.Require().NoError(s.producer.EnsureTopic(ctx, topic, 1, 1))
	s.Require().NoError(s.producer.Publish(ctx, topic, []byte("quote-1"), []byte(`{"new_status":"Document disponible"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("quote-1", string(records[0].Key))
	s.JSONEq(`{"new_status":"Document disponible"}`, string(records[0].Value))
}
