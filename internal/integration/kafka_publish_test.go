//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/csvsource"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/config"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/pipeline"
)

const testViewTopic = "test-views"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("bikeshare-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func loadFixtures(ctx context.Context, t *testing.T) *domain.Datasets {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata")
	p := pipeline.New(
		csvsource.NewSource(filepath.Join(dir, "bike_data_day.csv"), domain.Daily),
		csvsource.NewSource(filepath.Join(dir, "bike_data_hour.csv"), domain.Hourly),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	sets, err := p.Load(ctx)
	require.NoError(t, err)
	return sets
}

// TestViewsArePublished computes views through the service with a real Kafka
// sink and reads the summaries back from the topic.
func TestViewsArePublished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testViewTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaViewTopic: testViewTopic}
	publisher := kafka.NewSyncPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	metrics := observability.NewMetricsForTesting()
	svc := analysis.NewService(loadFixtures(ctx, t), discardLogger(), metrics, analysis.WithSink(publisher))

	week, err := svc.View(domain.Daily, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2011, 1, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	day, err := svc.View(domain.Hourly, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testViewTopic,
		GroupID:     fmt.Sprintf("test-views-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	type summary struct {
		Granularity string              `json:"granularity"`
		Rows        int                 `json:"rows"`
		Aggregates  analysis.Aggregates `json:"aggregates"`
	}

	got := map[string]summary{}
	for len(got) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from view topic")

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")
		assert.Len(t, msg.Key, 36, "key should be a UUID")

		var s summary
		require.NoError(t, json.Unmarshal(msg.Value, &s))
		assert.Equal(t, headers["granularity"], s.Granularity)
		got[s.Granularity] = s
	}

	assert.Equal(t, week.Rows, got["daily"].Rows)
	assert.Equal(t, 7, got["daily"].Rows)
	assert.Equal(t, week.Aggregates.TotalRides, got["daily"].Aggregates.TotalRides)
	assert.Equal(t, day.Rows, got["hourly"].Rows)
	assert.Len(t, got["hourly"].Aggregates.RidersByHour, 24)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ViewsPublished), 0)
}
