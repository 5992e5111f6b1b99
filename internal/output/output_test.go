package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/chrisdamba/dealradar/internal/cloudwriter"
	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

var publishedAt = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func rankedDeals() []models.Deal {
	validTo := publishedAt.AddDate(0, 0, 7)
	return []models.Deal{
		{ID: "d1", Title: "20% off Groceries", StoreChain: models.ChainPickNPay, ValidTo: validTo, DiscountPercentage: 20, Categories: []string{"Groceries", "Household"}, Score: 0.44},
		{ID: "d2", Title: "Save 10% on Bakery", StoreChain: models.ChainSpar, ValidTo: validTo, DiscountPercentage: 10, Categories: []string{"Bakery"}, Score: 0.21},
	}
}

func newTestPublisher(dest OutputDestination) *ResultPublisher {
	p := NewResultPublisher(dest, &models.OutputConfig{})
	p.now = func() time.Time { return publishedAt }
	return p
}

func TestNewRecommendationEvents(t *testing.T) {
	events := NewRecommendationEvents("u1", publishedAt, rankedDeals(), nil)
	require.Len(t, events, 2)
	assert.Equal(t, int32(1), events[0].Rank)
	assert.Equal(t, int32(2), events[1].Rank)
	assert.Equal(t, "Groceries|Household", events[0].Categories)
	assert.Equal(t, EventDealRecommended, events[0].EventType)
	assert.Equal(t, publishedAt.Unix(), events[0].Timestamp)
}

func TestNewRecommendationEvents_Breakdowns(t *testing.T) {
	breakdowns := map[string]scoring.Breakdown{
		"d1": {CategoryMatch: 0.5, StorePreference: 0.7, HistoricalInteraction: 0.1, Total: 0.44},
	}
	events := NewRecommendationEvents("u1", publishedAt, rankedDeals(), breakdowns)
	require.Len(t, events, 2)
	assert.Equal(t, 0.5, events[0].CategoryMatch)
	assert.Equal(t, 0.7, events[0].StorePreference)
	assert.Equal(t, 0.1, events[0].HistoricalInteraction)
	assert.Zero(t, events[1].CategoryMatch)
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewConsoleOutput(&buf)
	require.NoError(t, newTestPublisher(out).PublishRecommendations("u1", rankedDeals(), nil))
	require.NoError(t, out.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "["+models.DefaultRecommendTopic+"] {"))
	assert.Contains(t, lines[0], `"dealId":"d1"`)
}

func TestJSONOutput_PartitionsByHour(t *testing.T) {
	dir := t.TempDir()
	out := NewJSONOutput(dir, "export")
	require.NoError(t, newTestPublisher(out).PublishRecommendations("u1", rankedDeals(), nil))
	require.NoError(t, out.Close())

	path := filepath.Join(dir, "export", models.DefaultRecommendTopic, "year=2026/month=10/day=19/hour=14", "data.json")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []RecommendationEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev RecommendationEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		got = append(got, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].DealID)
	assert.Equal(t, "d2", got[1].DealID)
}

func TestJSONOutput_RejectsMissingTimestamp(t *testing.T) {
	out := NewJSONOutput(t.TempDir(), "export")
	assert.Error(t, out.WriteMessage("topic", []byte(`{"dealId":"x"}`)))
	assert.Error(t, out.WriteMessage("topic", []byte(`not json`)))
}

func TestKafkaOutput(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev RecommendationEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.DealID != "d1" {
			return errors.New("unexpected deal " + ev.DealID)
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	out := NewKafkaOutputWithProducer(producer, logger.NewTestLogger(t))
	err := newTestPublisher(out).PublishRecommendations("u1", rankedDeals(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, out.Close())
	assert.Error(t, out.WriteMessage("topic", []byte("{}")))
}

type fakeSNS struct {
	inputs []*sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSOutput(t *testing.T) {
	client := &fakeSNS{}
	out := NewSNSOutputWithClient(client, "arn:aws:sns:af-south-1:123456789012:deals", logger.NewTestLogger(t))

	stores := []models.RankedStore{{Store: models.Store{ID: "s1", Chain: models.ChainSpar}, DistanceKm: 1.5}}
	require.NoError(t, newTestPublisher(out).PublishNearby("u1", stores))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:af-south-1:123456789012:deals", aws.ToString(in.TopicArn))
	assert.Equal(t, models.DefaultNearbyTopic, aws.ToString(in.MessageAttributes["topic"].StringValue))

	var ev NearbyStoreEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &ev))
	assert.Equal(t, "s1", ev.StoreID)
	assert.Equal(t, 1.5, ev.DistanceKm)
}

func TestParquetOutput_Local(t *testing.T) {
	dir := t.TempDir()
	out := NewParquetOutputWithFactory(dir, "export", nil, "", logger.NewTestLogger(t))
	require.NoError(t, newTestPublisher(out).PublishRecommendations("u1", rankedDeals(), nil))
	require.NoError(t, out.Close())

	path := filepath.Join(dir, "export", models.DefaultRecommendTopic, "year=2026/month=10/day=19/hour=14", EventDealRecommended+".parquet")
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(RecommendationEvent), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	require.Equal(t, 2, num)
	rows := make([]RecommendationEvent, num)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "d1", rows[0].DealID)
	assert.InDelta(t, 0.44, rows[0].Score, 1e-12)
	assert.Equal(t, "Bakery", rows[1].Categories)
}

type memoryWriter struct {
	bytes.Buffer
	closed bool
}

func (m *memoryWriter) Close() error {
	m.closed = true
	return nil
}

type memoryFactory struct {
	objects map[string]*memoryWriter
}

func (f *memoryFactory) NewWriter(bucket, objectPath string) (cloudwriter.CloudWriter, error) {
	w := &memoryWriter{}
	f.objects[bucket+"/"+objectPath] = w
	return w, nil
}

func TestParquetOutput_Cloud(t *testing.T) {
	factory := &memoryFactory{objects: map[string]*memoryWriter{}}
	out := NewParquetOutputWithFactory("", "export", factory, "bucket", nil)

	stores := []models.RankedStore{{Store: models.Store{ID: "s1", Chain: models.ChainSpar}, DistanceKm: 2}}
	require.NoError(t, newTestPublisher(out).PublishNearby("u1", stores))
	require.NoError(t, out.Close())

	key := "bucket/export/" + models.DefaultNearbyTopic + "/year=2026/month=10/day=19/hour=14/" + EventStoreNearby + ".parquet"
	obj, ok := factory.objects[key]
	require.True(t, ok, "object %s not written", key)
	assert.True(t, obj.closed)
	assert.True(t, bytes.HasPrefix(obj.Bytes(), []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(obj.Bytes(), []byte("PAR1")))
}

func TestParquetOutput_UnknownEvent(t *testing.T) {
	out := NewParquetOutputWithFactory(t.TempDir(), "export", nil, "", nil)
	assert.Error(t, out.WriteMessage("topic", []byte(`{"timestamp":1,"eventType":"other"}`)))
}

func TestNewDestination(t *testing.T) {
	ctx := context.Background()

	d, err := NewDestination(ctx, &models.OutputConfig{Destination: "console"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleOutput{}, d)

	d, err = NewDestination(ctx, &models.OutputConfig{Destination: "file", OutputPath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONOutput{}, d)

	d, err = NewDestination(ctx, &models.OutputConfig{Destination: "parquet", OutputPath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ParquetOutput{}, d)

	_, err = NewDestination(ctx, &models.OutputConfig{Destination: "parquet", CloudStorage: models.CloudStorageConfig{Provider: "gcs"}}, nil)
	assert.Error(t, err)

	_, err = NewDestination(ctx, &models.OutputConfig{Destination: "sns"}, nil)
	assert.Error(t, err)

	_, err = NewDestination(ctx, &models.OutputConfig{Destination: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}
