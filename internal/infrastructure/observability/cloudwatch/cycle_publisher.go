package cloudwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
)

const (
	// CloudWatch limits
	maxMetricsPerRequest = 1000
	maxRetries           = 3
	initialBackoff       = 100 * time.Millisecond

	// Metric names emitted per analysis cycle
	metricScore          = "HealthScore"
	metricDuration       = "CycleDuration"
	metricPipelineErrors = "PipelineErrors"
	metricCycleCount     = "CycleCount"
)

// CyclePublisherConfig holds configuration for CloudWatch cycle publishing.
type CyclePublisherConfig struct {
	Namespace         string            // CloudWatch namespace (e.g., "PageHealth/Analysis")
	Region            string            // AWS region (e.g., "us-east-1")
	Endpoint          string            // Optional endpoint override (for LocalStack)
	AccessKeyID       string            // AWS access key
	SecretAccessKey   string            // AWS secret key
	DefaultDimensions map[string]string // Default dimensions added to all metrics
	BufferSize        int               // Buffer size before auto-flush (in cycles)
	FlushInterval     time.Duration     // Automatic flush interval
}

// CyclePublisher publishes per-cycle analysis metrics to AWS CloudWatch.
// Implements port.CycleMetricsPublisher.
type CyclePublisher struct {
	client            *cloudwatch.Client
	namespace         string
	defaultDimensions map[string]string

	buffer     []types.MetricDatum
	bufferSize int
	mu         sync.Mutex

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewCyclePublisher creates a new CloudWatch cycle publisher.
func NewCyclePublisher(ctx context.Context, cfg CyclePublisherConfig) (*CyclePublisher, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 25
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}

	// Build AWS config
	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	p := &CyclePublisher{
		client:            cloudwatch.NewFromConfig(awsCfg),
		namespace:         cfg.Namespace,
		defaultDimensions: cfg.DefaultDimensions,
		// Each cycle produces a fixed set of datums
		buffer:      make([]types.MetricDatum, 0, cfg.BufferSize*4),
		bufferSize:  cfg.BufferSize * 4,
		flushTicker: time.NewTicker(cfg.FlushInterval),
		stopCh:      make(chan struct{}),
	}

	// Start background flush goroutine
	p.wg.Add(1)
	go p.flushLoop()

	return p, nil
}

// PublishCycle buffers the datums for one finished analysis cycle.
func (p *CyclePublisher) PublishCycle(ctx context.Context, stats port.CycleStats) error {
	data := p.convertToData(stats)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer = append(p.buffer, data...)

	// Auto-flush if buffer is full
	if len(p.buffer) >= p.bufferSize {
		if err := p.flushBufferUnsafe(ctx); err != nil {
			return fmt.Errorf("failed to flush buffer: %w", err)
		}
	}

	return nil
}

// Flush forces immediate publication of all buffered datums.
func (p *CyclePublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// Close stops the background flush goroutine and flushes remaining datums.
func (p *CyclePublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

// flushLoop runs in a background goroutine and flushes the buffer periodically.
func (p *CyclePublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Flush(ctx); err != nil {
				// Retried on the next tick
				_ = err
			}
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *CyclePublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	// Publish in chunks (CloudWatch limit: 1000 metrics/request)
	for i := 0; i < len(p.buffer); i += maxMetricsPerRequest {
		end := i + maxMetricsPerRequest
		if end > len(p.buffer) {
			end = len(p.buffer)
		}

		chunk := p.buffer[i:end]
		if err := p.publishBatchWithRetry(ctx, chunk); err != nil {
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	// Clear buffer
	p.buffer = p.buffer[:0]

	return nil
}

// publishBatchWithRetry publishes a batch of datums with exponential backoff retry.
func (p *CyclePublisher) publishBatchWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		}

		_, err := p.client.PutMetricData(ctx, input)
		if err == nil {
			return nil
		}

		lastErr = err

		// Exponential backoff before retry
		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// convertToData converts one cycle into CloudWatch datums.
func (p *CyclePublisher) convertToData(stats port.CycleStats) []types.MetricDatum {
	now := time.Now()
	dimensions := p.cycleDimensions(stats)

	return []types.MetricDatum{
		{
			MetricName: aws.String(metricScore),
			Value:      aws.Float64(float64(stats.Score)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
			Dimensions: dimensions,
		},
		{
			MetricName: aws.String(metricDuration),
			Value:      aws.Float64(float64(stats.Duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
			Dimensions: dimensions,
		},
		{
			MetricName: aws.String(metricPipelineErrors),
			Value:      aws.Float64(float64(stats.PipelineErrors)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
			Dimensions: dimensions,
		},
		{
			MetricName: aws.String(metricCycleCount),
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
			Dimensions: dimensions,
		},
	}
}

// cycleDimensions builds the dimension set for one cycle.
func (p *CyclePublisher) cycleDimensions(stats port.CycleStats) []types.Dimension {
	dimensions := make([]types.Dimension, 0, len(p.defaultDimensions)+2)

	// Add default dimensions
	for key, value := range p.defaultDimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(key),
			Value: aws.String(value),
		})
	}

	dimensions = append(dimensions,
		types.Dimension{
			Name:  aws.String("URL"),
			Value: aws.String(stats.URL),
		},
		types.Dimension{
			Name:  aws.String("Status"),
			Value: aws.String(stats.Status),
		},
	)

	return dimensions
}

// buildAWSConfig creates an AWS config with credentials.
func buildAWSConfig(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	// Add static credentials if provided
	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override endpoint if specified (for LocalStack testing)
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
