// Package output hands ranked results to downstream collaborators as JSON messages.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/models"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

// NewDestination builds the destination selected by cfg.Destination.
func NewDestination(ctx context.Context, cfg *models.OutputConfig, log logger.Logger) (OutputDestination, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	switch cfg.Destination {
	case "", "console":
		return NewConsoleOutput(os.Stdout), nil
	case "file":
		return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
	case "kafka":
		return NewKafkaOutput(cfg.KafkaBrokerList, log)
	case "sns":
		return NewSNSOutput(ctx, cfg.SNS, log)
	case "parquet":
		return NewParquetOutput(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported output destination: %s", cfg.Destination)
	}
}
