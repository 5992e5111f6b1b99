package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/chrisdamba/dealradar/internal/cloudwriter"
	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetOutput writes one parquet file per topic, hour partition and event type, either on
// the local filesystem or to a cloud bucket.
type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
	log                logger.Logger
}

// CloudParquetFile adapts a write-only CloudWriter to source.ParquetFile.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewParquetOutput(ctx context.Context, cfg *models.OutputConfig, log logger.Logger) (*ParquetOutput, error) {
	var factory cloudwriter.CloudWriterFactory
	switch cfg.CloudStorage.Provider {
	case "", "local":
	case "s3":
		f, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		factory = f
	default:
		return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
	}
	return NewParquetOutputWithFactory(cfg.OutputPath, cfg.OutputFolder, factory, cfg.CloudStorage.BucketName, log), nil
}

// NewParquetOutputWithFactory writes through factory when it is non-nil, otherwise to local
// files under basePath.
func NewParquetOutputWithFactory(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string, log logger.Logger) *ParquetOutput {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ParquetOutput{
		basePath:           basePath,
		folder:             folder,
		writers:            make(map[string]*writer.ParquetWriter),
		files:              make(map[string]source.ParquetFile),
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
		log:                log,
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	var header struct {
		Timestamp *int64 `json:"timestamp"`
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(msg, &header); err != nil {
		return err
	}
	if header.Timestamp == nil {
		return fmt.Errorf("invalid timestamp")
	}

	event, err := decodeEvent(header.EventType, msg)
	if err != nil {
		return err
	}

	partitionPath := partition(time.Unix(*header.Timestamp, 0))
	writerKey := fmt.Sprintf("%s_%s_%s", topic, partitionPath, header.EventType)

	p.mu.Lock()
	defer p.mu.Unlock()

	pw, ok := p.writers[writerKey]
	if !ok {
		pw, err = p.createNewWriter(writerKey, topic, partitionPath, header.EventType)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}

	if err := pw.Write(event); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(writerKey, topic, partitionPath, eventType string) (*writer.ParquetWriter, error) {
	fileName := eventType + ".parquet"

	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, topic, partitionPath, fileName)
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, topic, partitionPath)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, fileName))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	sc, err := GetSchema(eventType)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, sc, 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	p.writers[writerKey] = pw
	p.files[writerKey] = fw
	return pw, nil
}

// Close flushes every open writer and closes its file. For cloud destinations this is when
// the objects are uploaded.
func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			p.log.Error("error closing parquet writer", map[string]interface{}{"key": key, "error": err.Error()})
		}
		if f, ok := p.files[key]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
				p.log.Error("error closing parquet file", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
		delete(p.writers, key)
		delete(p.files, key)
	}
	return lastErr
}

func decodeEvent(eventType string, msg []byte) (interface{}, error) {
	switch eventType {
	case EventDealRecommended:
		var ev RecommendationEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventStoreNearby:
		var ev NearbyStoreEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create return the receiver: the object is created implicitly by writing to it.
func (c *CloudParquetFile) Open(string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
