package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONOutput appends messages as JSON lines under
// <base>/<folder>/<topic>/year=YYYY/month=MM/day=DD/hour=HH/data.json, partitioned by the
// message timestamp in UTC.
type JSONOutput struct {
	basePath string
	folder   string
	mu       sync.Mutex
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	var event struct {
		Timestamp *int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}
	if event.Timestamp == nil {
		return fmt.Errorf("invalid timestamp")
	}

	partitionPath := partition(time.Unix(*event.Timestamp, 0))
	fullPath := filepath.Join(j.basePath, j.folder, topic, partitionPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	fileKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	file, ok := j.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		var err error
		file, err = os.OpenFile(filepath.Join(fullPath, "data.json"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err := file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var lastErr error
	for key, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
		delete(j.files, key)
	}
	return lastErr
}

func partition(t time.Time) string {
	t = t.UTC()
	year, month, day := t.Date()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, t.Hour())
}
