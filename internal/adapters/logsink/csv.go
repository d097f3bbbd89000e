package logsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

var csvHeader = []string{"experiment_id", "step", "month", "state", "series", "value"}

// CSVSink appends snapshots to a flat file in long form, one row per
// series per step. The series column is "<sector>/<metric>" for sector
// metrics and "goal/<id>" for evaluation scores; the file survives the
// process, so a crashed run keeps everything already stepped.
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	w      *csv.Writer
	header bool
}

// NewCSVSink opens or creates the file at path for appending. The
// header is only written to an empty file.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv log %s: %w", path, err)
	}
	return &CSVSink{file: f, w: csv.NewWriter(f), header: info.Size() > 0}, nil
}

// Write flattens the snapshot into rows and flushes them.
func (s *CSVSink) Write(_ context.Context, experimentID string, snap *world.Snapshot, runnerState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.header {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.header = true
	}

	row := func(series string, value float64) error {
		return s.w.Write([]string{
			experimentID,
			strconv.FormatInt(snap.Step, 10),
			strconv.FormatInt(snap.Month, 10),
			runnerState,
			series,
			strconv.FormatFloat(value, 'g', -1, 64),
		})
	}

	for _, sectorID := range sortedKeys(snap.Sectors) {
		metrics := snap.Sectors[sectorID]
		for _, name := range sortedKeys(metrics) {
			if err := row(sectorID+"/"+name, metrics[name]); err != nil {
				return err
			}
		}
	}
	for _, goalID := range sortedKeys(snap.Evaluation.Scores) {
		if err := row("goal/"+goalID, snap.Evaluation.Scores[goalID].Value); err != nil {
			return err
		}
	}
	if err := row("errors", float64(len(snap.Errors))); err != nil {
		return err
	}

	s.w.Flush()
	return s.w.Error()
}

// Close flushes buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

var _ common.LogSink = (*CSVSink)(nil)

// sortedKeys fixes row order within a step.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
