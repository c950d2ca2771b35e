package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"frontdesk/internal/domain"
)

var csvHeader = []string{"Timestamp", "Sender Number", "Incoming Message", "AI Response"}

// CSVLog appends interactions to a flat CSV file with a fixed header row.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

func NewCSVLog(path string) (*CSVLog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository: csv path must not be empty")
	}
	return &CSVLog{path: path}, nil
}

func (l *CSVLog) Path() string {
	return l.path
}

// EnsureHeader creates the file with its header row when it does not exist yet.
// It reports whether the file was created.
func (l *CSVLog) EnsureHeader() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("repository: stat %s: %w", l.path, err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("repository: create %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()
	if err := writeRows(f, csvHeader); err != nil {
		return false, fmt.Errorf("repository: write header: %w", err)
	}
	return true, nil
}

// Append writes one row. An empty file gets the header first.
func (l *CSVLog) Append(_ context.Context, rec domain.Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("repository: open %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("repository: stat %s: %w", l.path, err)
	}
	rows := [][]string{{rec.Timestamp.Format(TimestampLayout), rec.Sender, rec.Incoming, rec.Reply}}
	if info.Size() == 0 {
		rows = append([][]string{csvHeader}, rows...)
	}
	if err := writeRows(f, rows...); err != nil {
		return fmt.Errorf("repository: append row: %w", err)
	}
	return nil
}

func (l *CSVLog) Read(_ context.Context, sender string, limit int) ([]domain.Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Interaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: open %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	out := []domain.Interaction{}
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("repository: read %s: %w", l.path, err)
		}
		if line == 1 && row[0] == csvHeader[0] {
			continue
		}
		if sender != "" && row[1] != sender {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, row[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("repository: line %d timestamp: %w", line, err)
		}
		out = append(out, domain.Interaction{Timestamp: ts, Sender: row[1], Incoming: row[2], Reply: row[3]})
	}
	return tail(out, limit), nil
}

func writeRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
