package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/config"
	"puzzleScope/internal/contracts"
	"puzzleScope/internal/indexer"
	"puzzleScope/internal/model"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode an archived log file into activity events",
		RunE:  runDecode,
	}
	cmd.Flags().String("in", "./data/game_logs.jsonl", "input archive JSONL")
	cmd.Flags().String("out", "./data/activity.jsonl", "output activity events JSONL")
	cmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	return cmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := newJSONLWriter(cfg.Out)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	stats, err := decodeArchive(inputFile, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

type decodeStats struct {
	total   int
	decoded int
	skipped int
	failed  int
}

type recordWriter interface {
	Write(value interface{}) error
}

// decodeArchive turns archived log records into activity events. Records with an
// unknown topic0, or emitted by a contract other than the event's, are skipped;
// malformed ones go to errs.
func decodeArchive(in io.Reader, out, errs recordWriter) (decodeStats, error) {
	var stats decodeStats

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			_ = errs.Write(model.DecodeError{Error: err.Error()})
			continue
		}

		event, err := decodeRecord(record)
		if err != nil {
			stats.failed++
			_ = errs.Write(model.NewDecodeError(record, err))
			continue
		}
		if event == nil {
			stats.skipped++
			continue
		}

		if err := out.Write(event); err != nil {
			return stats, err
		}
		stats.decoded++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

func decodeRecord(record model.LogRecord) (*model.ActivityEvent, error) {
	log, err := indexer.RecordToLog(record)
	if err != nil {
		return nil, err
	}
	activityType, err := activity.Classify(log)
	if err != nil {
		return nil, err
	}
	if !activity.IsKnownTopic(log) {
		return nil, nil
	}
	if spec, _ := contracts.EventByType(activityType); record.Contract != "" && record.Contract != string(spec.Contract) {
		return nil, nil
	}
	data, err := activity.ParseEventData(log)
	if err != nil {
		return nil, err
	}
	return &model.ActivityEvent{
		Type:        activityType,
		Timestamp:   record.Timestamp,
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Data:        data,
	}, nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string) (*jsonlWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return &jsonlWriter{file: file, writer: bufio.NewWriter(file)}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return w.writer.WriteByte('\n')
}

func (w *jsonlWriter) Close() error {
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
