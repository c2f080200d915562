package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const (
	archivePrefix   = "archive/trade_events/"
	archiveMIME     = "application/x-ndjson"
	defaultChunk    = 50_000
	multipartCutoff = MinPartSize
)

// EventArchiveStore is the slice of domain.TradeEventStore the archiver uses.
type EventArchiveStore interface {
	LastBlock(ctx context.Context) (uint64, error)
	ListRange(ctx context.Context, from, to uint64) ([]domain.TradeEvent, error)
	DeleteBefore(ctx context.Context, before uint64) (int64, error)
}

type multipartWriter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, contentType string, partSize int64) error
}

// ArchiveOptions tunes the archiver.
type ArchiveOptions struct {
	// RetentionBlocks is how many blocks behind the indexer cursor stay
	// hot. Older events are archived.
	RetentionBlocks uint64
	// ChunkBlocks is the block span of one archive object.
	ChunkBlocks uint64
	// Prune deletes archived events from the store after upload.
	Prune bool
}

// Archiver exports trade events to JSONL objects named by their block span:
//
//	archive/trade_events/000000001000-000000001999.jsonl
//
// Progress is recovered from the object listing, so there is no separate
// cursor to keep in sync.
type Archiver struct {
	events EventArchiveStore
	writer domain.BlobWriter
	reader domain.BlobReader
	opts   ArchiveOptions
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(events EventArchiveStore, writer domain.BlobWriter, reader domain.BlobReader, opts ArchiveOptions, logger *slog.Logger) *Archiver {
	if opts.ChunkBlocks == 0 {
		opts.ChunkBlocks = defaultChunk
	}
	return &Archiver{
		events: events,
		writer: writer,
		reader: reader,
		opts:   opts,
		logger: logger,
	}
}

// ArchiveEvents uploads every complete chunk older than the retention
// window and returns the number of events written.
func (a *Archiver) ArchiveEvents(ctx context.Context) (int64, error) {
	last, err := a.events.LastBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive cursor: %w", err)
	}
	if last <= a.opts.RetentionBlocks {
		return 0, nil
	}
	cutoff := last - a.opts.RetentionBlocks

	start, err := a.archivedUpTo(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for from := start; from+a.opts.ChunkBlocks <= cutoff; from += a.opts.ChunkBlocks {
		to := from + a.opts.ChunkBlocks
		n, err := a.archiveChunk(ctx, from, to)
		if err != nil {
			return total, err
		}
		total += n
		start = to
	}

	if a.opts.Prune && start > 0 {
		deleted, err := a.events.DeleteBefore(ctx, start)
		if err != nil {
			return total, fmt.Errorf("s3blob: prune before %d: %w", start, err)
		}
		a.logger.InfoContext(ctx, "s3blob: pruned archived events",
			slog.Int64("deleted", deleted),
			slog.Uint64("before_block", start),
		)
	}
	return total, nil
}

func (a *Archiver) archiveChunk(ctx context.Context, from, to uint64) (int64, error) {
	events, err := a.events.ListRange(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query [%d,%d): %w", from, to, err)
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	// Empty chunks are still written so the listing records progress.
	key := chunkPath(from, to)
	if mw, ok := a.writer.(multipartWriter); ok && int64(len(buf)) > multipartCutoff {
		err = mw.PutMultipart(ctx, key, bytes.NewReader(buf), archiveMIME, MinPartSize)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(buf), archiveMIME)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	a.logger.InfoContext(ctx, "s3blob: archived events",
		slog.String("path", key),
		slog.Int("count", len(events)),
	)
	return int64(len(events)), nil
}

// archivedUpTo returns the first block not yet covered by an archive object.
func (a *Archiver) archivedUpTo(ctx context.Context) (uint64, error) {
	infos, err := a.reader.List(ctx, archivePrefix)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list archive: %w", err)
	}
	var next uint64
	for _, info := range infos {
		_, last, ok := parseChunkPath(info.Path)
		if ok && last+1 > next {
			next = last + 1
		}
	}
	return next, nil
}

// ReadChunk loads one archive object back into events.
func (a *Archiver) ReadChunk(ctx context.Context, key string) ([]domain.TradeEvent, error) {
	body, err := a.reader.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var events []domain.TradeEvent
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev domain.TradeEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("s3blob: decode %s: %w", key, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("s3blob: read %s: %w", key, err)
	}
	return events, nil
}

func chunkPath(from, to uint64) string {
	return fmt.Sprintf("%s%012d-%012d.jsonl", archivePrefix, from, to-1)
}

func parseChunkPath(p string) (first, last uint64, ok bool) {
	name := strings.TrimSuffix(path.Base(p), ".jsonl")
	if _, err := fmt.Sscanf(name, "%d-%d", &first, &last); err != nil {
		return 0, 0, false
	}
	return first, last, first <= last
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
