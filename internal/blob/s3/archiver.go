package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// DrawSource lists stored draws for export.
type DrawSource interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Draw, error)
}

// RecommendationSource lists stored recommendations for export.
type RecommendationSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Recommendation, error)
}

// multipartThreshold switches uploads to the multipart manager.
const multipartThreshold = minPartSize

const jsonlContentType = "application/x-ndjson"

// Archiver implements domain.Archiver: it exports history as JSONL objects
// and records each export in the audit log. Primary store rows are never
// deleted here.
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	draws  DrawSource
	recs   RecommendationSource
	audit  domain.AuditStore
	now    func() time.Time
}

// NewArchiver creates an Archiver. reader and audit may be nil.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, draws DrawSource, recs RecommendationSource, audit domain.AuditStore) *Archiver {
	return &Archiver{
		writer: writer,
		reader: reader,
		draws:  draws,
		recs:   recs,
		audit:  audit,
		now:    time.Now,
	}
}

// ArchiveDraws writes every stored draw, newest first, to
// archive/draws/YYYY-MM-DD.jsonl for today's date, replacing an earlier
// snapshot from the same day.
func (a *Archiver) ArchiveDraws(ctx context.Context) (int64, error) {
	draws, err := a.draws.ListRecent(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive draws query: %w", err)
	}
	if len(draws) == 0 {
		return 0, nil
	}
	path := ArchivePath("draws", a.now())
	if err := uploadJSONL(ctx, a.writer, path, draws); err != nil {
		return 0, fmt.Errorf("s3blob: archive draws: %w", err)
	}
	count := int64(len(draws))
	return count, a.record(ctx, "archive.draws", path, count, nil)
}

// ArchiveRecommendations writes recommendations created before the cutoff
// to archive/recommendations/YYYY-MM-DD.jsonl named after the cutoff date.
// An existing object for that date is left untouched.
func (a *Archiver) ArchiveRecommendations(ctx context.Context, before time.Time) (int64, error) {
	path := ArchivePath("recommendations", before)
	if a.reader != nil {
		exists, err := a.reader.Exists(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive recommendations: %w", err)
		}
		if exists {
			return 0, nil
		}
	}

	recs, err := a.recs.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive recommendations query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := uploadJSONL(ctx, a.writer, path, recs); err != nil {
		return 0, fmt.Errorf("s3blob: archive recommendations: %w", err)
	}
	count := int64(len(recs))
	return count, a.record(ctx, "archive.recommendations", path, count, &before)
}

func uploadJSONL[T any](ctx context.Context, w domain.BlobWriter, path string, records []T) error {
	buf, err := marshalJSONL(records)
	if err != nil {
		return err
	}
	if int64(len(buf)) >= multipartThreshold {
		return w.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return w.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
}

func (a *Archiver) record(ctx context.Context, event, path string, count int64, before *time.Time) error {
	if a.audit == nil {
		return nil
	}
	detail := map[string]any{"path": path, "count": count}
	if before != nil {
		detail["before"] = before.UTC().Format(time.RFC3339)
	}
	if err := a.audit.Log(ctx, event, detail); err != nil {
		return fmt.Errorf("s3blob: %s audit log: %w", event, err)
	}
	return nil
}

// ArchivePath builds the object key for an export of kind on t's date.
//
//	archive/draws/2025-01-04.jsonl
//	archive/recommendations/2025-01-04.jsonl
func ArchivePath(kind string, t time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, t.UTC().Format(domain.DateLayout))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// object per line.
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

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
