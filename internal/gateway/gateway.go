// Package gateway is the single point of contact with the document backend:
// object storage for the bytes and the report_metadata table for the records.
// Every call is a network call and may fail with *RemoteError.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"digilocker/internal/logging"
	"digilocker/internal/model"
	"digilocker/internal/repository"
	"digilocker/internal/storage"
)

// Gateway defines the remote operations on a locker.
type Gateway interface {
	// Upload stores one file under {id}/{unixMillis}-{basename} and registers its metadata row.
	// If the row cannot be written the object is deleted again; when that also fails the
	// result is a *ConsistencyWarning naming the orphaned key.
	Upload(ctx context.Context, id model.Identifier, file model.FileHandle) (*model.DocumentRecord, error)

	// List returns every record of id, newest first. The slice is never nil.
	List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error)

	// Remove deletes the object behind fileURL, then the record. A failed object delete
	// keeps the record.
	Remove(ctx context.Context, recordID, fileURL string) error

	// Get returns one record by its ID.
	Get(ctx context.Context, recordID string) (*model.DocumentRecord, error)

	// Open streams the object a file_url points to. The caller closes the reader.
	Open(ctx context.Context, fileURL string) (io.ReadCloser, storage.ObjectInfo, error)

	// SignedURL returns a time-limited link to the object. Backends that cannot
	// sign return the public URL unchanged.
	SignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error)
}

// Options tune a gateway. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	MaxFileBytes int64
	Logger       *slog.Logger
	Metrics      *Metrics
	Now          func() time.Time
	NewID        func() string
}

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxFileBytes = 10 << 20
)

type gateway struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	urls    URLScheme
	timeout time.Duration
	maxSize int64
	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
}

// New constructs a Gateway over store and repo.
func New(store storage.Storage, repo repository.DocumentRepository, urls URLScheme, opts Options) Gateway {
	g := &gateway{
		store:   store,
		repo:    repo,
		urls:    urls,
		timeout: opts.Timeout,
		maxSize: opts.MaxFileBytes,
		log:     opts.Logger,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("digilocker/internal/gateway"),
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.maxSize <= 0 {
		g.maxSize = defaultMaxFileBytes
	}
	if g.log == nil {
		g.log = logging.Discard()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	return g
}

// begin starts the span and deadline shared by every operation.
func (g *gateway) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(attrs...))
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	return ctx, func(errp *error) {
		cancel()
		err := *errp
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		g.metrics.observe(op, start, err)
	}
}

func (g *gateway) Upload(ctx context.Context, id model.Identifier, file model.FileHandle) (_ *model.DocumentRecord, err error) {
	if id.IsZero() {
		return nil, &model.ValidationError{Field: "health_id", Reason: "must not be empty"}
	}
	name := BaseName(file.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "filename", Reason: "must not be empty"}
	}
	if file.Size > g.maxSize {
		return nil, &model.ValidationError{Field: "file", Reason: fmt.Sprintf("%s is larger than %d bytes", name, g.maxSize)}
	}

	ctx, end := g.begin(ctx, "upload", attribute.String("health_id", id.String()), attribute.String("filename", name))
	defer end(&err)

	rc, err := file.Reader()
	if err != nil {
		return nil, &model.ValidationError{Field: "file", Reason: fmt.Sprintf("cannot open %s: %v", name, err)}
	}
	defer rc.Close()

	var body io.Reader = rc
	contentType := file.ContentType
	if contentType == "" || contentType == octetStream {
		contentType, body, err = sniffContentType(rc)
		if err != nil {
			return nil, &model.ValidationError{Field: "file", Reason: fmt.Sprintf("cannot read %s: %v", name, err)}
		}
	}
	size := file.Size
	if size <= 0 {
		size = -1
		body = &capReader{r: body, limit: g.maxSize}
	}

	recordID := g.newID()
	at := g.now().UTC()
	key := g.urls.ObjectKey(id, recordID, name, at)

	if _, err = g.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": name, "health-id": id.String()},
	}); err != nil {
		if errors.Is(err, errFileTooLarge) {
			return nil, &model.ValidationError{Field: "file", Reason: fmt.Sprintf("%s is larger than %d bytes", name, g.maxSize)}
		}
		return nil, &RemoteError{Op: "storage.put", Message: "upload failed for " + name, Err: err}
	}

	rec := &model.DocumentRecord{
		ID:         recordID,
		HealthID:   id,
		Filename:   name,
		FileURL:    g.urls.PublicURL(key),
		UploadedAt: at,
	}
	stored, err := g.repo.Create(ctx, rec)
	if err != nil {
		// Rollback: the object must not outlive a failed insert.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		if delErr := g.store.Delete(cctx, key); delErr != nil {
			g.log.Error("upload_orphaned_object", "key", key, "insert_error", err.Error(), "delete_error", delErr.Error())
			return nil, &ConsistencyWarning{Op: "upload", Key: key, Err: errors.Join(err, delErr)}
		}
		return nil, &RemoteError{Op: "metadata.insert", Message: "could not register " + name, Err: err}
	}

	g.log.Info("document_uploaded", "health_id", id.String(), "record_id", stored.ID, "key", key, "content_type", contentType)
	return stored, nil
}

func (g *gateway) List(ctx context.Context, id model.Identifier) (_ []model.DocumentRecord, err error) {
	if id.IsZero() {
		return nil, &model.ValidationError{Field: "health_id", Reason: "must not be empty"}
	}
	ctx, end := g.begin(ctx, "list", attribute.String("health_id", id.String()))
	defer end(&err)

	recs, err := g.repo.ListByHealthID(ctx, id)
	if err != nil {
		return nil, &RemoteError{Op: "metadata.list", Message: "could not fetch documents", Err: err}
	}
	for i := range recs {
		if err := recs[i].Validate(); err != nil {
			return nil, &RemoteError{Op: "metadata.list", Message: "backend returned a malformed record", Err: err}
		}
		if recs[i].HealthID != id {
			return nil, &RemoteError{
				Op:      "metadata.list",
				Message: "backend returned a record of another locker",
				Err:     fmt.Errorf("%w: record %s belongs to %s", model.ErrMalformedRecord, recs[i].ID, recs[i].HealthID),
			}
		}
	}
	if recs == nil {
		recs = []model.DocumentRecord{}
	}
	return recs, nil
}

func (g *gateway) Remove(ctx context.Context, recordID, fileURL string) (err error) {
	if recordID == "" {
		return &model.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	key, err := g.urls.KeyFromURL(fileURL)
	if err != nil {
		return err
	}

	ctx, end := g.begin(ctx, "remove", attribute.String("record_id", recordID), attribute.String("key", key))
	defer end(&err)

	// Storage first; on failure the row stays so the file can still be found.
	if err = g.store.Delete(ctx, key); err != nil {
		return &RemoteError{Op: "storage.delete", Message: "could not delete file", Err: err}
	}
	if err = g.repo.Delete(ctx, recordID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &RemoteError{Op: "metadata.delete", Message: "document no longer exists", Err: err}
		}
		g.log.Error("delete_dangling_record", "record_id", recordID, "key", key, "error", err.Error())
		return &ConsistencyWarning{Op: "remove", Key: key, RecordID: recordID, Err: err}
	}

	g.log.Info("document_removed", "record_id", recordID, "key", key)
	return nil
}

func (g *gateway) Get(ctx context.Context, recordID string) (_ *model.DocumentRecord, err error) {
	if recordID == "" {
		return nil, &model.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	ctx, end := g.begin(ctx, "get", attribute.String("record_id", recordID))
	defer end(&err)

	rec, err := g.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, &RemoteError{Op: "metadata.get", Message: "could not fetch document", Err: err}
	}
	if err := rec.Validate(); err != nil {
		return nil, &RemoteError{Op: "metadata.get", Message: "backend returned a malformed record", Err: err}
	}
	return rec, nil
}

func (g *gateway) Open(ctx context.Context, fileURL string) (_ io.ReadCloser, _ storage.ObjectInfo, err error) {
	key, err := g.urls.KeyFromURL(fileURL)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}

	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway.open", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer func() {
		if err != nil {
			cancel()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		g.metrics.observe("open", start, err)
	}()

	rc, info, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, storage.ObjectInfo{}, &RemoteError{Op: "storage.get", Message: "could not open file", Err: err}
	}
	// The deadline stays armed until the caller is done reading.
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, info, nil
}

func (g *gateway) SignedURL(ctx context.Context, fileURL string, expiry time.Duration) (_ string, err error) {
	key, err := g.urls.KeyFromURL(fileURL)
	if err != nil {
		return "", err
	}
	ctx, end := g.begin(ctx, "sign", attribute.String("key", key))
	defer end(&err)

	u, err := g.store.PresignGet(ctx, key, expiry)
	if errors.Is(err, storage.ErrPresignUnsupported) {
		return fileURL, nil
	}
	if err != nil {
		return "", &RemoteError{Op: "storage.presign", Message: "could not sign link", Err: err}
	}
	return u, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
