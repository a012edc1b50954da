// Package reports archives catalogue reports and store snapshots to a blob
// store.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"registrar/internal/blob"
	"registrar/internal/core"
	"registrar/internal/infra/persistence/memory"
)

// ErrNotFound is returned by Artifacts for an export id with no objects.
var ErrNotFound = errors.New("export not found")

// Format is an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

const (
	keyPrefix    = "exports/"
	snapshotName = "snapshot"
	maxUploads   = 4
)

// Request selects what an export contains. Empty Reports means every report
// that takes no arguments; empty Formats means JSON and CSV.
type Request struct {
	Reports         []string        `json:"reports"`
	Formats         []Format        `json:"formats"`
	Args            core.ReportArgs `json:"args"`
	IncludeSnapshot bool            `json:"include_snapshot"`
}

// Artifact is one stored object of an export.
type Artifact struct {
	Report      string `json:"report"`
	Format      Format `json:"format"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	URL         string `json:"url,omitempty"`
}

// ExportRecord describes a completed export.
type ExportRecord struct {
	ID        string      `json:"id"`
	Driver    blob.Driver `json:"driver"`
	Reports   []string    `json:"reports"`
	Formats   []Format    `json:"formats"`
	Artifacts []Artifact  `json:"artifacts"`
	CreatedAt time.Time   `json:"created_at"`
}

// snapshotter is implemented by the memory store and the snapshot backends
// that embed it.
type snapshotter interface {
	ExportState() memory.Snapshot
}

// Exporter renders reports through a Service and uploads them.
type Exporter struct {
	svc    *core.Service
	store  blob.Store
	logger core.Logger
	newID  func() string
	now    func() time.Time
}

// Option customises an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(l core.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator replaces uuid generation, for deterministic keys in tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock sets the time source for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewExporter builds an Exporter writing to store.
func NewExporter(svc *core.Service, store blob.Store, opts ...Option) *Exporter {
	e := &Exporter{
		svc:    svc,
		store:  store,
		logger: nopLogger{},
		newID:  func() string { return uuid.NewString() },
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultReports lists the reports exported when a request names none.
func DefaultReports() []string {
	var names []string
	for _, def := range core.Reports() {
		if len(def.Params) == 0 {
			names = append(names, def.Name)
		}
	}
	return names
}

// ParseFormat accepts "json" or "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", core.ValidationError{Field: "format", Value: s, Reason: "must be json or csv"}
	}
}

// Export renders every requested report and uploads the artifacts under
// exports/<id>/. Reports are rendered up front so a failing report uploads
// nothing; a failed upload removes the objects already written.
func (e *Exporter) Export(ctx context.Context, req Request) (ExportRecord, error) {
	names := req.Reports
	if len(names) == 0 {
		names = DefaultReports()
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	for _, f := range formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return ExportRecord{}, err
		}
	}

	rendered := make([]core.Report, 0, len(names))
	for _, name := range names {
		rep, err := e.svc.RunReport(ctx, name, req.Args)
		if err != nil {
			return ExportRecord{}, err
		}
		rendered = append(rendered, rep)
	}

	type upload struct {
		report  string
		format  Format
		payload []byte
	}
	var uploads []upload
	for _, rep := range rendered {
		for _, f := range formats {
			payload, err := encode(rep, f)
			if err != nil {
				return ExportRecord{}, fmt.Errorf("encode %s as %s: %w", rep.Name, f, err)
			}
			uploads = append(uploads, upload{report: rep.Name, format: f, payload: payload})
		}
	}
	if req.IncludeSnapshot {
		snap, ok := e.svc.Store().(snapshotter)
		if !ok {
			return ExportRecord{}, fmt.Errorf("store %T cannot produce snapshots", e.svc.Store())
		}
		payload, err := json.MarshalIndent(snap.ExportState(), "", "  ")
		if err != nil {
			return ExportRecord{}, fmt.Errorf("encode snapshot: %w", err)
		}
		uploads = append(uploads, upload{report: snapshotName, format: FormatJSON, payload: payload})
	}

	rec := ExportRecord{
		ID:        e.newID(),
		Driver:    e.store.Driver(),
		Reports:   slices.Clone(names),
		Formats:   slices.Clone(formats),
		Artifacts: make([]Artifact, len(uploads)),
		CreatedAt: e.now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxUploads)
	for i, u := range uploads {
		g.Go(func() error {
			key := ArtifactKey(rec.ID, u.report, u.format)
			info, err := e.store.Put(gctx, key, bytes.NewReader(u.payload), blob.PutOptions{
				ContentType: contentType(u.format),
				Metadata:    map[string]string{"export_id": rec.ID, "report": u.report},
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			rec.Artifacts[i] = Artifact{
				Report:      u.report,
				Format:      u.format,
				Key:         key,
				ContentType: info.ContentType,
				SizeBytes:   info.Size,
				URL:         info.URL,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.cleanup(context.WithoutCancel(ctx), rec.ID)
		e.logger.Error("export failed", "export_id", rec.ID, "error", err)
		return ExportRecord{}, err
	}
	e.logger.Info("export stored", "export_id", rec.ID, "artifacts", len(rec.Artifacts), "driver", string(rec.Driver))
	return rec, nil
}

// Artifacts lists the stored objects of a previous export.
func (e *Exporter) Artifacts(ctx context.Context, id string) ([]blob.Info, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ValidationError{Field: "export_id", Value: id, Reason: "must be a uuid"}
	}
	infos, err := e.store.List(ctx, keyPrefix+id+"/")
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	return infos, nil
}

func (e *Exporter) cleanup(ctx context.Context, id string) {
	infos, err := e.store.List(ctx, keyPrefix+id+"/")
	if err != nil {
		e.logger.Warn("list partial export", "export_id", id, "error", err)
		return
	}
	for _, info := range infos {
		if _, err := e.store.Delete(ctx, info.Key); err != nil {
			e.logger.Warn("delete partial export object", "key", info.Key, "error", err)
		}
	}
}

// ArtifactKey returns exports/<id>/<report>.<format>.
func ArtifactKey(id, report string, f Format) string {
	return keyPrefix + id + "/" + report + "." + string(f)
}

func contentType(f Format) string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

func encode(rep core.Report, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatCSV:
		w := csv.NewWriter(&buf)
		if err := w.Write(rep.Columns); err != nil {
			return nil, err
		}
		if err := w.WriteAll(rep.Rows); err != nil {
			return nil, err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
