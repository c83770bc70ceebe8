package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"player-statistics/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// HistoryPrefix holds the timestamped copies kept by the retention policy.
const HistoryPrefix = "history/"

const historyLayout = "20060102T150405Z"

// Publisher uploads database snapshots to object storage.
type Publisher struct {
	client   storage.Client
	cfg      storage.Config
	exporter *Exporter
	logger   *zap.Logger
	now      func() time.Time
}

func NewPublisher(client storage.Client, cfg storage.Config, exporter *Exporter, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, cfg: cfg, exporter: exporter, logger: logger, now: time.Now}
}

// Publish exports the database and uploads it as the latest snapshot. With a
// positive retention it also stores a timestamped copy and prunes the oldest.
func (p *Publisher) Publish(ctx context.Context, passID string) error {
	exp, err := p.exporter.Export(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := exp.Close(); cerr != nil {
			p.logger.Warn("Failed to remove snapshot copy", zap.Error(cerr))
		}
	}()

	if err := p.ensureBucket(ctx); err != nil {
		return err
	}

	if err := p.put(ctx, p.cfg.SnapshotKey, exp, passID); err != nil {
		return err
	}
	p.logger.Info("Snapshot published",
		zap.String("bucket", p.cfg.Bucket),
		zap.String("key", p.cfg.SnapshotKey),
		zap.Int64("size", exp.Size),
	)

	if p.cfg.Retain <= 0 {
		return nil
	}
	if err := p.put(ctx, p.historyKey(p.now()), exp, passID); err != nil {
		return err
	}
	pruned, err := p.prune(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		p.logger.Debug("Old snapshots pruned", zap.Int("count", pruned))
	}
	return nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", p.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", p.cfg.Bucket, err)
	}
	return nil
}

func (p *Publisher) put(ctx context.Context, key string, exp *Export, passID string) error {
	if _, err := exp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind snapshot: %w", err)
	}
	_, err := p.client.PutObject(ctx, p.cfg.Bucket, key, exp, exp.Size, minio.PutObjectOptions{
		ContentType:  ContentType,
		UserMetadata: map[string]string{"pass-id": passID},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// historyKey is history/<snapshot stem>-<UTC timestamp><ext>; keys sort by age.
func (p *Publisher) historyKey(t time.Time) string {
	base := path.Base(p.cfg.SnapshotKey)
	ext := path.Ext(base)
	return HistoryPrefix + strings.TrimSuffix(base, ext) + "-" + t.UTC().Format(historyLayout) + ext
}

func (p *Publisher) historyPrefix() string {
	base := path.Base(p.cfg.SnapshotKey)
	return HistoryPrefix + strings.TrimSuffix(base, path.Ext(base)) + "-"
}

// prune removes history copies beyond the retention count, oldest first.
func (p *Publisher) prune(ctx context.Context) (int, error) {
	var keys []string
	for obj := range p.client.ListObjects(ctx, p.cfg.Bucket, minio.ListObjectsOptions{Prefix: p.historyPrefix(), Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) <= p.cfg.Retain {
		return 0, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	stale := keys[p.cfg.Retain:]

	objects := make(chan minio.ObjectInfo, len(stale))
	for _, key := range stale {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var errs error
	for rerr := range p.client.RemoveObjects(ctx, p.cfg.Bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = errors.Join(errs, fmt.Errorf("failed to remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	if errs != nil {
		return 0, errs
	}
	return len(stale), nil
}
