// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. The sync service uses it to publish copies of
// the SQLite statistics database after each committed pass, so that a static
// front-end can fetch them from S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: ensure the target bucket.
//   - PutObject: upload a snapshot.
//   - ListObjects / RemoveObjects: prune old timestamped snapshots.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
