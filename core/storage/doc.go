// Package storage keeps raw bodies of skipped pages in object storage.
//
// Client is the narrow subset of the MinIO API the package needs, so tests can
// use the testify mock in core/storage/mocks. Archive implements the page
// archive of the pagination engine: a page that fails to decode is written
// under <archive_prefix>/<feed>/<time>-<uuid>.json so it can be inspected later.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage)
//	err = archive.EnsureBucket(ctx)
//	key, err := archive.Archive(ctx, "home", body)
package storage
