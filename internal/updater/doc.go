// Package updater checks for, downloads and applies new releases of the
// desktop client.
//
// A Source publishes a small JSON manifest:
//
//	{"version": "1.2.0", "url": "https://.../erp-1.2.0.zip", "changelog": "..."}
//
// HTTPSource reads it from a plain URL; S3Source reads it from an S3 (or
// MinIO) object and turns s3:// package URLs into presigned GET URLs.
//
// Apply extracts a zip archive over the install directory. Entries that
// would land outside the directory are refused, a failing entry is logged
// and skipped, and the archive is removed afterwards.
package updater
