// Package artifact implements the Artifact Store: opaque blob
// upload/download/delete addressed by (bucket, path), backed by either
// the local filesystem (development) or S3 (production).
package artifact

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Download when (bucket, path) has no
// object. Deletes are idempotent: Delete and DeletePrefix return nil
// for a missing object.
var ErrNotExist = errors.New("artifact: object does not exist")

// Store is the Artifact Store contract (spec.md component A). A path is
// always relative to its bucket and never contains ".." segments.
type Store interface {
	// Upload writes data at (bucket, path) and returns a public URL for
	// the object. Uploads are idempotent: uploading to an existing path
	// overwrites it.
	Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, contentType string) (publicURL string, err error)

	// Download streams the object at (bucket, path). The caller must
	// close the returned reader.
	Download(ctx context.Context, bucket, path string) (io.ReadCloser, error)

	// Delete removes the object at (bucket, path). Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, bucket, path string) error

	// DeletePrefix removes every object whose path starts with prefix,
	// used to clear a job's output directory in one call.
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}

const (
	// BucketRawInputs holds unprocessed uploads (spec.md §6).
	BucketRawInputs = "raw-inputs"
	// BucketProcessed holds tool output (spec.md §6).
	BucketProcessed = "processed-pdfs"
)

// RawInputPath is the deterministic path for a raw upload under
// raw-inputs: public/{job_id}/raw/{original_name}.
func RawInputPath(jobID, originalName string) string {
	return "public/" + jobID + "/raw/" + originalName
}

// OutputPath is the deterministic path for a job's output under
// processed-pdfs: public/{job_id}/{final_name}. It is idempotent across
// retries, which is what makes at-least-once upload safe (spec.md §4.5).
func OutputPath(jobID, finalName string) string {
	return "public/" + jobID + "/" + finalName
}

// OutputPrefix is the prefix that owns every artifact for a job's
// output, used by the retention sweeper and by delete-processed-file.
func OutputPrefix(jobID string) string {
	return "public/" + jobID + "/"
}

// RawInputPrefix is the prefix that owns every raw input for a job,
// cleaned up by the worker once dispatch completes (spec.md §4.5 step 8).
func RawInputPrefix(jobID string) string {
	return "public/" + jobID + "/raw/"
}
