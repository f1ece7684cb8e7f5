package telemetry

import "context"

// WriteSerializedCompressed builds the deflate-compressed transfer
// payload for a measurement and returns the scratch file path. The
// caller owns the returned file and must remove it once the upload
// completes (spec.md §4.7, §6).
func (e *Engine) WriteSerializedCompressed(ctx context.Context, mid int64) (string, error) {
	return e.serializer.WriteSerializedCompressed(ctx, mid)
}

// WriteSerializedAttachment copies an attachment's bytes verbatim into a
// scratch file ready for upload.
func (e *Engine) WriteSerializedAttachment(ctx context.Context, attachmentID int64) (string, error) {
	return e.serializer.WriteSerializedAttachment(ctx, attachmentID)
}
