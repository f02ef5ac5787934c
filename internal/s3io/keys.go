package s3io

// Object settings for the config document.
const (
	ContentTypeJSON = "application/json"

	// The UI reads the document straight from the public bucket, so it must not be cached.
	CacheControlNoStore = "no-store"
)
