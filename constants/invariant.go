package constants

import "time"

const (
	APP_NAME           = "St. Mary's Parish"
	DEFAULT_PUBLIC_URL = "http://localhost:6835"
	DEFAULT_PORT       = "6835"

	MAX_IMAGE_SIZE       = 5 << 20  // news and event cover images
	MAX_ALBUM_IMAGE_SIZE = 10 << 20 // per album image
	MAX_MULTIPART_MEMORY = 32 << 20

	PRESIGN_EXPIRY         = 900 * time.Second
	MAX_CONCURRENT_UPLOADS = 4
	UPLOAD_KEY_PREFIX      = "uploads/"

	DEFAULT_SESSION_TTL = 7 * 24 * time.Hour
	MIN_SESSION_SECRET  = 32

	MEMBERSHIP_EXTRA_SLOTS = 4 // household member rows on the public form
)
