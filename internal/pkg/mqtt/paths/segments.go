package paths

// Topic segments published by the gateway and the ingest service.
// Pattern: {root}/{segment}/{mac}, where mac is the compact lower-case node address.
const (
	// Image announces one reassembled image.
	// Payload: {"mac", "size", "hash", "hash_ok", "voltage", "timestamp", "url"}
	Image = "image"

	// Status carries every header a node sends, including placeholders.
	// Payload: {"mac", "voltage", "placeholder", "timestamp"}
	Status = "status"

	// Online is the retained presence of a receiver service. Its will flips it to offline.
	// Pattern: {root}/online/{service}
	Online = "online"
)
