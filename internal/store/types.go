package store

// Entry is a shared clipboard record. All timestamps are civil milliseconds
// (see package civiltime).
type Entry struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	IsProtected  bool   `json:"isProtected"`
	CreatedAt    int64  `json:"createdAt"`
	ExpiresAt    int64  `json:"expiresAt"`
	LastModified int64  `json:"lastModified"`
}

// Expired reports whether the entry expired more than graceMs before now.
func (e Entry) Expired(now, graceMs int64) bool {
	return Expired(e.ExpiresAt, now, graceMs)
}

// Expired is the single expiry rule shared by every store: an item is gone
// once expiresAt < now - graceMs.
func Expired(expiresAt, now, graceMs int64) bool {
	return expiresAt < now-graceMs
}
