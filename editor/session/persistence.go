package session

// Persistence mirrors the session store to durable storage so documents
// survive a server restart. Implementations must be safe for concurrent use.
type Persistence interface {
	// Save writes a snapshot of the session.
	Save(sess Session) error

	// Delete removes the persisted copy of a session. Deleting a session
	// that was never saved is not an error.
	Delete(id string) error

	// LoadAll returns every persisted session.
	LoadAll() ([]Session, error)
}
