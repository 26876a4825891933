package chain

// Externalities is the key/value capability view over a block's state that
// is handed to an executor. Reads may fail (the state may be backed by
// something fallible); writes and removes are infallible from the caller's
// perspective, matching how in-memory state snapshots behave.
type Externalities interface {
	// ReadStorage looks up key. A nil slice with a nil error means the key
	// is simply absent.
	ReadStorage(key []byte) ([]byte, error)

	// WriteStorage sets key to value.
	WriteStorage(key, value []byte)

	// RemoveStorage deletes key, if present.
	RemoveStorage(key []byte)
}

// AsExternalities is implemented by state snapshot types that can hand out
// an Externalities view of themselves to an executor.
type AsExternalities interface {
	AsExternalities() Externalities
}
