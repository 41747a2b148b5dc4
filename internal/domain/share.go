package domain

// SharedFile is one file payload carried by a ShareIntent.
type SharedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ShareIntent is the normalized payload of one OS-level share action.
// Ephemeral: it exists only while the inbound share POST is handled, is
// forwarded to the first live client, and is then discarded. Missing form
// fields default to empty values, never an error.
type ShareIntent struct {
	Title string
	Text  string
	URL   string
	Files []SharedFile
}
