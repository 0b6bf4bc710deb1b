package video

// FileChecker defines the interface for checking file existence
// This is used to validate that source files exist before importing
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// FileRemover deletes files left behind by failed or cancelled exports
type FileRemover interface {
	// Remove deletes the file; a missing file is not an error
	Remove(path string) error
}
