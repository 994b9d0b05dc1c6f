package files

import "context"

// FileManager fetches a chat document into local storage. The caller runs
// cleanup once it no longer needs the file.
type FileManager interface {
	DownloadDocument(ctx context.Context, fileID string) (localPath string, cleanup func(), err error)
}
