// Package drive ingests files from Google Drive, exporting Workspace
// documents to plain text and downloading regular text files.
package drive
