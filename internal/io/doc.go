// Package ioutils provides file system helpers: directory creation,
// stray temp-file cleanup, and cover-art image processing.
package ioutils
