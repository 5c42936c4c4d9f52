// Package storage puts uploaded files on a hosted file store and hands back a
// public URL. The service layer only sees Uploader; which backend is behind
// it is decided once in server wiring.
package storage

import (
	"context"
	"io"
)

// ResourceType tells the backend how to treat the bytes.
type ResourceType string

const (
	// ResourceImage is a picture the store may transform and serve inline.
	ResourceImage ResourceType = "image"
	// ResourceRaw is an opaque file such as a PDF.
	ResourceRaw ResourceType = "raw"
)

// Object is one file to store.
type Object struct {
	Folder       string
	PublicID     string // name inside Folder, without extension
	ResourceType ResourceType
	Overwrite    bool   // replace an existing object with the same PublicID
	Filename     string // original client filename
	Ext          string // extension for backends that keep one, e.g. ".png"; taken from Filename when empty
	Body         io.Reader
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, obj Object) (url string, err error)
}
