package core

import (
	"mime"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

// MediaTypeByName infers a media type from the extension of name.
// It returns "" when the extension is unknown.
func MediaTypeByName(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == "."+NoExtension {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// MediaType infers the media type of a published file. The extension wins;
// content sniffing is the fallback for unknown or missing extensions.
func MediaType(name string, content []byte) string {
	if t := MediaTypeByName(name); t != "" {
		return t
	}
	return mimetype.Detect(content).String()
}
