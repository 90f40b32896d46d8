package utils

import (
	"strings"
)

// IsContentTypeJSON checks if the content type is JSON
func IsContentTypeJSON(contentType string) bool {
	return contentType == "application/json" || strings.HasSuffix(contentType, "+json")
}

// IsContentTypeXML checks if the content type is XML
func IsContentTypeXML(contentType string) bool {
	return contentType == "application/xml" || strings.HasSuffix(contentType, "+xml")
}

// IsContentTypeText checks if the content type relates to text
func IsContentTypeText(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || strings.HasPrefix(contentType, "image/svg")
}

// IsContentTypeBinary checks if the content type relates to binary
func IsContentTypeBinary(contentType string) bool {
	return strings.HasPrefix(contentType, "application/") || strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// IsContentTypeMultipartForm checks the content type relates to multipart form.
func IsContentTypeMultipartForm(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/")
}
