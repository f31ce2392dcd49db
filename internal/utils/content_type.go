package utils

import "strings"

// FileExtensionForContentType maps the MIME types the pipeline sees to a
// storage filename extension
func FileExtensionForContentType(contentType string) string {
	contentType = strings.ToLower(contentType)

	switch {
	case strings.Contains(contentType, "pdf"):
		return "pdf"
	case strings.Contains(contentType, "text/plain"):
		return "txt"
	case strings.Contains(contentType, "html"):
		return "html"
	case strings.Contains(contentType, "word") || strings.Contains(contentType, "doc"):
		return "docx"
	case strings.Contains(contentType, "excel") || strings.Contains(contentType, "xls"):
		return "xlsx"
	case strings.Contains(contentType, "csv"):
		return "csv"
	case strings.Contains(contentType, "jpeg") || strings.Contains(contentType, "jpg"):
		return "jpg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "zip") || strings.Contains(contentType, "compressed"):
		return "zip"
	default:
		return "bin"
	}
}
