package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"bmp": true, "tiff": true, "webp": true,
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	return imageExts[GetFileExtension(filename)]
}

// GenerateOutputFilename generates an output filename based on input and parameters
func GenerateOutputFilename(inputFile, outputDir, prefix, suffix, format string) string {
	baseName := filepath.Base(inputFile)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))

	if format == "" {
		format = GetFileExtension(inputFile)
		if format == "" {
			format = "png"
		}
	}

	outputName := fmt.Sprintf("%s%s%s.%s", prefix, nameWithoutExt, suffix, format)
	return filepath.Join(outputDir, outputName)
}

// ListImageFiles recursively lists all image files in a directory
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename replaces characters that are invalid in filenames, so
// image keys can be used as file names
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	return strings.Trim(result, " .")
}

// IsURL reports whether s looks like an http(s) URL rather than a path
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
