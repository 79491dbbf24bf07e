package utils

import (
	"io"
	"os"
	"unicode/utf8"
)

// sniffLength bounds how many leading bytes are inspected when deciding
// whether a candidate file belongs in the digest.
const sniffLength = 8000

// IsBinary reports whether data looks like binary content. Null bytes or
// invalid UTF-8 disqualify a file from ingestion.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
	}
	return false
}

// IsFileBinary sniffs the first sniffLength bytes of the file at path.
// Unreadable files report false; the ingestion engine surfaces the read
// failure itself when it attempts the full read.
func IsFileBinary(path string) bool {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return false
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := fileHandle.Read(buffer)
	if readError != nil && readError != io.EOF {
		return false
	}
	return IsBinary(buffer[:bytesRead])
}
