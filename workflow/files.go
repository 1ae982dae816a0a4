package workflow

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const maxNameRetries = 5

// safeFilePath returns base when it is free, otherwise the lowest-numbered
// free alternate (_retry_1 .. _retry_5), otherwise base again so the save
// overwrites. Pure path computation plus existence checks; nothing is
// created here.
func safeFilePath(base string) string {
	if !fileExists(base) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i <= maxNameRetries; i++ {
		alt := fmt.Sprintf("%s_retry_%d%s", stem, i, ext)
		if !fileExists(alt) {
			log.Printf("[FILE] Using fallback filename: %s", filepath.Base(alt))
			return alt
		}
	}
	log.Printf("[FILE] Fallback exhausted, using base filename")
	return base
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// verifyOnce re-reads the saved file and compares it byte-for-byte against
// the expected content.
func verifyOnce(path, expected string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[VERIFY] File does not exist")
		} else {
			log.Printf("[VERIFY] Verification error: %v", err)
		}
		return false
	}
	match := string(data) == expected
	log.Printf("[VERIFY] Content match: %v", match)
	return match
}
