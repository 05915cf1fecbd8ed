package ingestion

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ScanForFiles walks a directory and returns the canonical record files found
// in it. Anything that is not a .json file is skipped; the extractors only
// ever drop JSON here.
func ScanForFiles(rootPath string) ([]string, error) {
	var paths []string
	log.Printf("Scanning for files in: %s", rootPath)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			log.Printf("WARN: Skipping non-record file %s", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	log.Printf("Found %d files to process.", len(paths))
	return paths, nil
}
