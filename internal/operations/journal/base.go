package journal

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// MaxEntries caps every log query
const MaxEntries = 10000

// Entry is one log line from any of the supported sources
type Entry struct {
	Timestamp string            `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Level     string            `json:"level" yaml:"level"`
	Module    string            `json:"module,omitempty" yaml:"module,omitempty"`
	Message   string            `json:"message" yaml:"message"`
	File      string            `json:"file,omitempty" yaml:"file,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func capCount(n uint32) uint32 {
	if n == 0 || n > MaxEntries {
		return MaxEntries
	}
	return n
}

// readAllLines returns up to the last n lines of path, reading backwards in
// blocks so large console logs are not loaded whole
func readAllLines(path string, n uint32, log *logger.Logger) ([]string, error) {
	const readBlockSize = 8192
	const maxLineBufferSize = 1024 * 1024

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var (
		offset        = fi.Size()
		lineBuffer    []byte
		lines         []string
		lastLineCount int
		iterations    int
	)

	const maxIterations = 1000

	for offset > 0 && uint32(len(lines)) < n {
		iterations++
		if iterations > maxIterations {
			log.Warnf("Exceeded max iterations (%d) reading %s", maxIterations, path)
			break
		}

		currentFi, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to re-stat file: %w", err)
		}
		if currentFi.Size() != fi.Size() {
			log.Warnf("File %s changed size during read, was %d now %d bytes", path, fi.Size(), currentFi.Size())
			break
		}

		blockSize := int64(readBlockSize)
		if offset < blockSize {
			blockSize = offset
		}
		offset -= blockSize

		buf := make([]byte, blockSize)
		if _, err := file.ReadAt(buf, offset); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}

		lineBuffer = append(buf, lineBuffer...)
		if len(lineBuffer) > maxLineBufferSize {
			log.Warnf("Line buffer for %s exceeded %d bytes", path, maxLineBufferSize)
			break
		}

		scanner := bufio.NewScanner(bytes.NewReader(lineBuffer))
		scanner.Buffer(make([]byte, 0, 256*1024), 256*1024)

		var tmpLines []string
		for scanner.Scan() {
			tmpLines = append(tmpLines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			log.Warnf("Scanner error on %s: %v", path, err)
			break
		}

		// the first line of a block may be partial, so only trust it once
		// the start of the file has been reached
		if offset > 0 && len(tmpLines) > 0 {
			tmpLines = tmpLines[1:]
		}

		if len(tmpLines) == lastLineCount && offset > 0 && len(lineBuffer) > readBlockSize*2 {
			log.Warnf("No new lines found in %s, buffer size %d bytes", path, len(lineBuffer))
			break
		}
		lastLineCount = len(tmpLines)

		if uint32(len(tmpLines)) >= n {
			lines = tmpLines[len(tmpLines)-int(n):]
			break
		}
		lines = tmpLines
	}

	return lines, nil
}
