package automatic

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/domino14/blockglass/spawner"
)

// GenerateSeeds creates n random seeds for reproducible autoplay runs.
func GenerateSeeds(n int) [][32]byte {
	seeds := make([][32]byte, n)
	for i := range seeds {
		seeds[i] = spawner.RandomSeed()
	}
	return seeds
}

// SaveSeeds writes one encoded seed per line.
func SaveSeeds(seeds [][32]byte, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err = writer.WriteString("# blockglass autoplay seeds (base64, 32 bytes each)\n"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, seed := range seeds {
		if _, err = writer.WriteString(spawner.EncodeSeed(seed) + "\n"); err != nil {
			return fmt.Errorf("failed to write seed %d: %w", i, err)
		}
	}
	return writer.Flush()
}

// LoadSeeds reads a seed file written by SaveSeeds. Blank lines and lines
// starting with # are skipped. URL-safe unpadded base64 is accepted too.
func LoadSeeds(path string) ([][32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds [][32]byte
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seed, err := spawner.DecodeSeed(line)
		if err != nil {
			decoded, uerr := base64.RawURLEncoding.DecodeString(line)
			if uerr != nil || len(decoded) != 32 {
				return nil, fmt.Errorf("bad seed at line %d: %w", lineNum, err)
			}
			copy(seed[:], decoded)
		}
		seeds = append(seeds, seed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return seeds, nil
}
