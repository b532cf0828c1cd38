package lobby

import (
	"os"

	"github.com/cespare/xxhash/v2"
)

// RulesChecksum returns the checksum of the rules file at path that
// joiners must match. A missing file checksums as empty.
func RulesChecksum(path string) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}

	return checksum(data), nil
}

func checksum(data []byte) uint32 {
	sum := xxhash.Sum64(data)
	return uint32(sum>>32) ^ uint32(sum)
}
