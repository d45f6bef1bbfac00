package y4m

import "github.com/zeebo/blake3"

type chunkHash [32]byte

// chunkDomainKey is the ASCII domain name zero-padded to 32 bytes.
var chunkDomainKey = [32]byte{
	'f', '2', 'v', '2', 'f', '.', 'y', '4', 'm', '.', 'c', 'h', 'u', 'n', 'k',
}

// hashChunk is the keyed BLAKE3 digest of a chunk's raw bytes.
func hashChunk(data []byte) chunkHash {
	hasher, err := blake3.NewKeyed(chunkDomainKey[:])
	if err != nil {
		panic("y4m: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var out chunkHash
	copy(out[:], hasher.Sum(nil))
	return out
}
