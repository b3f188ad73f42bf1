package cipher

import "encoding/binary"

// PageSize is the fixed size, in bytes, of every page in a container.
const PageSize = 4096

// wordsPerPage is PageSize interpreted as little-endian uint32 words.
const wordsPerPage = PageSize / 4

// Checksum computes the rotate-XOR accumulator over a decrypted page's
// 1024 little-endian words, forcing the low bit of the result to 1. It is
// used both as a decryption feedback seed for data pages and as the
// integrity tag stored in a table page's entries.
func Checksum(page *[PageSize]byte) uint32 {
	return checksum(page, false)
}

// ChecksumTable computes the same accumulator as Checksum, but with word 0
// of the page treated as zero. Word 0 of a table page holds the
// self-descriptor's own checksum field, which must be excluded from the
// sum it is checked against.
func ChecksumTable(page *[PageSize]byte) uint32 {
	return checksum(page, true)
}

func checksum(page *[PageSize]byte, zeroFirstWord bool) uint32 {
	var acc uint32
	for i := 0; i < wordsPerPage; i++ {
		var w uint32
		if i == 0 && zeroFirstWord {
			w = 0
		} else {
			w = binary.LittleEndian.Uint32(page[i*4 : i*4+4])
		}
		acc = ((acc << 1) | (acc >> 31)) ^ w
	}
	return acc | 1
}
