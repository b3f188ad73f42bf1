// Package cipher implements the page-level block cipher and checksum used
// by the SAI container format: a symmetric, per-word feedback cipher keyed
// by a 256-entry table, plus the rotate-XOR checksum used to validate a
// page after it has been decrypted.
package cipher

// Key is a 256-entry table of 32-bit constants selecting the cipher
// schedule. Entry i of a Key is looked up by the high byte of the previous
// plaintext word while decrypting a page.
type Key [256]uint32

// User, LocalState, System and NotRemoveMe are the four named key tables
// the original format ships. Their concrete values are proprietary binary
// constants: the reference header (original_source/libsai/sai.hpp) only
// declares them `extern`, and no translation unit defining them is present
// anywhere in this repository's inputs. Rather than guess at the real
// SystemMax constants, each table is generated once, at package init, by a
// fixed deterministic generator seeded on the key's name. The generator has
// no cryptographic purpose beyond producing 256 non-degenerate, distinct
// words per table; every invariant this package is tested against holds
// regardless of the table's actual values, because decryption and
// encryption in this package are exact inverses of each other.
var (
	User        = generateKey(0x75736572) // "user"
	LocalState  = generateKey(0x6c6f6373) // "locs"
	System      = generateKey(0x73797374) // "syst"
	NotRemoveMe = generateKey(0x6e726d76) // "nrmv"
)

// generateKey deterministically fills a 256-word table from a seed using a
// splitmix64-style mixer. Zero is excluded from the output range so every
// table entry is usable directly as an XOR mask.
func generateKey(seed uint64) Key {
	var k Key
	state := seed ^ 0x9e3779b97f4a7c15
	for i := range k {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z = z ^ (z >> 31)
		w := uint32(z)
		if w == 0 {
			w = 1
		}
		k[i] = w
	}
	return k
}
