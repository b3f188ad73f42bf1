package page

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DINKIN/libsai/cipher"
)

// fixture builds an encrypted backing file containing a single table page
// (index 0) followed by n data pages, with each data page filled by fill
// and its checksum correctly recorded in the table.
func fixture(t *testing.T, key *cipher.Key, n int, fill func(i int) byte) []byte {
	t.Helper()

	buf := make([]byte, Size*(n+1))

	var table [Size]byte
	for i := 0; i < n; i++ {
		var plain [Size]byte
		for b := range plain {
			plain[b] = fill(i)
		}
		sum := cipher.Checksum(&plain)

		off := (i + 1) * 8
		binary.LittleEndian.PutUint32(table[off:off+4], sum)
		binary.LittleEndian.PutUint32(table[off+4:off+8], 0)

		cipherData := plain
		cipher.EncryptData(&cipherData, key, sum)
		copy(buf[Size*(i+1):Size*(i+2)], cipherData[:])
	}
	// self-descriptor: checksum of the table with word 0 zeroed
	binary.LittleEndian.PutUint32(table[0:4], cipher.ChecksumTable(&table))

	cipherTable := table
	cipher.EncryptTable(&cipherTable, key, 0)
	copy(buf[0:Size], cipherTable[:])

	return buf
}

func TestFetchDataPage(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 3, func(i int) byte { return byte(0xA0 + i) })

	store := NewStore(bytes.NewReader(backing), &key)

	p, err := store.Fetch(2)
	require.NoError(t, err)
	require.Equal(t, byte(0xA1), p[0])
}

func TestFetchTablePage(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 1, func(i int) byte { return 0x42 })

	store := NewStore(bytes.NewReader(backing), &key)

	_, entries, err := store.FetchTable(0)
	require.NoError(t, err)

	var plain [Size]byte
	for b := range plain {
		plain[b] = 0x42
	}
	require.Equal(t, cipher.Checksum(&plain), entries[1].Checksum)
}

func TestCorruptDataPage(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 1, func(i int) byte { return 0x11 })

	// flip a byte in the encrypted data page
	backing[Size] ^= 0xFF

	store := NewStore(bytes.NewReader(backing), &key)
	_, err := store.Fetch(1)
	require.Error(t, err)

	var cp *CorruptPage
	require.ErrorAs(t, err, &cp)
	require.Equal(t, uint32(1), cp.Index)
}

func TestCorruptTableSelfDescriptor(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 1, func(i int) byte { return 0x11 })

	backing[0] ^= 0xFF

	store := NewStore(bytes.NewReader(backing), &key)
	_, err := store.Fetch(0)
	require.Error(t, err)

	var ct *CorruptTable
	require.ErrorAs(t, err, &ct)
}

func TestWrongKeyYieldsCorruptTable(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 1, func(i int) byte { return 0x11 })

	wrongKey := cipher.System
	store := NewStore(bytes.NewReader(backing), &wrongKey)

	_, err := store.Fetch(0)
	require.Error(t, err)
	var ct *CorruptTable
	require.ErrorAs(t, err, &ct)
}

func TestTruncatedRead(t *testing.T) {
	key := cipher.User
	backing := fixture(t, &key, 1, func(i int) byte { return 0x11 })
	backing = backing[:Size+10] // cut the data page short

	store := NewStore(bytes.NewReader(backing), &key)
	_, err := store.Fetch(1)
	require.Error(t, err)
	require.ErrorIs(t, err, Truncated)
}
