package testutil

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/richardsondev/unreal-archive/internal/umod"
	"github.com/richardsondev/unreal-archive/internal/unreal"
)

// ArchiveFile is a named file to place in a test archive or container.
type ArchiveFile struct {
	Name string
	Data []byte
}

// Umod builds an installer container holding files in order. Names are
// written as given, so callers may use either path separator.
func Umod(files ...ArchiveFile) []byte {
	var out []byte
	offsets := make([]int, len(files))
	for i, f := range files {
		offsets[i] = len(out)
		out = append(out, f.Data...)
	}

	dirOffset := len(out)
	out = unreal.AppendCompactIndex(out, int32(len(files)))
	for i, f := range files {
		out = unreal.AppendCompactIndex(out, int32(len(f.Name)+1))
		out = append(out, f.Name...)
		out = append(out, 0)
		out = binary.LittleEndian.AppendUint32(out, uint32(offsets[i]))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(f.Data)))
		out = binary.LittleEndian.AppendUint32(out, 0)
	}

	total := len(out) + 20
	out = binary.LittleEndian.AppendUint32(out, umod.Magic)
	out = binary.LittleEndian.AppendUint32(out, uint32(dirOffset))
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out
}
