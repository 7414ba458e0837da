package cache

import (
	"bytes"

	"github.com/klauspost/compress/zstd"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// compressionThreshold is the payload size a blob must exceed to be worth
// paying the zstd frame overhead for.
const compressionThreshold = 100

// compressedMagic prefixes a compressed blob on disk so a read can tell
// compressed and plain bytes apart without a side channel.
var compressedMagic = []byte("ZSTD")

// compressible reports whether c's disk-tier entries are zstd-compressed
// before being handed to the Store: the four classes whose entries are
// read far more often than written (a resolved package archive, its
// generated autoloader, a registry's per-package metadata, its
// per-repository index) are worth the CPU/space tradeoff. Dependency
// graphs and VCS clones already compress poorly (graphs are small, clones
// are git packfiles) and skip it.
func (c Class) compressible() bool {
	switch c {
	case ClassPackage, ClassAutoloader, ClassMetadata, ClassRepository:
		return true
	default:
		return false
	}
}

// compressForDisk zstd-compresses data and prefixes it with
// compressedMagic when class is eligible and data is longer than
// compressionThreshold bytes; otherwise data passes through unchanged and
// compressed is false.
func compressForDisk(class Class, data []byte) (out []byte, compressed bool, err error) {
	if !class.compressible() || len(data) <= compressionThreshold {
		return data, false, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, false, phalanxerrors.Wrap(phalanxerrors.CodeIO, "init zstd writer", err)
	}
	defer enc.Close()
	payload := enc.EncodeAll(data, make([]byte, 0, len(compressedMagic)+len(data)/2))
	return append(append([]byte{}, compressedMagic...), payload...), true, nil
}

// decompressFromDisk reverses compressForDisk: data starting with
// compressedMagic is inflated; anything else is returned unchanged, so a
// blob written before compression was enabled (or stored under a
// non-eligible class) still reads back correctly.
func decompressFromDisk(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, compressedMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "init zstd reader", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data[len(compressedMagic):], nil)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeCorruptBlob, "inflate cached blob", err)
	}
	return out, nil
}
