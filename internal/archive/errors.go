package archive

import (
	"fmt"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

func errUnsupportedKind(k Kind) error {
	return phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive, fmt.Sprintf("unsupported archive kind: %q", k))
}

func errTooManyFiles(limit int) error {
	return phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive, fmt.Sprintf("archive exceeds max file count (%d)", limit))
}

func errFileTooLarge(entryPath string, limit int64) error {
	return phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive,
		fmt.Sprintf("entry %q exceeds max file size (%d bytes)", entryPath, limit))
}

func errArchiveTooLarge(limit int64) error {
	return phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive, fmt.Sprintf("archive exceeds max total size (%d bytes)", limit))
}
