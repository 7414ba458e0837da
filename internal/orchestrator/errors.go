package orchestrator

import phalanxerrors "github.com/phalanx-pm/phalanx/errors"

// fatalCodes promotes a single package's failure to a whole-batch abort:
// a checksum mismatch, an archive that can't be safely extracted, or a
// path-traversal attempt are integrity problems, not transient network
// noise, and continuing to install other packages into the same vendor
// tree after one of these would leave the tree in a state nothing
// downstream should trust.
var fatalCodes = map[phalanxerrors.ErrorCode]bool{
	phalanxerrors.CodeChecksumMismatch:   true,
	phalanxerrors.CodeCorruptBlob:        true,
	phalanxerrors.CodeUnsupportedArchive: true,
	phalanxerrors.CodePathTraversal:      true,
}

func isFatal(err error) bool {
	return fatalCodes[phalanxerrors.Code(err)]
}
