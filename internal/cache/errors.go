package cache

import phalanxerrors "github.com/phalanx-pm/phalanx/errors"

func errCorrupt(key string) error {
	return phalanxerrors.New(phalanxerrors.CodeCorruptBlob, "cached blob failed integrity check: "+key)
}

func errNotFound(key string) error {
	return phalanxerrors.New(phalanxerrors.CodeIO, "cache miss: "+key)
}
