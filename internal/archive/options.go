package archive

// ExtractOptions bounds a single extraction: how many entries, how much
// total and per-file data, and what prefix (if any) to strip from every
// entry path before it is joined to the destination.
type ExtractOptions struct {
	MaxFiles       int
	MaxTotalSize   int64
	MaxFileSize    int64
	StripPrefix    string
	AllowHidden    bool
	PreserveNonWritablePerms bool
}

// DefaultExtractOptions matches the ecosystem's typical package archive
// sizes: a few thousand files, each a few megabytes, total under a
// gigabyte.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		MaxFiles:                 20000,
		MaxTotalSize:             1 << 30, // 1 GiB
		MaxFileSize:              200 << 20,
		AllowHidden:              true, // package archives routinely ship .gitattributes, .github, etc.
		PreserveNonWritablePerms: true,
	}
}

// Result reports what an extraction produced.
type Result struct {
	Paths     []string
	TotalSize int64
}
