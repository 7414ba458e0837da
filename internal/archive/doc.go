// Package archive implements streaming extraction for the archive kinds
// the registry distributes packages in: zip, tar, tar+gzip, tar+bzip2,
// tar+xz, and tar+zstd. Every extraction goes through the same
// path-traversal and symlink-escape validation regardless of kind.
package archive
