// Package digest computes the content addresses rulekit uses for serialized
// provider maps and cached blobs.
//
// A [Digest] is a 32-byte BLAKE3 keyed hash. The key is a fixed domain
// separator, so bytes hashed here never collide with a plain BLAKE3 hash of
// the same input computed elsewhere. Changing the key invalidates every
// stored address.
//
// The canonical text form is lowercase hex, used in URLs, file names and
// log output.
package digest
