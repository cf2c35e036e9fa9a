// Package cas stores immutable blobs under the digest of their content.
//
// The main client is the build engine, which caches serialized provider maps
// between runs. Every backend re-hashes what it returns, so a corrupted or
// tampered blob surfaces as ErrDigestMismatch rather than as a wrong answer.
//
// Backends:
//
//   - MemoryStore keeps blobs in process memory.
//   - DiskStore keeps one file per blob under a sharded directory, with
//     optional compression and at-rest sealing.
//   - HTTPStore talks to a remote cache served by cas/server, retrying
//     transient failures and optionally failing fast behind a circuit
//     breaker.
//
// MapStore layers provider maps on top of any Store, and InstrumentedStore
// adds logging, tracing and metrics.
package cas
