// Package encryption seals cached blobs at rest with an AEAD cipher.
//
// Keys are derived from a passphrase with SHA-256. Every sealed blob carries
// a fresh random nonce as its prefix. Callers pass the blob's content address
// as additional data, so a ciphertext moved to another address fails to open.
//
// # Usage
//
//	s, err := encryption.New("passphrase", encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := s.Seal(plaintext, address)
//	plaintext, err := s.Open(sealed, address)
package encryption
