// Package codec provides the encoding configuration shared by every rulekit
// package.
//
// Provider maps are content-addressed: two maps holding the same providers
// must serialize to the same bytes or cache lookups silently miss. The CBOR
// encoder is therefore configured with Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items.
//
// Buffer-oriented use:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Stream-oriented use:
//
//	enc := codec.NewEncoder(w)
//	dec := codec.NewDecoder(r)
//
// Providers that do not hand-write their payload encoding pick a [Codec]:
// [CBOR] for compact, canonical payloads or [JSON] when the payload must
// stay human-readable.
package codec
