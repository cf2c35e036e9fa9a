// Package provider implements the provider map: an immutable, uniquely-keyed
// bundle of heterogeneous, strongly-typed results that one pipeline stage
// hands to the next.
//
// A provider is any value that names its own type and can encode itself:
//
//	type CompileOutputs struct {
//	    Objects []string `json:"objects"`
//	}
//
//	func (CompileOutputs) TypeID() provider.TypeID { return "rulekit.cc.CompileOutputs" }
//	func (c CompileOutputs) Encode() ([]byte, error) { return codec.CBOR.Marshal(c) }
//
// A stage builds one [Map] from everything it produced. Construction sorts
// the providers by type identifier and rejects duplicates, so the serialized
// form depends only on the set of providers and never on the order they were
// supplied in:
//
//	m, err := provider.Build(compile, link)
//	data, err := m.Marshal()
//
// The consuming stage decodes the bytes without knowing which types are
// inside, and asks for exactly the type it needs:
//
//	m, err := provider.Unmarshal(data)
//	out, err := provider.Get(m, provider.DecoderFor[CompileOutputs](codec.CBOR))
//
// Absence is an ordinary outcome: [Get] returns a [NotFoundError] and
// [Lookup] reports it as a boolean.
//
// # Registry
//
// Code that must reconstruct every record without compile-time knowledge of
// the types registers a decoder per identifier, usually from init:
//
//	func init() {
//	    provider.MustRegister(provider.Default(), provider.DecoderFor[CompileOutputs](codec.CBOR))
//	}
//
// # Concurrency
//
// A built Map is never mutated. Count, Get, Marshal and Digest may be called
// from any number of goroutines without synchronization.
package provider
