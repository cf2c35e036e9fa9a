// Package dag executes build graphs whose nodes exchange provider maps.
//
// Each node receives the outputs of its direct dependencies as Inputs and
// returns a provider.Map. The engine runs nodes level by level, in
// parallel within a level, and stores every output in serialized form in a
// State so that hand-offs behave like real stage boundaries.
//
// With a cas.Backend configured, outputs are memoized: the cache key is the
// node name, its optional Fingerprint and the digests of its inputs, so an
// unchanged subgraph is served from the cache.
//
// Two execution modes share the same graph:
//   - ExecuteBatch: runs every node in dependency order
//   - ExecuteFiltered: runs only nodes accepted by a filter, typically a
//     Session's schedule and condition filter
//
// Graphs can be declared in YAML pipelines that include one another and
// resolve components from a Registry.
package dag
