package dag

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"go.yaml.in/yaml/v3"
)

// PipelineLoader loads pipeline definitions by name.
type PipelineLoader interface {
	Load(name string) (*Pipeline, error)
}

// FSPipelineLoader loads pipelines from YAML files in one or more file
// systems, searched in order.
type FSPipelineLoader struct {
	roots []fs.FS
}

// NewFSPipelineLoader creates a loader over the given file systems.
func NewFSPipelineLoader(roots ...fs.FS) *FSPipelineLoader {
	return &FSPipelineLoader{roots: roots}
}

// NewFilePipelineLoader creates a loader that searches the given directories.
func NewFilePipelineLoader(dirs ...string) *FSPipelineLoader {
	roots := make([]fs.FS, len(dirs))
	for i, dir := range dirs {
		roots[i] = os.DirFS(dir)
	}
	return NewFSPipelineLoader(roots...)
}

// Load finds {name}.yaml or {name}.yml at the top of a root, then anywhere
// below it, and parses the first match.
func (l *FSPipelineLoader) Load(name string) (*Pipeline, error) {
	for _, root := range l.roots {
		for _, ext := range []string{".yaml", ".yml"} {
			file := name + ext
			if p, err := loadPipelineFS(root, file); err == nil {
				return p, nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}

			if match := findFile(root, file); match != "" {
				return loadPipelineFS(root, match)
			}
		}
	}
	return nil, fmt.Errorf("dag: pipeline %q not found", name)
}

func findFile(root fs.FS, file string) string {
	var found string
	_ = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && path.Base(p) == file {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func loadPipelineFS(root fs.FS, name string) (*Pipeline, error) {
	data, err := fs.ReadFile(root, name)
	if err != nil {
		return nil, err
	}
	return ParsePipeline(data, name)
}

// ParsePipeline decodes and validates a pipeline document. source names the
// document in errors.
func ParsePipeline(data []byte, source string) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("dag: parsing %s: %w", source, err)
	}
	if p.Mode == "" {
		p.Mode = ModeBatch
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("dag: invalid pipeline %s: %w", source, err)
	}
	return &p, nil
}

// LoadPipeline loads a pipeline from an explicit file path.
func LoadPipeline(file string) (*Pipeline, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("dag: reading pipeline: %w", err)
	}
	return ParsePipeline(data, file)
}

// ResolvePipeline converts a Pipeline definition into an executable Graph.
// It resolves includes recursively and looks up node implementations from the registry.
func ResolvePipeline(p *Pipeline, registry *Registry, loader PipelineLoader) (*Graph, error) {
	stack := make(map[string]bool)    // current recursion path
	resolved := make(map[string]bool) // fully resolved, for diamond includes
	g, err := resolvePipeline(p, registry, loader, stack, resolved)
	if err != nil {
		return nil, err
	}
	if _, err := BuildLevels(g); err != nil {
		return nil, fmt.Errorf("dag: pipeline %q: %w", p.Name, err)
	}
	return g, nil
}

func resolvePipeline(p *Pipeline, registry *Registry, loader PipelineLoader, stack, resolved map[string]bool) (*Graph, error) {
	if stack[p.Name] {
		return nil, fmt.Errorf("dag: circular include detected for pipeline %q", p.Name)
	}
	stack[p.Name] = true
	defer delete(stack, p.Name)

	g := &Graph{Nodes: make(map[string]Node)}

	for _, includeName := range p.Includes {
		if resolved[includeName] {
			continue
		}
		if loader == nil {
			return nil, fmt.Errorf("dag: pipeline %q includes %q but no loader is configured", p.Name, includeName)
		}

		sub, err := loader.Load(includeName)
		if err != nil {
			return nil, fmt.Errorf("dag: loading include %q: %w", includeName, err)
		}

		subGraph, err := resolvePipeline(sub, registry, loader, stack, resolved)
		if err != nil {
			return nil, err
		}

		for name, node := range subGraph.Nodes {
			if _, exists := g.Nodes[name]; !exists {
				g.Nodes[name] = node
			}
		}
		g.Edges = append(g.Edges, subGraph.Edges...)
	}

	for _, def := range p.Nodes {
		if _, exists := g.Nodes[def.Component]; !exists {
			node, ok := registry.Get(def.Component)
			if !ok {
				return nil, fmt.Errorf("dag: component %q not found in registry", def.Component)
			}
			g.Nodes[def.Component] = node
		}

		for _, dep := range def.DependsOn {
			g.Edges = append(g.Edges, Edge{From: dep, To: def.Component})
		}
	}

	resolved[p.Name] = true
	return g, nil
}
