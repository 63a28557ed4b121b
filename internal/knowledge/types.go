package knowledge

import "context"

// Metadata describes the node being documented, passed to the generator
// alongside the dependency context.
type Metadata struct {
	Name         string
	Path         string
	IsPackage    bool
	Source       string
	CycleMembers []string // set when generating a cycle-group overview
	CycleEdges   []string // "a -> b" pairs internal to the group
}

// Generator is the external text-generation collaborator. Implementations
// may be slow or remote; calls are subject to the pipeline's timeout and
// retry policy.
type Generator interface {
	Generate(ctx context.Context, id string, meta Metadata, depContext map[string]string) (string, error)
}
