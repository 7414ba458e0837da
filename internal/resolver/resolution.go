package resolver

import "github.com/phalanx-pm/phalanx/manifest"

// emitResolution walks the selected set from the root manifest's direct
// requires and emits each side (production, dev) in reverse-topological
// (leaves-first) order, so an installer can lay packages down without a
// dependency ever being installed after its dependent.
func emitResolution(m *manifest.Manifest, selected map[string]manifest.CandidatePackage) *Resolution {
	res := &Resolution{}

	visited := make(map[string]bool)
	for name := range m.Require {
		walkLeavesFirst(name, selected, visited, &res.Packages)
	}

	visitedDev := make(map[string]bool)
	for k := range visited {
		visitedDev[k] = true
	}
	for name := range m.RequireDev {
		walkLeavesFirst(name, selected, visitedDev, &res.PackagesDev)
	}

	return res
}

// walkLeavesFirst does a post-order DFS over candidate.Require edges,
// appending to out only after all of a package's own dependencies have
// already been appended.
func walkLeavesFirst(name string, selected map[string]manifest.CandidatePackage, visited map[string]bool, out *[]manifest.CandidatePackage) {
	id, err := manifest.ParsePackageId(name)
	if err != nil {
		return
	}
	key := id.String()
	if visited[key] {
		return
	}
	cand, ok := selected[key]
	if !ok {
		return
	}
	visited[key] = true

	for reqName := range cand.Require {
		walkLeavesFirst(reqName, selected, visited, out)
	}
	*out = append(*out, cand)
}
