package resolver

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Solver runs the priority-queue-of-goals backtracking search described in
// spec.md §4.7 over a RegistryAdapter.
type Solver struct {
	registry RegistryAdapter
	opts     Options
}

// New constructs a Solver.
func New(registry RegistryAdapter, opts Options) *Solver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.MaxCandidatesPerGoal <= 0 {
		opts.MaxCandidatesPerGoal = DefaultOptions().MaxCandidatesPerGoal
	}
	return &Solver{registry: registry, opts: opts}
}

// searchState is the mutable solver state snapshotted at every decision
// point so backtracking can restore it wholesale instead of threading
// precise undo logic through every mutation site.
type searchState struct {
	selected  map[string]manifest.CandidatePackage // PackageId string -> chosen candidate
	forbidden map[string][]version.Constraint      // PackageId string -> conflict-map constraints against it
	provided  map[string][]version.Constraint      // PackageId string -> constraints satisfied via provide/replace, no real package needed
	open      []goal
}

func (s searchState) clone() searchState {
	cp := searchState{
		selected:  maps.Clone(s.selected),
		forbidden: make(map[string][]version.Constraint, len(s.forbidden)),
		provided:  make(map[string][]version.Constraint, len(s.provided)),
		open:      slices.Clone(s.open),
	}
	for k, v := range s.forbidden {
		cp.forbidden[k] = slices.Clone(v)
	}
	for k, v := range s.provided {
		cp.provided[k] = slices.Clone(v)
	}
	return cp
}

// Resolve runs the search against m's require/require-dev maps and
// returns a Resolution or a ResolveError-classified error (CodeConflict,
// CodeResolveCancelled, CodePackageNotFound).
func (s *Solver) Resolve(ctx context.Context, m *manifest.Manifest) (*Resolution, error) {
	deadline := time.Now().Add(s.opts.Timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	prodGoals, err := seedGoals(m.Require, false, nil)
	if err != nil {
		return nil, err
	}
	devGoals, err := seedGoals(m.RequireDev, true, nil)
	if err != nil {
		return nil, err
	}

	open := prodGoals
	if m.PreferStable {
		// Dev requires form a second tier processed after production
		// requires when prefer-stable is set.
		open = append(open, devGoals...)
	} else {
		open = interleave(prodGoals, devGoals)
	}

	state := searchState{
		selected:  make(map[string]manifest.CandidatePackage),
		forbidden: make(map[string][]version.Constraint),
		provided:  make(map[string][]version.Constraint),
		open:      open,
	}

	var decisions []decision
	for len(state.open) > 0 {
		select {
		case <-ctx.Done():
			return nil, newCancelledError("timeout exceeded", goalStackOf(decisions))
		default:
		}

		idx := selectNextGoalIndex(state.open)
		g := state.open[idx]
		state.open = append(state.open[:idx], state.open[idx+1:]...)

		if err := s.processGoal(ctx, &state, &decisions, g); err != nil {
			var ok bool
			state, ok = backtrack(&decisions)
			if !ok {
				return nil, err
			}
		}
	}

	return emitResolution(m, state.selected), nil
}

// processGoal advances one goal: platform short-circuit, already-selected
// reuse, or a fresh registry query pushed as a new decision point.
func (s *Solver) processGoal(ctx context.Context, state *searchState, decisions *[]decision, g goal) error {
	if g.id.IsPlatform() {
		if !s.opts.Platform.Satisfies(g.id.Name, g.constraint) {
			return newNotFoundError(g.id.String(), g.requiringPath)
		}
		return nil
	}

	if existing, ok := state.selected[g.id.String()]; ok {
		if g.constraint.Matches(existing.Version) && !isForbidden(state.forbidden, g.id.String(), existing.Version) {
			return nil
		}
		return newConflictError(g.id.String(), []string{g.constraint.String()}, [][]string{g.requiringPath})
	}

	// spec.md §4.7 step 4: a provide/replace map recorded against this goal's
	// package id can satisfy the goal without installing a real candidate
	// for it (e.g. a polyfill package providing psr/log).
	if isSyntheticallySatisfied(state.provided[g.id.String()], g.constraint) {
		return nil
	}

	candidates, err := s.registry.Resolve(ctx, g.id, g.constraint)
	if err != nil {
		return err
	}
	candidates = filterForbidden(candidates, state.forbidden[g.id.String()])
	if len(candidates) == 0 {
		return newConflictError(g.id.String(), []string{g.constraint.String()}, [][]string{g.requiringPath})
	}
	if len(candidates) > s.opts.MaxCandidatesPerGoal {
		candidates = candidates[:s.opts.MaxCandidatesPerGoal]
	}

	*decisions = append(*decisions, decision{
		goal:       g,
		candidates: candidates,
		triedIndex: 0,
		before:     state.clone(),
	})
	applySelection(state, g, candidates[0])
	return nil
}

// applySelection records candidate as g's chosen package, registers its
// conflict/provide/replace maps, and seeds its require map as new goals.
func applySelection(state *searchState, g goal, candidate manifest.CandidatePackage) {
	state.selected[g.id.String()] = candidate

	for name, constraintStr := range candidate.Conflict {
		if c, err := version.ParseConstraint(constraintStr); err == nil {
			state.forbidden[name] = append(state.forbidden[name], c)
		}
	}

	for name, constraintStr := range candidate.Provide {
		if c, err := version.ParseConstraint(constraintStr); err == nil {
			state.provided[name] = append(state.provided[name], c)
		}
	}
	for name, constraintStr := range candidate.Replace {
		if c, err := version.ParseConstraint(constraintStr); err == nil {
			state.provided[name] = append(state.provided[name], c)
		}
	}

	path := append(slices.Clone(g.requiringPath), g.id.String())
	for reqName, reqConstraintStr := range candidate.Require {
		reqID, err := manifest.ParsePackageId(reqName)
		if err != nil {
			reqID = manifest.NewPlatformId(reqName)
		}
		reqConstraint, err := version.ParseConstraint(reqConstraintStr)
		if err != nil {
			continue
		}
		state.open = append(state.open, goal{id: reqID, constraint: reqConstraint, dev: g.dev, requiringPath: path})
	}
}

// isSyntheticallySatisfied reports whether a provide/replace constraint
// recorded against a goal's package id overlaps with what the goal asks
// for. An exact side is checked by literal version match; otherwise any
// two non-wildcard ranges are assumed to overlap, since a precise range
// intersection test isn't worth the complexity for a synthetic satisfier
// that composer itself treats permissively.
func isSyntheticallySatisfied(provided []version.Constraint, want version.Constraint) bool {
	for _, p := range provided {
		if constraintsOverlap(p, want) {
			return true
		}
	}
	return false
}

func constraintsOverlap(a, b version.Constraint) bool {
	if a.IsWildcard() || b.IsWildcard() {
		return true
	}
	if a.IsExact() {
		if v, err := version.Parse(a.String()); err == nil {
			return b.Matches(v)
		}
	}
	if b.IsExact() {
		if v, err := version.Parse(b.String()); err == nil {
			return a.Matches(v)
		}
	}
	return true
}

func isForbidden(forbidden map[string][]version.Constraint, id string, v version.Version) bool {
	for _, c := range forbidden[id] {
		if c.Matches(v) {
			return true
		}
	}
	return false
}

func filterForbidden(candidates []manifest.CandidatePackage, forbidden []version.Constraint) []manifest.CandidatePackage {
	if len(forbidden) == 0 {
		return candidates
	}
	out := make([]manifest.CandidatePackage, 0, len(candidates))
	for _, c := range candidates {
		banned := false
		for _, f := range forbidden {
			if f.Matches(c.Version) {
				banned = true
				break
			}
		}
		if !banned {
			out = append(out, c)
		}
	}
	return out
}

// backtrack pops decisions until one has an untried alternative, restores
// its pre-decision snapshot, and applies the next candidate. Returns
// ok=false when the stack is exhausted (the overall resolution fails).
func backtrack(decisions *[]decision) (searchState, bool) {
	for len(*decisions) > 0 {
		last := (*decisions)[len(*decisions)-1]
		last.triedIndex++
		if last.triedIndex >= len(last.candidates) {
			*decisions = (*decisions)[:len(*decisions)-1]
			continue
		}
		state := last.before.clone()
		applySelection(&state, last.goal, last.candidates[last.triedIndex])
		(*decisions)[len(*decisions)-1] = decision{
			goal:       last.goal,
			candidates: last.candidates,
			triedIndex: last.triedIndex,
			before:     last.before,
		}
		return state, true
	}
	return searchState{}, false
}

func goalStackOf(decisions []decision) []string {
	out := make([]string, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, d.goal.id.String())
	}
	return out
}

// seedGoals parses a require map into goals. Malformed package ids or
// constraints are reported as CodeInvalidManifest, matching the input
// validation spec.md §7 calls for.
func seedGoals(require map[string]string, dev bool, path []string) ([]goal, error) {
	goals := make([]goal, 0, len(require))
	for name, constraintStr := range require {
		id, err := manifest.ParsePackageId(name)
		if err != nil {
			if isPlatformLiteral(name) {
				id = manifest.NewPlatformId(name)
			} else {
				return nil, err
			}
		}
		constraint, err := version.ParseConstraint(constraintStr)
		if err != nil {
			return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidConstraint, "require "+name, err)
		}
		goals = append(goals, goal{id: id, constraint: constraint, dev: dev, requiringPath: slices.Clone(path)})
	}
	return goals, nil
}

func isPlatformLiteral(name string) bool {
	return manifest.NewPlatformId(name).IsPlatform()
}

// interleave merges two goal slices round-robin, keeping each slice's own
// order (seedGoals builds them by map iteration, so not declaration order),
// used when the manifest hasn't opted into prefer-stable tiering.
func interleave(a, b []goal) []goal {
	out := make([]goal, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}

// selectNextGoalIndex picks the next goal to process by descending pin
// strength: exact constraints first, then narrowest (neither exact nor
// wildcard), then wildcards — spec.md §4.7 step 2.
func selectNextGoalIndex(open []goal) int {
	best := 0
	bestRank := pinRank(open[0])
	for i := 1; i < len(open); i++ {
		if r := pinRank(open[i]); r < bestRank {
			best, bestRank = i, r
		}
	}
	return best
}

func pinRank(g goal) int {
	switch {
	case g.constraint.IsExact():
		return 0
	case g.constraint.IsWildcard():
		return 2
	default:
		return 1
	}
}
