package resolver

import "slices"

type node struct {
	action   *PackageAction
	key      string
	seq      int
	initial  *entry
	final    *entry
	indegree int
	next     []*node
}

// plan diffs the initial and final state of every target and orders the
// resulting actions. Within a target, an install or update of a package
// follows the installs and updates of its dependencies, and an uninstall
// follows the uninstall or update of every package that depended on it.
// Remaining ties keep the order in which the changes were made.
func (res *resolution) plan() []*PackageAction {
	var all []*node
	for _, ts := range res.order {
		all = append(all, ts.diff()...)
	}

	for _, n := range all {
		for _, m := range all {
			if n != m && n.action.Target == m.action.Target && mustPrecede(n, m) {
				n.next = append(n.next, m)
				m.indegree++
			}
		}
	}

	out := make([]*PackageAction, 0, len(all))
	done := make(map[*node]bool, len(all))
	for len(out) < len(all) {
		var best *node
		for _, n := range all {
			if done[n] || n.indegree > 0 {
				continue
			}
			if best == nil || n.seq < best.seq {
				best = n
			}
		}
		if best == nil {
			// A cycle among installed packages; emit the rest in change order.
			for _, n := range all {
				if !done[n] && (best == nil || n.seq < best.seq) {
					best = n
				}
			}
		}
		done[best] = true
		out = append(out, best.action)
		for _, m := range best.next {
			m.indegree--
		}
	}
	return out
}

// mustPrecede reports whether a has to be applied before b.
func mustPrecede(a, b *node) bool {
	switch {
	case a.action.Type != Uninstall && b.action.Type != Uninstall:
		// a installs a dependency of the package b installs.
		return b.final != nil && b.final.dependsOn(a.key)
	case b.action.Type == Uninstall:
		// a removes or replaces a package that depended on the one b removes.
		return a.initial != nil && a.initial.dependsOn(b.key)
	default:
		return false
	}
}

func (ts *targetState) diff() []*node {
	keys := make([]string, 0, len(ts.touched))
	for k := range ts.touched {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []*node
	for _, key := range keys {
		before, after := ts.initial[key], ts.final[key]

		var a *PackageAction
		switch {
		case before == nil && after == nil:
			continue
		case before == nil:
			a = &PackageAction{Type: Install, Package: after.identity, Target: ts.target}
		case after == nil:
			a = &PackageAction{Type: Uninstall, Package: before.identity, Target: ts.target}
		case before.identity.Version.Equal(after.identity.Version):
			continue
		default:
			replaced := before.identity
			a = &PackageAction{Type: Update, Package: after.identity, Target: ts.target, Replaced: &replaced}
		}

		out = append(out, &node{action: a, key: key, seq: ts.touched[key], initial: before, final: after})
	}
	return out
}
