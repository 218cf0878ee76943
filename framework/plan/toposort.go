package plan

import "sort"

// stableOrder sorts nodes 0..n-1 so every node comes after the nodes it
// depends on. Among ready nodes the smallest input index is emitted first,
// so the result is the smallest valid order by input index: nodes with no
// dependencies keep input order, but a node held back by a later dependency
// lands after the nodes that were ready before it. deps[i] lists the nodes i
// depends on. When a cycle blocks progress, the returned cycle is a path of
// node indexes with its first element repeated at the end.
func stableOrder(n int, deps [][]int) (order []int, cycle []int) {
	pending := make([]int, n)
	dependents := make([][]int, n)
	for i := 0; i < n; i++ {
		pending[i] = len(deps[i])
		for _, d := range deps[i] {
			dependents[d] = append(dependents[d], i)
		}
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	order = make([]int, 0, n)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			pending[dep]--
			if pending[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}

	if len(order) == n {
		return order, nil
	}
	return nil, findCycle(n, deps, pending)
}

// findCycle walks unsatisfied dependencies from the smallest blocked node.
// Every blocked node still waits on at least one blocked node, so the walk
// must revisit a node.
func findCycle(n int, deps [][]int, pending []int) []int {
	start := -1
	for i := 0; i < n; i++ {
		if pending[i] > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	pos := make(map[int]int)
	var path []int
	cur := start
	for {
		if at, seen := pos[cur]; seen {
			cycle := append([]int(nil), path[at:]...)
			return append(cycle, cur)
		}
		pos[cur] = len(path)
		path = append(path, cur)

		next := -1
		for _, d := range deps[cur] {
			if pending[d] > 0 && (next < 0 || d < next) {
				next = d
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
