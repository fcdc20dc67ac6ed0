package grid

// Reach runs an 8-connected flood fill restricted to s, starting from the
// seeds that are members of s. It returns the reached keys.
func Reach(s *Set, seeds ...Cell) map[Key]bool {
	seen := make(map[Key]bool, s.Len())
	queue := make([]Cell, 0, len(seeds))
	for _, c := range seeds {
		if s.Has(c) && !seen[c.Key()] {
			seen[c.Key()] = true
			queue = append(queue, c)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range Dirs8 {
			n := c.Add(d)
			k := n.Key()
			if seen[k] || !s.Has(n) {
				continue
			}
			seen[k] = true
			queue = append(queue, n)
		}
	}
	return seen
}

// Connected reports whether every cell of s is 8-reachable from start.
func Connected(s *Set, start Cell) bool {
	if !s.Has(start) {
		return false
	}
	return len(Reach(s, start)) == s.Len()
}

// Components counts 8-connected components of s.
func Components(s *Set) int {
	seen := make(map[Key]bool, s.Len())
	n := 0
	for i := 0; i < s.Len(); i++ {
		c := s.At(i)
		if seen[c.Key()] {
			continue
		}
		n++
		for k := range Reach(s, c) {
			seen[k] = true
		}
	}
	return n
}
