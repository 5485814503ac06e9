package graph

// FindCycle returns the IDs of one dependency cycle in upstream order, or
// nil if the graph is acyclic. It walks inputs depth-first with
// white/gray/black coloring; reaching a gray block closes a cycle.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.blocks))
	var path []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		path = append(path, id)
		for _, in := range g.blocks[id].inputs {
			if in.Source == nil {
				continue
			}
			up := in.Source.Entity
			if _, ok := g.blocks[up]; !ok {
				continue
			}
			switch color[up] {
			case white:
				if dfs(up) {
					return true
				}
			case gray:
				for i, p := range path {
					if p == up {
						cycle = append([]string(nil), path[i:]...)
						break
					}
				}
				return true
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}
