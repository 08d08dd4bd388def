// campusvoice/models/tree.go
package models

// BuildReplyForest turns a flat reply list into trees. Children keep the
// order they had in the input. Replies whose parent is missing from the list
// become roots, and a reply sitting on a parent cycle is promoted to a root
// where the cycle is first entered, so every reply appears exactly once.
func BuildReplyForest(replies []Reply) []*ReplyNode {
	nodes := make([]*ReplyNode, len(replies))
	index := make(map[int64]int, len(replies))
	for i := range replies {
		nodes[i] = &ReplyNode{Reply: replies[i], Children: []*ReplyNode{}}
		index[replies[i].ID] = i
	}

	children := make(map[int64][]int, len(replies))
	var roots []int
	for i, r := range replies {
		if r.ParentReplyID == nil {
			roots = append(roots, i)
			continue
		}
		if _, ok := index[*r.ParentReplyID]; !ok {
			roots = append(roots, i)
			continue
		}
		children[*r.ParentReplyID] = append(children[*r.ParentReplyID], i)
	}

	visited := make([]bool, len(replies))
	forest := make([]*ReplyNode, 0, len(roots))

	attach := func(root int) {
		visited[root] = true
		stack := []int{root}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, c := range children[replies[cur].ID] {
				if visited[c] {
					continue
				}
				visited[c] = true
				nodes[cur].Children = append(nodes[cur].Children, nodes[c])
				stack = append(stack, c)
			}
		}
	}

	for _, r := range roots {
		attach(r)
		forest = append(forest, nodes[r])
	}
	// Whatever is left is only reachable through a cycle.
	for i := range replies {
		if !visited[i] {
			attach(i)
			forest = append(forest, nodes[i])
		}
	}
	return forest
}

// CountReplies returns the number of nodes in a forest.
func CountReplies(forest []*ReplyNode) int {
	n := 0
	stack := append([]*ReplyNode(nil), forest...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, cur.Children...)
	}
	return n
}
