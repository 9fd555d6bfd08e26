package vptree

// Clone returns a deep copy of t. The copy gets its own Dataset, allocated
// once and shared by every copied node, and its parent links point into the
// copy. Statistics implementing CloneStatistic are deep-copied; other
// statistics are shared with t.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		cfg:        t.cfg,
		logger:     t.logger,
		oldFromNew: cloneInts(t.oldFromNew),
		newFromOld: cloneInts(t.newFromOld),
	}
	if t.IsEmpty() {
		c.root = &Node{bound: emptyBound(t.cfg.Metric)}
		return c
	}

	c.dataset = t.dataset.clone()
	c.root = copyNode(t.root, nil)

	// Retarget in a second pass so that no node is ever left pointing at the
	// source dataset.
	queue := []*Node{c.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		n.dataset = c.dataset
		if n.left != nil {
			queue = append(queue, n.left, n.right)
		}
	}
	return c
}

func copyNode(src, parent *Node) *Node {
	n := &Node{
		parent:                     parent,
		begin:                      src.begin,
		count:                      src.count,
		bound:                      src.bound.clone(),
		stat:                       cloneStatistic(src.stat),
		parentDistance:             src.parentDistance,
		furthestDescendantDistance: src.furthestDescendantDistance,
		firstPointIsCentroid:       src.firstPointIsCentroid,
	}
	if src.left != nil {
		n.left = copyNode(src.left, n)
	}
	if src.right != nil {
		n.right = copyNode(src.right, n)
	}
	return n
}

func cloneStatistic(s Statistic) Statistic {
	if c, ok := s.(statisticCloner); ok {
		return c.CloneStatistic()
	}
	return s
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s...)
}

// Transfer moves t's contents into a new Tree and returns it. Afterwards t is
// empty: its root has no children, no range, no distances and no dataset, and
// every query on it returns ErrEmptyTree.
func (t *Tree) Transfer() *Tree {
	dst := &Tree{
		dataset:    t.dataset,
		oldFromNew: t.oldFromNew,
		newFromOld: t.newFromOld,
		cfg:        t.cfg,
		logger:     t.logger,
	}
	if t.root != nil {
		root := new(Node)
		*root = *t.root
		if root.left != nil {
			root.left.parent = root
		}
		if root.right != nil {
			root.right.parent = root
		}
		dst.root = root
		t.root.release(t.cfg.Metric)
	}

	t.dataset = nil
	t.oldFromNew = nil
	t.newFromOld = nil
	return dst
}

// release empties n in place without touching the nodes or dataset it
// referred to.
func (n *Node) release(metric DistanceMetric) {
	*n = Node{bound: emptyBound(metric)}
}
