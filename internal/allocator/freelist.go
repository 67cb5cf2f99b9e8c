package allocator

// numClasses is K, the count of segregated free lists: four exact
// classes (16, 32, 48, 64) plus ten range classes up to the catch-all
// top class.
const numClasses = 14

// classTop is the index of the unbounded top class, (4096, inf).
const classTop = numClasses - 1

// classBounds[i] is the inclusive upper bound of class i's size range;
// classBounds[0..3] double as the exact classes' single admissible
// size. classBounds[classTop] is unused (the top class has no upper
// bound).
var classBounds = [numClasses]uintptr{
	16, 32, 48, 64,
	128, 192, 256, 384, 512, 1024, 1536, 2048, 4096,
	0,
}

// classLookup is the 256-entry O(1) lookup table from (size>>4)&0xFF to
// class index, covering every 16-byte-aligned size from 0 up to 4080
// bytes (the largest size representable in an 8-bit shifted index).
// classOf adds one branch to fold in sizes above that, including the
// 4096 boundary that would otherwise alias back to index 0.
var classLookup [256]int

func init() {
	for i := range classLookup {
		classLookup[i] = classifySlow(uintptr(i) * 16)
	}
}

// classifySlow computes a class index by linear scan of classBounds; it
// is only ever called to build classLookup.
func classifySlow(size uintptr) int {
	for i := 0; i < classTop; i++ {
		if size <= classBounds[i] {
			return i
		}
	}

	return classTop
}

// classOf maps a rounded, 16-byte-aligned request size to its size
// class in O(1).
func classOf(size uintptr) int {
	if size > 4080 {
		if size <= 4096 {
			return classTop - 1
		}

		return classTop
	}

	return classLookup[(size>>4)&0xFF]
}

// isExactClass reports whether class i holds blocks of exactly one
// size (the 16/32/48/64 classes) rather than a range.
func isExactClass(class int) bool { return class < 4 }

// freeList is one segregated class's head. Its sentinel lives outside
// the arena, as this Go struct rather than as in-arena state, so
// insertion and removal never special-case the head; the "non-empty"
// hint may be stale-true but must never be stale-false.
type freeList struct {
	head     uintptr
	nonEmpty bool
}

func newFreeList() freeList { return freeList{head: nilAddr} }

// pushFront inserts node at the head of class's doubly-linked list in
// O(1). Used by every class except the cluster list on class 0, which
// uses pushSingle instead.
func (h *Heap) pushFront(class int, node uintptr) {
	fl := &h.classes[class]

	h.setNext(node, fl.head)
	h.setPrev(node, nilAddr)

	if fl.head != nilAddr {
		h.setPrev(fl.head, node)
	}

	fl.head = node
	fl.nonEmpty = true
}

// pushSingle inserts node at the head of class's list touching only the
// forward link, for the class-16 cluster list where the "prev" word is
// repurposed as the cluster's occupancy bitmap.
func (h *Heap) pushSingle(class int, node uintptr) {
	fl := &h.classes[class]

	h.setNext(node, fl.head)
	fl.head = node
	fl.nonEmpty = true
}

// remove detaches node from class's doubly-linked list in O(1).
// Precondition: node is currently on class's list (undefined behavior
// otherwise).
func (h *Heap) remove(class int, node uintptr) {
	fl := &h.classes[class]

	next := h.getNext(node)
	prev := h.getPrev(node)

	if prev != nilAddr {
		h.setNext(prev, next)
	} else {
		fl.head = next
	}

	if next != nilAddr {
		h.setPrev(next, prev)
	}

	fl.nonEmpty = fl.head != nilAddr
}

// removeSingle detaches node from a singly-linked (cluster) list,
// scanning from the head since no prev link is available. O(n) in the
// list length, the accepted cost of reusing the prev word for the
// occupancy bitmap.
func (h *Heap) removeSingle(class int, node uintptr) {
	fl := &h.classes[class]

	if fl.head == node {
		fl.head = h.getNext(node)
		fl.nonEmpty = fl.head != nilAddr

		return
	}

	for cur := fl.head; cur != nilAddr; cur = h.getNext(cur) {
		next := h.getNext(cur)
		if next == node {
			h.setNext(cur, h.getNext(node))
			return
		}
	}
}

// popFront removes and returns the head of class's list. Precondition:
// the list is non-empty.
func (h *Heap) popFront(class int) uintptr {
	fl := &h.classes[class]
	node := fl.head
	h.remove(class, node)

	return node
}

// iterate calls visit for every node on class's list, in list order,
// until visit returns false or the list is exhausted.
func (h *Heap) iterate(class int, visit func(node uintptr) bool) {
	for cur := h.classes[class].head; cur != nilAddr; cur = h.getNext(cur) {
		if !visit(cur) {
			return
		}
	}
}
