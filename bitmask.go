package borrowecs

// bitmask256 is a set of up to 256 component IDs. Entities keep one to
// describe which components they currently hold, and queries build include
// and exclude masks so iteration can skip entities without touching a cell.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component ID.
func (m *bitmask256) set(id ComponentID) {
	m[id>>6] |= uint64(1) << uint64(id&63)
}

// unset disables the bit corresponding to the given component ID.
func (m *bitmask256) unset(id ComponentID) {
	m[id>>6] &^= uint64(1) << uint64(id&63)
}

// has reports whether the bit for id is set.
func (m bitmask256) has(id ComponentID) bool {
	return m[id>>6]&(uint64(1)<<uint64(id&63)) != 0
}

// contains checks if all the bits set in sub are also set in m.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// intersects checks if m has any bit in common with other.
func (m bitmask256) intersects(other bitmask256) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}
