package store

// dictionary interns the distinct string values of one column.
//
// Codes are dense in [0, size) and never reused; the per-row array of a
// string column stores codes, not characters. Two appends of an equal string
// receive the same code.
type dictionary struct {
	codes  map[string]uint32
	values []string
}

func newDictionary() *dictionary {
	return &dictionary{
		codes: make(map[string]uint32),
	}
}

// intern returns the code for s, assigning the next dense code on first use.
func (d *dictionary) intern(s string) uint32 {
	if code, ok := d.codes[s]; ok {
		return code
	}
	code := uint32(len(d.values))
	d.codes[s] = code
	d.values = grow(d.values, 1)
	d.values = append(d.values, s)
	return code
}

// lookup returns the code for s without assigning one.
func (d *dictionary) lookup(s string) (uint32, bool) {
	code, ok := d.codes[s]
	return code, ok
}

// value returns the string for a previously assigned code.
func (d *dictionary) value(code uint32) string {
	return d.values[code]
}

// size returns the number of distinct strings interned so far.
func (d *dictionary) size() int {
	return len(d.values)
}
