package xlsx

import "unsafe"

// arena copies many small strings into shared slabs so that parsed values
// do not pin the much larger part text they were cut from.
type arena struct {
	alloc []byte
}

func (a *arena) toString(s string) string {
	n := len(s)
	if n == 0 {
		return ""
	}
	data := a.take(n)
	copy(data, s)
	return unsafe.String(&data[0], n)
}

// concat joins parts into a single arena-backed string.
func (a *arena) concat(parts []string) string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n == 0 {
		return ""
	}
	data := a.take(n)
	pos := 0
	for _, p := range parts {
		pos += copy(data[pos:], p)
	}
	return unsafe.String(&data[0], n)
}

func (a *arena) take(n int) []byte {
	if cap(a.alloc)-len(a.alloc) < n {
		a.reserve(n)
	}
	pos := len(a.alloc)
	data := a.alloc[pos : pos+n : pos+n]
	a.alloc = a.alloc[:pos+n]
	return data
}

func (a *arena) reserve(n int) {
	a.alloc = make([]byte, 0, max(16*1024, n))
}
