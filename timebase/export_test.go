package timebase

// Disarm forgets the armed counter so tests can arm a fresh one.
func Disarm() {
	armMu.Lock()
	defer armMu.Unlock()
	armed = nil
}
