package basic

// Loop is an active FOR frame.
type Loop struct {
	Name  string  // Control variable.
	Bound float64 // Inclusive upper bound.
	Body  int     // Index of the first line of the loop body.
}

// findLoop returns the index of the innermost frame for name, or -1.
func findLoop(loops []Loop, name string) int {
	for n := len(loops) - 1; n >= 0; n-- {
		if loops[n].Name == name {
			return n
		}
	}
	return -1
}
