// Package deps reports whether the external programs crchecker runs are
// installed, for the doctor command.
package deps

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	// Optional marks a missing dependency that does not block verification.
	Optional  bool
	Available bool
	Detail    string
}
