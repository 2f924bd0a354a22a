package credential

import "os"

// Gate reports whether the operator has supplied a cookie bundle for
// authenticated extraction. The file is stat'd on every call: the
// operator may create or refresh it at any time while the service is
// running, so the answer is never cached.
type Gate struct {
	path string
}

// NewGate creates a Gate over the given cookie file path.
func NewGate(path string) *Gate {
	return &Gate{path: path}
}

// FilePath returns the configured cookie file path.
func (g *Gate) FilePath() string {
	return g.path
}

// Authenticated returns true iff the cookie file exists and is
// non-empty.
func (g *Gate) Authenticated() bool {
	info, err := os.Stat(g.path)
	if err != nil {
		return false
	}
	return info.Size() > 0
}
