// Package forge is a narrow, read-only view of a hosted pull-request
// state used by log/info rendering: whether a branch has an open PR,
// its number, URL, and CI status. The teacher's internal/github package
// also created and mutated PRs (CreatePR, UpdatePR, UpdatePRBase); this
// program's core only ever displays forge state, so the interface here
// keeps just the read side of ClientInterface. Submitting/updating PRs
// is left to an external collaborator (spec section 1's scope
// boundary), which can implement this same Reader against a real API.
package forge

// PRState is the forge's view of one branch's pull request.
type PRState struct {
	Number  int
	URL     string
	Title   string
	Base    string
	State   string // "open", "closed", "merged"
	Checks  CheckStatus
}

// CheckStatus is the aggregate CI status for a PR.
type CheckStatus struct {
	State   string // "pending", "success", "failure"
	Summary string
}

// Reader is what the core consumes to annotate stack listings with PR
// info. A nil Reader is valid: commands that take one treat it as "no
// forge configured" and render without PR columns.
type Reader interface {
	// PRForBranch returns the PR for branch, or (nil, nil) if none
	// exists.
	PRForBranch(branch string) (*PRState, error)
}

// MockReader is an in-memory Reader for tests, grounded on the
// teacher's MockClient call-tracking pattern.
type MockReader struct {
	ByBranch map[string]*PRState
	Calls    []string
	Err      error
}

// NewMockReader builds an empty MockReader.
func NewMockReader() *MockReader {
	return &MockReader{ByBranch: map[string]*PRState{}}
}

// PRForBranch implements Reader.
func (m *MockReader) PRForBranch(branch string) (*PRState, error) {
	m.Calls = append(m.Calls, branch)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByBranch[branch], nil
}

var _ Reader = (*MockReader)(nil)
