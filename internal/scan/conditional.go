package scan

// Branch is the state of one \if block.
type Branch int

const (
	// BranchNone means no \if is open.
	BranchNone Branch = iota
	// BranchTrue means the current branch is active.
	BranchTrue
	// BranchFalse means no branch has been taken yet; the current one is inactive.
	BranchFalse
	// BranchIgnored means the whole block sits inside an inactive branch, or a branch was already taken.
	BranchIgnored
	// BranchElseTrue means the \else branch is active.
	BranchElseTrue
	// BranchElseFalse means the \else branch is inactive.
	BranchElseFalse
)

// String returns the branch name used in debug logs.
func (b Branch) String() string {
	switch b {
	case BranchTrue:
		return "true"
	case BranchFalse:
		return "false"
	case BranchIgnored:
		return "ignored"
	case BranchElseTrue:
		return "else-true"
	case BranchElseFalse:
		return "else-false"
	default:
		return "none"
	}
}

// ConditionalStack tracks nested \if blocks.
type ConditionalStack struct {
	branches []Branch
}

// NewConditionalStack returns an empty stack.
func NewConditionalStack() *ConditionalStack {
	return &ConditionalStack{}
}

// Push opens a block in state b.
func (c *ConditionalStack) Push(b Branch) {
	c.branches = append(c.branches, b)
}

// Pop closes the innermost block. It returns false if no block is open.
func (c *ConditionalStack) Pop() bool {
	if len(c.branches) == 0 {
		return false
	}
	c.branches = c.branches[:len(c.branches)-1]
	return true
}

// Peek returns the state of the innermost block, or BranchNone.
func (c *ConditionalStack) Peek() Branch {
	if len(c.branches) == 0 {
		return BranchNone
	}
	return c.branches[len(c.branches)-1]
}

// Poke replaces the state of the innermost block. It returns false if no block is open.
func (c *ConditionalStack) Poke(b Branch) bool {
	if len(c.branches) == 0 {
		return false
	}
	c.branches[len(c.branches)-1] = b
	return true
}

// Empty reports whether no block is open.
func (c *ConditionalStack) Empty() bool {
	return len(c.branches) == 0
}

// Depth returns the number of open blocks.
func (c *ConditionalStack) Depth() int {
	return len(c.branches)
}

// Active reports whether input at the current position should be executed.
func (c *ConditionalStack) Active() bool {
	switch c.Peek() {
	case BranchNone, BranchTrue, BranchElseTrue:
		return true
	default:
		return false
	}
}
