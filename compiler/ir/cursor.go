package ir

type (
	// Cursor iterates block instructions in definition order.
	// The successor is captured before the current instruction is
	// handed out, so erasing the current instruction does not break
	// the iteration. Erasing an instruction ahead of the cursor
	// requires Seek to a still-linked position.
	Cursor struct {
		next *Instr
	}
)

func (b *Block) Cursor() Cursor {
	return Cursor{next: b.first}
}

// Next returns the current instruction and advances. nil at the end.
func (c *Cursor) Next() *Instr {
	x := c.next
	if x != nil {
		c.next = x.next
	}

	return x
}

// Peek returns the n-th instruction after the current one without
// advancing. Peek(1) is the instruction Next would return.
func (c *Cursor) Peek(n int) *Instr {
	x := c.next

	for ; n > 1 && x != nil; n-- {
		x = x.next
	}

	return x
}

// Seek resumes iteration from x. Seek(nil) ends it.
func (c *Cursor) Seek(x *Instr) {
	c.next = x
}
