package taint

// numArgSlots is the number of argument-channel slots (spec §4.2.3: "Flat
// arrays of 16 argument slots plus 1 return slot").
const numArgSlots = 16

// Channel is the per-call-frame argument and return taint channel. It is a
// flat array, not a stack: the spec is explicit that there is no stacking,
// and that the clear-on-read discipline is the only thing preventing
// taint from one call leaking into an unrelated one (spec §5).
type Channel struct {
	args [numArgSlots]Label
	ret  Label
}

// NewChannel returns a channel with every slot untainted.
func NewChannel() *Channel { return &Channel{} }

// StoreArg writes the taint of argument i. i is not bounds-checked beyond
// a panic on out-of-range access: a well-formed instrumented call never
// passes more than numArgSlots arguments through the channel, and an
// out-of-range index is a rewriter bug, not a runtime condition to handle
// gracefully (spec §7: rewriter/runtime errors are limited to
// construction-time bugs).
func (c *Channel) StoreArg(i int, t Label) {
	c.args[i] = t
}

// LoadArg reads and clears the taint of argument i.
func (c *Channel) LoadArg(i int) Label {
	t := c.args[i]
	c.args[i] = Sentinel
	return t
}

// StoreRet clears the argument array and writes the return slot.
func (c *Channel) StoreRet(t Label) {
	c.args = [numArgSlots]Label{}
	c.ret = t
}

// LoadRet clears the argument array and consumes (clears) the return slot.
func (c *Channel) LoadRet() Label {
	c.args = [numArgSlots]Label{}
	t := c.ret
	c.ret = Sentinel
	return t
}
