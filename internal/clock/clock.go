// Package clock holds the single monotonic T-cycle counter every
// subsystem advances against.
package clock

// Clock is a monotonically increasing T-cycle counter, reset at every
// frame boundary. T-cycles run at 4.194304 MHz in single-speed mode and
// 8.388608 MHz in CGB double-speed mode; Clock itself is speed-agnostic,
// it just counts ticks of whatever rate the caller feeds it.
type Clock struct {
	t uint64
}

// New returns a Clock starting at 0.
func New() *Clock { return &Clock{} }

// Now returns the current T-cycle count.
func (c *Clock) Now() uint64 { return c.t }

// Advance moves the clock forward by n T-cycles.
func (c *Clock) Advance(n uint64) { c.t += n }

// ResetFrame rebases the clock to 0, preserving the phase within the
// current frame so subsystems mid-scanline are not perturbed.
func (c *Clock) ResetFrame(frameLen uint64) {
	if frameLen == 0 {
		c.t = 0
		return
	}
	c.t %= frameLen
}
