package cpu

// State is the opaque register/latch snapshot the machine embeds in
// its overall save-state blob.
type State struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	Halted, HaltBug        bool
	Stopped                bool
}

func (c *CPU) SaveState() State {
	return State{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		SP: c.SP, PC: c.PC,
		Halted: c.halted, HaltBug: c.haltBug, Stopped: c.stopped,
	}
}

func (c *CPU) LoadState(s State) {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L
	c.SP, c.PC = s.SP, s.PC
	c.halted, c.haltBug, c.stopped = s.Halted, s.HaltBug, s.Stopped
}
