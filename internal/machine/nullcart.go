package machine

import "github.com/greyhollow-dev/gbcore/internal/cart"

// nullCart satisfies cart.Cartridge as a placeholder before the first
// LoadCartridge call; every address reads open-bus 0xFF.
type nullCart struct{}

func newNullCart() cart.Cartridge { return nullCart{} }

func (nullCart) Read(uint16) byte       { return 0xFF }
func (nullCart) Write(uint16, byte)     {}
func (nullCart) HasBattery() bool       { return false }
func (nullCart) RAM() []byte            { return nil }
func (nullCart) LoadRAM([]byte)         {}
func (nullCart) RTC() *cart.RTCState    { return nil }
func (nullCart) LoadRTC(*cart.RTCState) {}
func (nullCart) Advance(int)            {}
func (nullCart) SaveState() []byte      { return nil }
func (nullCart) LoadState([]byte)       {}
