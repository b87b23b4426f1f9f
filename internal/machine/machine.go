// Package machine wires the CPU, MMU, PPU, APU, timer, serial port
// and DMA engines into one cooperatively-scheduled console (§5) and
// exposes the host collaborator surface (§6): boot ROM loading, .sav
// persistence, debug diagnostics and audio sample delivery.
package machine

import (
	"fmt"

	"github.com/greyhollow-dev/gbcore/internal/apu"
	"github.com/greyhollow-dev/gbcore/internal/cart"
	"github.com/greyhollow-dev/gbcore/internal/clock"
	"github.com/greyhollow-dev/gbcore/internal/cpu"
	"github.com/greyhollow-dev/gbcore/internal/dma"
	"github.com/greyhollow-dev/gbcore/internal/interrupt"
	"github.com/greyhollow-dev/gbcore/internal/mmu"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
	"github.com/greyhollow-dev/gbcore/internal/serial"
	"github.com/greyhollow-dev/gbcore/internal/timer"
)

const cyclesPerFrame = 70224

// Machine owns every subsystem and drives them through RunFor per the
// single-threaded cooperative scheduler of §5.
type Machine struct {
	cfg    Config
	cgb    bool
	header *cart.Header

	cart   cart.Cartridge
	cpu    *cpu.CPU
	mmu    *mmu.MMU
	ppu    *ppu.PPU
	apu    *apu.APU
	timer  *timer.Timer
	serial *serial.Port
	oamDMA *dma.OAM
	hdma   *dma.HDMA
	irq    *interrupt.Controller
	clock  *clock.Clock

	bios       BIOSLoader
	saveLoader SaveLoader
	saver      Saver
	logger     Logger

	saveName string
}

// New constructs a Machine for the given configuration. Host
// collaborators are wired in afterward via the Set* methods; all are
// optional except that a cartridge must be loaded before RunFor.
func New(cfg Config) *Machine {
	m := &Machine{cfg: cfg, cgb: cfg.Model.cgb()}
	m.irq = &interrupt.Controller{}
	m.clock = clock.New()
	m.timer = timer.New(m.irq)
	m.serial = serial.New(m.irq)
	m.serial.SetModel(m.cgb, false)
	m.ppu = ppu.New(m.irq, m.cgb)
	m.ppu.SetAGBMode(cfg.Model == AGB)
	m.apu = apu.New(48000)

	m.mmu = mmu.New(m.cgb)
	src := mmu.DMASource{M: m.mmu}
	m.oamDMA = dma.New(src, m.ppu)
	m.hdma = dma.NewHDMA(src, m.ppu)
	m.mmu.Init(newNullCart(), m.ppu, m.timer, m.serial, m.oamDMA, m.hdma, m.irq)

	m.ppu.SetHBlankHook(func() { m.hdma.AdvanceHBlank() })
	m.ppu.SetVBlankHook(func() {})

	m.cpu = cpu.New(cpuBus{m.mmu, m.apu}, m.irq, m.mmu, logAdapter{m})
	return m
}

// cpuBus intercepts the NR10-NR52/wave-RAM window (FF10-FF3F) for the
// APU before falling through to the MMU, matching the comment MMU
// leaves at that address range.
type cpuBus struct {
	m *mmu.MMU
	a *apu.APU
}

func (b cpuBus) Read(addr uint16) byte {
	if addr >= 0xFF10 && addr <= 0xFF3F {
		return b.a.CPURead(addr)
	}
	return b.m.Read(addr)
}

func (b cpuBus) Write(addr uint16, v byte) {
	if addr >= 0xFF10 && addr <= 0xFF3F {
		b.a.CPUWrite(addr, v)
		return
	}
	b.m.Write(addr, v)
}

type logAdapter struct{ m *Machine }

func (l logAdapter) Printf(format string, args ...interface{}) {
	if l.m.logger == nil {
		return
	}
	l.m.logger.Log(LogError, fmt.Sprintf(format, args...))
}

func (m *Machine) SetBIOSLoader(b BIOSLoader)     { m.bios = b }
func (m *Machine) SetSaveLoader(s SaveLoader)     { m.saveLoader = s }
func (m *Machine) SetSaver(s Saver)               { m.saver = s }
func (m *Machine) SetLogger(l Logger)             { m.logger = l }
func (m *Machine) SetAudioSink(sink AudioSink)    { m.apu.SetSink(sink) }
func (m *Machine) SetSerialSink(sink serial.Sink) { m.serial.SetSink(sink) }
func (m *Machine) SetJoypadState(mask byte)       { m.mmu.SetJoypadState(mask) }

// Header returns the parsed cartridge header, or nil before load.
func (m *Machine) Header() *cart.Header { return m.header }

func (m *Machine) log(kind ErrorKind, text string) {
	if m.logger == nil {
		return
	}
	level := LogWarn
	if kind == UndefinedOpcode {
		level = LogError
	}
	m.logger.Log(level, kind.String()+": "+text)
}

// LoadCartridge parses the ROM header, validates its declared size,
// constructs the matching MBC, and (for battery-backed carts) restores
// its .sav via the SaveLoader. Fatal kinds (§7) are returned as a
// *LoadError and leave the Machine unusable until a subsequent call
// succeeds; warnings are logged and loading proceeds.
func (m *Machine) LoadCartridge(name string, rom []byte) error {
	header, err := cart.ParseHeader(rom)
	if err != nil {
		return &LoadError{Kind: FileSizeMismatch, Err: err}
	}
	wantSize := header.ROMBanks * 16 * 1024
	if wantSize > 0 && len(rom) < wantSize {
		return &LoadError{Kind: FileSizeMismatch, Err: fmt.Errorf("rom is %d bytes, header declares %d", len(rom), wantSize)}
	}

	c, err := cart.New(rom, header)
	if err != nil {
		switch err.(type) {
		case cart.ErrUnsupportedMapper:
			return &LoadError{Kind: UnsupportedMapper, Err: err}
		case cart.ErrUnsupportedRamSize:
			return &LoadError{Kind: UnsupportedRamSize, Err: err}
		default:
			return &LoadError{Kind: UnsupportedMapper, Err: err}
		}
	}

	if !header.HeaderChecksumOK {
		m.log(ChecksumMismatch, "header checksum does not match computed value")
	}
	if !header.LogoOK {
		m.log(LogoMismatch, "Nintendo logo bytes do not match the expected pattern")
	}

	m.header = header
	m.cart = c
	m.saveName = name
	m.cgb = m.cfg.Model.cgb() || header.CGB()
	m.mmu.SetCartridge(c)
	m.serial.SetModel(m.cgb, false)

	if c.HasBattery() {
		if m.saveLoader != nil {
			if data, ok := m.saveLoader.LoadSave(name); ok {
				if err := cart.DecodeSave(c, data, header.RAMSizeBytes); err != nil {
					m.log(RtcIoError, err.Error())
				}
			}
		}
	}

	m.loadBootROMIfAvailable()
	m.Reset()
	return nil
}

func (m *Machine) loadBootROMIfAvailable() {
	if m.bios == nil {
		return
	}
	kind := "dmg"
	switch m.cfg.Model {
	case MGB:
		kind = "mgb"
	case SGB:
		kind = "sgb"
	case SGB2:
		kind = "sgb2"
	case CGB:
		kind = "cgb"
	case AGB:
		kind = "agb"
	}
	if data, ok := m.bios.LoadBIOS(kind); ok && len(data) > 0 {
		m.mmu.SetBootROM(data)
		return
	}
	m.mmu.SetBootROM(nil)
}

// Reset restores post-boot register state across every subsystem
// without reloading the cartridge, as if the console's reset line had
// been pulsed.
func (m *Machine) Reset() {
	m.irq.Reset()
	m.timer.Reset()
	m.serial.Reset()
	m.oamDMA.Reset()
	m.hdma.Reset()
	m.ppu.Reset()
	m.clock.Advance(0)
	if m.mmu.BootROMActive() {
		m.cpu.ResetForBoot()
	} else {
		m.cpu.ResetNoBoot(m.registerProfile())
	}
}

// registerProfile picks the post-boot register file for m.cfg.Model.
// SGB2Registers (§9) only distinguishes SGB1 from SGB2 registers when
// Model is SGB2 itself; SGB always uses its own SGB1 file regardless.
func (m *Machine) registerProfile() cpu.RegisterProfile {
	switch m.cfg.Model {
	case MGB:
		return cpu.ProfileMGB
	case SGB:
		return cpu.ProfileSGB
	case SGB2:
		if m.cfg.SGB2Registers {
			return cpu.ProfileSGB2
		}
		return cpu.ProfileSGB
	case CGB:
		return cpu.ProfileCGB
	case AGB:
		return cpu.ProfileAGB
	default:
		return cpu.ProfileDMG
	}
}

// RunFor advances the machine by at least clocks T-cycles, returning
// the number of cycles actually consumed (always >= clocks, since the
// final step may overshoot by up to one instruction).
func (m *Machine) RunFor(clocks int) int {
	consumed := 0
	for consumed < clocks {
		step := m.cpu.Step()
		step += m.mmu.TakeGDMAStall()
		m.advanceSubsystems(step)
		consumed += step
	}
	return consumed
}

// advanceSubsystems catches every peripheral up to the cycles the CPU
// step just consumed. Timer, serial and the GDMA-blocking cost run off
// the system clock (doubled in CGB double-speed mode, same as the
// CPU); the PPU, OAM DMA and APU run off the fixed video/audio
// oscillator and so only see half as many ticks in double speed.
func (m *Machine) advanceSubsystems(tcycles int) {
	m.clock.Advance(uint64(tcycles))
	m.timer.Advance(tcycles)
	m.serial.Advance(tcycles)
	m.cart.Advance(tcycles)

	realTime := tcycles
	if m.mmu.DoubleSpeed() {
		realTime = tcycles / 2
		if tcycles%2 != 0 {
			realTime++
		}
	}
	m.ppu.Advance(realTime)
	m.oamDMA.Advance(realTime)
	m.apu.Advance(realTime)
}

// RunFrame runs one 70,224-cycle frame (§2) and rebases the clock at
// the frame boundary, returning the cycles consumed the way RunFor does.
func (m *Machine) RunFrame() int {
	n := m.RunFor(cyclesPerFrame)
	m.clock.ResetFrame(cyclesPerFrame)
	return n
}

// FrameReady reports whether a full frame has been rendered since the
// last TakeFrame.
func (m *Machine) FrameReady() bool { return m.ppu.FrameReady() }

// TakeFrame returns the completed frame buffer as packed RGBA8888.
func (m *Machine) TakeFrame() [ppu.ScreenHeight][ppu.ScreenWidth]uint32 {
	return m.ppu.TakeFrame()
}

// PullAudio drains buffered stereo samples when no AudioSink push
// collaborator was installed.
func (m *Machine) PullAudio(max int) []int16 { return m.apu.PullStereo(max) }

// SaveCartridge serializes RAM/RTC via the .sav layout (§6) and hands
// it to the Saver, if the loaded cart is battery-backed.
func (m *Machine) SaveCartridge() error {
	if m.cart == nil || !m.cart.HasBattery() || m.saver == nil {
		return nil
	}
	data := cart.EncodeSave(m.cart)
	return m.saver.SaveSave(m.saveName, data)
}
