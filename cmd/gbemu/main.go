// Command gbemu is a minimal ebiten host: it opens a window, feeds
// keyboard state into the joypad collaborator every frame, blits the
// PPU's framebuffer, and pulls APU samples into an ebiten audio
// player. It implements exactly the §6 collaborator surface and
// nothing else - no menu, no save-state browser, no sprite/tile
// viewer, no SGB border.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/greyhollow-dev/gbcore/internal/machine"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb/.gbc)")
	bootDir := flag.String("bootroms", "", "directory containing dmg_boot.bin, cgb_boot.bin, etc. (optional)")
	model := flag.String("model", "dmg", "dmg, mgb, sgb, sgb2, cgb, or agb")
	scale := flag.Int("scale", 3, "window scale")
	trace := flag.Bool("trace", false, "log undefined-opcode traps and load warnings")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	m := machine.New(machine.Config{Model: parseModel(*model), Trace: *trace})
	m.SetLogger(stderrLogger{trace: *trace})
	if *bootDir != "" {
		m.SetBIOSLoader(dirBIOS{dir: *bootDir})
	}

	savePath := strings.TrimSuffix(*romPath, filepath.Ext(*romPath)) + ".sav"
	fileSave := fileSaveStore{path: savePath}
	m.SetSaveLoader(fileSave)
	m.SetSaver(fileSave)

	if err := m.LoadCartridge(*romPath, rom); err != nil {
		log.Fatalf("load cartridge: %v", err)
	}

	audioCtx := audio.NewContext(48000)
	player, err := audioCtx.NewPlayer(&apuStream{m: m})
	if err != nil {
		log.Fatalf("audio player: %v", err)
	}
	player.SetBufferSize(0)
	player.Play()

	app := &App{m: m, scale: *scale, savePath: savePath}
	ebiten.SetWindowSize(ppu.ScreenWidth**scale, ppu.ScreenHeight**scale)
	ebiten.SetWindowTitle(filepath.Base(*romPath))
	if err := ebiten.RunGame(app); err != nil {
		log.Fatal(err)
	}
	if err := m.SaveCartridge(); err != nil {
		log.Printf("save on exit: %v", err)
	}
}

func parseModel(s string) machine.Model {
	switch strings.ToLower(s) {
	case "mgb":
		return machine.MGB
	case "sgb":
		return machine.SGB
	case "sgb2":
		return machine.SGB2
	case "cgb":
		return machine.CGB
	case "agb":
		return machine.AGB
	default:
		return machine.DMG
	}
}

type stderrLogger struct{ trace bool }

func (l stderrLogger) Log(level machine.LogLevel, text string) {
	if level == machine.LogError || l.trace {
		log.Println(text)
	}
}

type dirBIOS struct{ dir string }

func (d dirBIOS) LoadBIOS(model string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(d.dir, model+"_boot.bin"))
	if err != nil {
		return nil, false
	}
	return data, true
}

type fileSaveStore struct{ path string }

func (f fileSaveStore) LoadSave(string) ([]byte, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f fileSaveStore) SaveSave(_ string, data []byte) error {
	return os.WriteFile(f.path, data, 0o644)
}
