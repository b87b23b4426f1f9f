package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/greyhollow-dev/gbcore/internal/machine"
	"github.com/greyhollow-dev/gbcore/internal/mmu"
	"github.com/greyhollow-dev/gbcore/internal/ppu"
)

// App is the whole ebiten.Game implementation: poll keys, run one
// frame, blit the framebuffer. No menu, no pause overlay, no debug
// HUD - those are all Non-goals.
type App struct {
	m        *machine.Machine
	img      *ebiten.Image
	scale    int
	savePath string
}

func (a *App) Update() error {
	var mask byte
	press := func(k ebiten.Key, bit byte) {
		if ebiten.IsKeyPressed(k) {
			mask |= bit
		}
	}
	press(ebiten.KeyArrowRight, mmu.ButtonRight)
	press(ebiten.KeyArrowLeft, mmu.ButtonLeft)
	press(ebiten.KeyArrowUp, mmu.ButtonUp)
	press(ebiten.KeyArrowDown, mmu.ButtonDown)
	press(ebiten.KeyZ, mmu.ButtonA)
	press(ebiten.KeyX, mmu.ButtonB)
	press(ebiten.KeyEnter, mmu.ButtonStart)
	press(ebiten.KeyShiftRight, mmu.ButtonSelect)
	a.m.SetJoypadState(mask)

	a.m.RunFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.img == nil {
		a.img = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	}
	if a.m.FrameReady() {
		fb := a.m.TakeFrame()
		pix := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4)
		i := 0
		for y := 0; y < ppu.ScreenHeight; y++ {
			for x := 0; x < ppu.ScreenWidth; x++ {
				v := fb[y][x]
				pix[i] = byte(v >> 24)
				pix[i+1] = byte(v >> 16)
				pix[i+2] = byte(v >> 8)
				pix[i+3] = byte(v)
				i += 4
			}
		}
		a.img.WritePixels(pix)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.scale), float64(a.scale))
	screen.DrawImage(a.img, op)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}
