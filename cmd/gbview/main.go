// Command gbview is a debug viewer: it runs a ROM against the core and
// renders raw VRAM tile data as grayscale tiles and the raw OAM bytes
// as a grayscale grid, plus the serial test channel as scrolling text. It does not implement the
// pixel-producing PPU pipeline; it exists to make the bus's memory
// state visible while that pipeline is out of scope.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/coreboy/gbcore/gbcore"
)

const (
	tileW, tileH   = 8, 8
	tilesPerRow    = 16
	vramTileCount  = 384 // 0x8000-0x97FF holds 384 8x8 2bpp tiles
	vramRows       = vramTileCount / tilesPerRow
	oamBytesPerRow = 16
	oamRows        = 0xA0 / oamBytesPerRow // OAM is 160 bytes
	screenW        = tilesPerRow * tileW * scale
	screenH        = (vramRows*tileH+oamRows*tileH+serialLines*16+8) * scale
	scale          = 3
	stepsPerUpdate = 20000
	serialLines    = 6
)

// App drives the machine forward each frame and renders its VRAM tile
// data, raw OAM bytes, and recent serial output. It implements
// ebiten.Game.
type App struct {
	m    *gbcore.Machine
	vram *ebiten.Image
	oam  *ebiten.Image
	ser  bytes.Buffer
}

func NewApp(m *gbcore.Machine) *App {
	a := &App{m: m}
	m.SetSerialWriter(&a.ser)
	a.vram = ebiten.NewImage(tilesPerRow*tileW, vramRows*tileH)
	a.oam = ebiten.NewImage(oamBytesPerRow, oamRows)
	return a
}

func (a *App) Update() error {
	for i := 0; i < stepsPerUpdate; i++ {
		a.m.Step()
		if a.m.CPU().Halted() {
			break
		}
	}
	a.renderVRAM()
	a.renderOAM()
	return nil
}

// renderVRAM decodes the 2bpp tile data at 0x8000-0x97FF into a
// grayscale atlas, one tile per 8x8 cell, tilesPerRow tiles wide.
func (a *App) renderVRAM() {
	b := a.m.Bus()
	atlasW := tilesPerRow * tileW
	pix := make([]byte, atlasW*vramRows*tileH*4)

	for tile := 0; tile < vramTileCount; tile++ {
		base := uint16(0x8000 + tile*16)
		tx, ty := (tile%tilesPerRow)*tileW, (tile/tilesPerRow)*tileH
		for row := 0; row < tileH; row++ {
			lo := b.PeekByte(base + uint16(row*2))
			hi := b.PeekByte(base + uint16(row*2+1))
			for col := 0; col < tileW; col++ {
				bit := uint(7 - col)
				shade := (lo>>bit)&1 | ((hi>>bit)&1)<<1
				gray := byte(255 - shade*85)
				px, py := tx+col, ty+row
				idx := (py*atlasW + px) * 4
				pix[idx], pix[idx+1], pix[idx+2], pix[idx+3] = gray, gray, gray, 255
			}
		}
	}
	a.vram.WritePixels(pix)
}

// renderOAM renders the 160 raw OAM bytes (0xFE00-0xFE9F) as a flat
// grayscale grid, one pixel per byte, oamBytesPerRow bytes wide. This
// is not a sprite preview: it is the raw attribute bytes, useful for
// checking that a game has actually written sprite entries.
func (a *App) renderOAM() {
	b := a.m.Bus()
	pix := make([]byte, oamBytesPerRow*oamRows*4)
	for i := 0; i < oamBytesPerRow*oamRows; i++ {
		v := b.PeekByte(uint16(0xFE00 + i))
		idx := i * 4
		pix[idx], pix[idx+1], pix[idx+2], pix[idx+3] = v, v, v, 255
	}
	a.oam.WritePixels(pix)
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 24, 255})

	vramOp := &ebiten.DrawImageOptions{}
	vramOp.GeoM.Scale(scale, scale)
	screen.DrawImage(a.vram, vramOp)

	oamOp := &ebiten.DrawImageOptions{}
	oamScaleX := float64(tilesPerRow*tileW) / float64(oamBytesPerRow)
	oamOp.GeoM.Scale(oamScaleX*scale, scale)
	oamOp.GeoM.Translate(0, float64(vramRows*tileH*scale))
	screen.DrawImage(a.oam, oamOp)

	out := a.ser.String()
	lines := strings.Split(out, "\n")
	if len(lines) > serialLines {
		lines = lines[len(lines)-serialLines:]
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(lines, "\n"), 4, screenH-serialLines*16-4)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return screenW, screenH }

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		boot, err = os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
	}

	m, err := gbcore.New(rom, boot)
	if err != nil {
		log.Fatalf("construct machine: %v", err)
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle(fmt.Sprintf("gbview - %s", *romPath))
	if err := ebiten.RunGame(NewApp(m)); err != nil {
		log.Fatal(err)
	}
}
