package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var iconOnce sync.Once
var iconData []byte

// getIcon renders the tray icon: a 16x16 speaker glyph packed as a
// PNG-in-ICO, which Windows accepts from Vista on.
func getIcon() []byte {
	iconOnce.Do(func() {
		iconData = buildIcon()
	})
	return iconData
}

func buildIcon() []byte {
	const size = 16
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	blue := color.RGBA{0x00, 0x78, 0xD4, 0xFF}
	grey := color.RGBA{0x33, 0x33, 0x33, 0xFF}

	// Speaker body
	for y := 5; y <= 10; y++ {
		for x := 2; x <= 4; x++ {
			img.Set(x, y, blue)
		}
	}
	// Speaker cone
	for i := 0; i <= 3; i++ {
		for y := 5 - i; y <= 10+i; y++ {
			img.Set(5+i, y, blue)
		}
	}
	// Sound waves
	for _, p := range [][2]int{{11, 5}, {12, 6}, {12, 7}, {12, 8}, {12, 9}, {11, 10}, {13, 3}, {14, 4}, {14, 5}, {14, 6}, {14, 7}, {14, 8}, {14, 9}, {14, 10}, {14, 11}, {13, 12}} {
		img.Set(p[0], p[1], grey)
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil
	}
	pngBytes := pngBuf.Bytes()

	// ICONDIR + one ICONDIRENTRY, image data appended at offset 22.
	var ico bytes.Buffer
	binary.Write(&ico, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&ico, binary.LittleEndian, uint16(1)) // type: icon
	binary.Write(&ico, binary.LittleEndian, uint16(1)) // image count
	ico.Write([]byte{size, size, 0, 0})                // dimensions, palette, reserved
	binary.Write(&ico, binary.LittleEndian, uint16(1)) // color planes
	binary.Write(&ico, binary.LittleEndian, uint16(32))
	binary.Write(&ico, binary.LittleEndian, uint32(len(pngBytes)))
	binary.Write(&ico, binary.LittleEndian, uint32(22))
	ico.Write(pngBytes)
	return ico.Bytes()
}
