package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Tray icons: a filled disc in the status colour.
var (
	iconData          = discIcon(color.RGBA{0x8e, 0x8e, 0x93, 0xff})
	iconDataConnected = discIcon(color.RGBA{0x34, 0xc7, 0x59, 0xff})
	iconDataReading   = discIcon(color.RGBA{0x0a, 0x84, 0xff, 0xff})
	iconDataError     = discIcon(color.RGBA{0xff, 0x3b, 0x30, 0xff})
	iconDataStopped   = discIcon(color.RGBA{0x63, 0x63, 0x66, 0xff})
)

const iconSize = 22

func discIcon(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize-1) / 2
	radius := float64(iconSize)/2 - 1

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
