//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"syscall/js"
)

func canvasElement() js.Value {
	return js.Global().Get("document").Call("getElementById", "canvas")
}

// decodeFrame decodes a binary frame message.
func decodeFrame(b []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("png.Decode: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// displayImage puts img on the canvas, resizing the canvas if the frame
// size differs.
func displayImage(img *image.RGBA) {
	canvas := canvasElement()
	ctx := canvas.Call("getContext", "2d")

	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if canvas.Get("width").Int() != width || canvas.Get("height").Int() != height {
		canvas.Set("width", width)
		canvas.Set("height", height)
	}

	// The length is width * height * 4 (RGBA)
	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, width, height)
	ctx.Call("putImageData", imageData, 0, 0)
}

// drawSelection outlines the rectangle being selected on top of the last
// frame.
func drawSelection(last *image.RGBA, x0, y0, x1, y1 float64) {
	if last != nil {
		displayImage(last)
	}
	ctx := canvasElement().Call("getContext", "2d")
	ctx.Set("strokeStyle", "#ffffff")
	ctx.Set("lineWidth", 1)
	ctx.Call("strokeRect", x0, y0, x1-x0, y1-y0)
}
