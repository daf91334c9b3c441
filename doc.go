/*
Package smartbrush paints an edit mask over a listing photo and submits it,
together with a natural language instruction, to the smart edit compose service.

The painter keeps three buffers at display size: the resized photo, a single
channel mask whose value is the accumulated brush strength, and the composited
canvas shown to the user with the mask tinted over the photo. The mask is
exported as a grayscale png, white where the edit should happen.

The package provides a command line interface which can replay stroke scripts,
mask detected faces, open the brush editor and submit the edit.
To check the supported commands type:

	$ smartbrush --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"fmt"
		"net/http"

		"github.com/esimov/smartbrush"
		"github.com/esimov/smartbrush/compose"
	)

	func main() {
		p := smartbrush.NewPainter()
		if err := p.SetSource("gs://listing/room.jpg", img); err != nil {
			// handle error
		}
		p.PointerDown(smartbrush.Pt(320, 240))
		p.PointerMove(smartbrush.Pt(360, 240))
		p.PointerUp()

		s := smartbrush.NewSession(p, orgID)
		res, err := s.Submit(context.Background(), compose.NewClient(apiBase, http.DefaultClient), "remove the boxes")
		if err != nil {
			fmt.Printf("Error composing the edit: %s", err.Error())
		}
		fmt.Println(res.ImageURL)
	}
*/
package smartbrush
