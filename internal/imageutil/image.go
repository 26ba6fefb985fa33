// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package imageutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

var errNotDataURL = errors.New("imageutil: not a data URL")

// BytesToURL converts image bytes to a data URL.
func BytesToURL(mimeType string, b []byte) string {
	if len(b) > 0 {
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b)
	}
	return ""
}

// URLToBytes decodes a data URL into its MIME type and raw bytes.
func URLToBytes(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNotDataURL
	}
	mimeType, _, _ := strings.Cut(meta, ";")
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("imageutil: decoding data URL payload: %w", err)
	}
	return mimeType, b, nil
}

// Downscale bounds an image to maxEdge pixels on its longest edge and
// re-encodes it as JPEG, returning a data URL. Images already within the
// bound are still re-encoded to keep payload sizes predictable.
func Downscale(dataURL string, maxEdge int) (string, error) {
	_, b, err := URLToBytes(dataURL)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("imageutil: decoding image: %w", err)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > maxEdge || h > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(70)); err != nil {
		return "", fmt.Errorf("imageutil: encoding image: %w", err)
	}
	return BytesToURL("image/jpeg", buf.Bytes()), nil
}
