package comfy

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
)

// Source generates depth maps with the bundled ComfyUI workflow.
type Source struct {
	Client *Client
}

// Name identifies the server, so caches keep results of different servers apart.
func (s Source) Name() string {
	return s.Client.BaseURL
}

// Depth uploads the image at path, runs the depth workflow on it and decodes
// the streamed result. ComfyUI applies EXIF orientation on load, so the depth
// map matches the oriented texture.
func (s Source) Depth(ctx context.Context, path string, _ image.Image) (image.Image, error) {
	wf, err := DepthWorkflow()
	if err != nil {
		return nil, err
	}
	uploaded, err := s.Client.Upload(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := wf.SetInputImage(uploaded); err != nil {
		return nil, err
	}
	saveNode, ok := wf.FindNode("SaveImageWebsocket")
	if !ok {
		return nil, fmt.Errorf("workflow has no SaveImageWebsocket node")
	}

	sess, err := s.Client.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	promptID, err := s.Client.Queue(ctx, wf)
	if err != nil {
		return nil, err
	}
	data, err := sess.Wait(ctx, promptID, saveNode)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode depth image: %w", err)
	}
	return img, nil
}
