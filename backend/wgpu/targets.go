package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// sampleCount is the MSAA sample count for the chart color target.
const sampleCount = 4

// renderTargets holds the offscreen MSAA color texture and its
// single-sample resolve target. The resolve texture carries CopySrc
// so ReadPixels can copy it into a staging buffer.
type renderTargets struct {
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	width       uint32
	height      uint32
}

// ensure creates or recreates targets when dimensions change.
// Matching dimensions are a no-op.
func (rt *renderTargets) ensure(device hal.Device, w, h uint32) error {
	if rt.width == w && rt.height == h && rt.msaaTex != nil {
		return nil
	}
	rt.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "chart_msaa_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create MSAA color texture: %w", err)
	}
	rt.msaaTex = msaaTex

	msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label: "chart_msaa_color_view",
	})
	if err != nil {
		rt.destroy(device)
		return fmt.Errorf("wgpu: create MSAA color view: %w", err)
	}
	rt.msaaView = msaaView

	resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "chart_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		rt.destroy(device)
		return fmt.Errorf("wgpu: create resolve texture: %w", err)
	}
	rt.resolveTex = resolveTex

	resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label: "chart_resolve_view",
	})
	if err != nil {
		rt.destroy(device)
		return fmt.Errorf("wgpu: create resolve view: %w", err)
	}
	rt.resolveView = resolveView

	rt.width = w
	rt.height = h
	return nil
}

// destroy releases all target resources and resets dimensions.
func (rt *renderTargets) destroy(device hal.Device) {
	if device == nil {
		return
	}
	if rt.resolveView != nil {
		device.DestroyTextureView(rt.resolveView)
		rt.resolveView = nil
	}
	if rt.resolveTex != nil {
		device.DestroyTexture(rt.resolveTex)
		rt.resolveTex = nil
	}
	if rt.msaaView != nil {
		device.DestroyTextureView(rt.msaaView)
		rt.msaaView = nil
	}
	if rt.msaaTex != nil {
		device.DestroyTexture(rt.msaaTex)
		rt.msaaTex = nil
	}
	rt.width = 0
	rt.height = 0
}
