package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// preparedDraw is one recorded draw with its per-frame resources.
type preparedDraw struct {
	pipeline   hal.RenderPipeline
	bindGroup  hal.BindGroup
	uniformBuf hal.Buffer
	vertexBuf  hal.Buffer // nil for heatmap
	vertexOff  uint64
	vertCount  uint32
	instCount  uint32
}

func (pd *preparedDraw) destroy(device hal.Device) {
	if pd.bindGroup != nil {
		device.DestroyBindGroup(pd.bindGroup)
	}
	if pd.uniformBuf != nil {
		device.DestroyBuffer(pd.uniformBuf)
	}
}

// Render draws the list in paint order into the offscreen target.
// Draw calls referencing unknown buffers or palettes are skipped with
// a debug log entry; a bad series never blanks the frame.
func (b *Backend) Render(list scichart.DrawList, fu scichart.FrameUniforms) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if fu.Width <= 0 || fu.Height <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidViewport, fu.Width, fu.Height)
	}
	dpr := fu.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	pw := physicalSize(fu.Width, dpr)
	ph := physicalSize(fu.Height, dpr)
	if err := b.targets.ensure(b.device, pw, ph); err != nil {
		return err
	}

	clip := b.clipPixels(fu, pw, ph, dpr)

	draws := make([]*preparedDraw, 0, len(list))
	defer func() {
		for _, pd := range draws {
			pd.destroy(b.device)
		}
	}()
	for i := range list {
		call := &list[i]
		if !call.Visible {
			continue
		}
		prepared, err := b.prepareCall(call, fu, clip, dpr, pw, ph)
		if err != nil {
			// Cleanup already-prepared draws happens in the deferred loop.
			return err
		}
		draws = append(draws, prepared...)
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "chart_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("chart_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	cc := fu.ClearColor
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "chart_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          b.targets.msaaView,
			ResolveTarget: b.targets.resolveView,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    gputypes.Color{R: cc.R * cc.A, G: cc.G * cc.A, B: cc.B * cc.A, A: cc.A},
		}},
	})
	for _, pd := range draws {
		rp.SetPipeline(pd.pipeline)
		rp.SetBindGroup(0, pd.bindGroup, nil)
		if pd.vertexBuf != nil {
			rp.SetVertexBuffer(0, pd.vertexBuf, pd.vertexOff)
		}
		rp.Draw(pd.vertCount, pd.instCount, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("wgpu: wait for frame: ok=%v err=%w", fenceOK, err)
	}

	b.frameRendered = true
	return nil
}

// clipPixels returns the physical-pixel clip rect for the frame.
func (b *Backend) clipPixels(fu scichart.FrameUniforms, pw, ph uint32, dpr float64) [4]float32 {
	if fu.ClipRect == nil {
		return [4]float32{0, 0, float32(pw), float32(ph)}
	}
	r := fu.ClipRect
	return [4]float32{
		float32(r.X * dpr),
		float32(r.Y * dpr),
		float32((r.X + r.W) * dpr),
		float32((r.Y + r.H) * dpr),
	}
}

// prepareCall creates the per-frame resources for one draw call.
// A call may expand to two draws (line + markers). Skipped calls
// return an empty slice and no error.
func (b *Backend) prepareCall(
	call *scichart.DrawCall,
	fu scichart.FrameUniforms,
	clip [4]float32,
	dpr float64,
	pw, ph uint32,
) ([]*preparedDraw, error) {
	if call.Kind == scichart.KindHeatmap {
		pd, err := b.prepareHeatmap(call, fu, clip)
		if err != nil || pd == nil {
			return nil, err
		}
		return []*preparedDraw{pd}, nil
	}

	sb, ok := b.buffers[call.BufferID]
	if !ok {
		scichart.Logger().Debug("skipping draw call: buffer not registered",
			"call", call.ID, "buffer", call.BufferID)
		return nil, nil
	}
	first := uint32(0)
	if call.First > 0 {
		first = uint32(call.First)
	}
	maxPts := uint32(sb.used / 8)
	if first >= maxPts {
		return nil, nil
	}
	count := uint32(call.Count)
	if avail := maxPts - first; count > avail {
		count = avail
	}
	if count == 0 {
		return nil, nil
	}
	vertOff := uint64(first) * 8

	tf := scichart.ComputeTransform(fu.DataBounds, call.YBounds)
	var out []*preparedDraw

	if call.Kind.HasLine() {
		lineBuf, lineCount := sb.buf, count
		if call.Kind == scichart.KindStep || call.Kind == scichart.KindStepScatter {
			if stepSB, ok := b.buffers[call.StepBufferID]; ok && call.StepCount > 0 {
				lineBuf = stepSB.buf
				lineCount = uint32(call.StepCount)
				if maxPts := uint32(stepSB.used / 8); lineCount > maxPts {
					lineCount = maxPts
				}
			}
		}
		pd, err := b.prepareUniformDraw(b.pipelines.line, lineBuf, lineCount, 1,
			tf, call.Style.Color, [4]float32{}, clip)
		if err != nil {
			return out, err
		}
		out = append(out, pd)
	}

	switch call.Kind {
	case scichart.KindBand:
		fill := call.Style.FillColor
		if fill == (scichart.RGBA{}) {
			fill = call.Style.Color
		}
		pd, err := b.prepareUniformDraw(b.pipelines.strip, sb.buf, count, 1,
			tf, fill, [4]float32{}, clip)
		if err != nil {
			return out, err
		}
		out = append(out, pd)

	case scichart.KindTriangles:
		pd, err := b.prepareUniformDraw(b.pipelines.tri, sb.buf, count, 1,
			tf, call.Style.Color, [4]float32{}, clip)
		if err != nil {
			return out, err
		}
		out = append(out, pd)

	case scichart.KindBar:
		if call.Style.BarWidth <= 0 {
			scichart.Logger().Debug("skipping bar call: zero bar width", "call", call.ID)
			return out, nil
		}
		fill := call.Style.FillColor
		if fill == (scichart.RGBA{}) {
			fill = call.Style.Color
		}
		halfClipW := float32(call.Style.BarWidth/2) * tf.ScaleX
		baseline := clampClip(tf.TranslateY) // data y = 0
		params := [4]float32{halfClipW, baseline, 0, 0}
		pd, err := b.prepareUniformDraw(b.pipelines.bar, sb.buf, 6, count,
			tf, fill, params, clip)
		if err != nil {
			return out, err
		}
		out = append(out, pd)
	}

	if call.Kind.HasSymbols() {
		size := call.Style.PointSize
		if size <= 0 {
			size = 6
		}
		params := [4]float32{
			float32(size * dpr / float64(pw)),
			float32(size * dpr / float64(ph)),
			float32(call.Style.Symbol),
			0,
		}
		pd, err := b.prepareUniformDraw(b.pipelines.marker, sb.buf, 6, count,
			tf, call.Style.Color, params, clip)
		if err != nil {
			return out, err
		}
		out = append(out, pd)
	}

	// Batched sub-draws offset the shared vertex buffer; derived step
	// buffers keep their own origin.
	if vertOff > 0 {
		for _, pd := range out {
			if pd.vertexBuf == sb.buf {
				pd.vertexOff = vertOff
			}
		}
	}

	return out, nil
}

// prepareUniformDraw packs the shared uniform, creates the per-frame
// uniform buffer and bind group, and returns the recorded draw.
func (b *Backend) prepareUniformDraw(
	pipeline hal.RenderPipeline,
	vertexBuf hal.Buffer,
	vertCount, instCount uint32,
	tf scichart.Transform,
	color scichart.RGBA,
	params [4]float32,
	clip [4]float32,
) (*preparedDraw, error) {
	uniforms := [16]float32{
		tf.ScaleX, tf.ScaleY, tf.TranslateX, tf.TranslateY,
		float32(color.R), float32(color.G), float32(color.B), float32(color.A),
		params[0], params[1], params[2], params[3],
		clip[0], clip[1], clip[2], clip[3],
	}

	uniformBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chart_draw_uniform",
		Size:  plotUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	b.queue.WriteBuffer(uniformBuf, 0, packFloats(uniforms[:]))

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "chart_draw_bind",
		Layout: b.pipelines.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: plotUniformSize,
			}},
		},
	})
	if err != nil {
		b.device.DestroyBuffer(uniformBuf)
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}

	return &preparedDraw{
		pipeline:   pipeline,
		bindGroup:  bindGroup,
		uniformBuf: uniformBuf,
		vertexBuf:  vertexBuf,
		vertCount:  vertCount,
		instCount:  instCount,
	}, nil
}

// prepareHeatmap builds the heatmap draw: cell values come from the
// series buffer, colors from the registered palette.
func (b *Backend) prepareHeatmap(
	call *scichart.DrawCall,
	fu scichart.FrameUniforms,
	clip [4]float32,
) (*preparedDraw, error) {
	sb, ok := b.buffers[call.BufferID]
	if !ok {
		scichart.Logger().Debug("skipping heatmap: values buffer not registered",
			"call", call.ID, "buffer", call.BufferID)
		return nil, nil
	}
	pb, ok := b.palettes[call.TextureID]
	if !ok {
		scichart.Logger().Debug("skipping heatmap: palette not registered",
			"call", call.ID, "texture", call.TextureID)
		return nil, nil
	}
	if call.HeatmapCols <= 0 || call.HeatmapRows <= 0 {
		return nil, nil
	}

	area := [4]float32{-1, -1, 1, 1}
	if fu.ClipRect != nil {
		r := fu.ClipRect
		area[0] = float32(r.X/fu.Width*2 - 1)
		area[2] = float32((r.X+r.W)/fu.Width*2 - 1)
		// Clip-space y is up; rect y is down from the top.
		area[1] = float32(1 - (r.Y+r.H)/fu.Height*2)
		area[3] = float32(1 - r.Y/fu.Height*2)
	}

	smooth := float32(0)
	if pb.smooth {
		smooth = 1
	}
	uniforms := [16]float32{
		float32(call.HeatmapCols), float32(call.HeatmapRows),
		float32(call.HeatmapMin), float32(call.HeatmapMax),
		float32(pb.texels), smooth, 0, 0,
		clip[0], clip[1], clip[2], clip[3],
		area[0], area[1], area[2], area[3],
	}

	uniformBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "heatmap_uniform",
		Size:  heatUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create heatmap uniform: %w", err)
	}
	b.queue.WriteBuffer(uniformBuf, 0, packFloats(uniforms[:]))

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "heatmap_bind",
		Layout: b.pipelines.heatmapLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: heatUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: sb.buf.NativeHandle(), Offset: 0, Size: sb.size,
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: pb.buf.NativeHandle(), Offset: 0, Size: pb.size,
			}},
		},
	})
	if err != nil {
		b.device.DestroyBuffer(uniformBuf)
		return nil, fmt.Errorf("wgpu: create heatmap bind group: %w", err)
	}

	return &preparedDraw{
		pipeline:   b.pipelines.heatmap,
		bindGroup:  bindGroup,
		uniformBuf: uniformBuf,
		vertCount:  6,
		instCount:  1,
	}, nil
}

func clampClip(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// ReadPixels copies the resolve texture into a staging buffer and
// returns the last frame as tightly packed premultiplied RGBA rows.
func (b *Backend) ReadPixels() ([]byte, int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil, 0, 0, scichart.ErrNotInitialized
	}
	if !b.frameRendered || b.targets.resolveTex == nil {
		return nil, 0, 0, ErrNoFrame
	}

	w, h := b.targets.width, b.targets.height
	bytesPerRow := w * 4
	// Copy pitch must be 256-byte aligned per WebGPU.
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chart_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer b.device.DestroyBuffer(stagingBuf)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "chart_readback_encoder",
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("chart_readback"); err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: begin readback encoding: %w", err)
	}

	// The resolve texture is left in attachment layout after Render;
	// transition for the copy, then back so the next frame's resolve
	// barrier stays valid.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.targets.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(b.targets.resolveTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: b.targets.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.targets.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: end readback encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: create readback fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: submit readback: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return nil, 0, 0, fmt.Errorf("wgpu: wait for readback: ok=%v err=%w", fenceOK, err)
	}

	raw := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(stagingBuf, 0, raw); err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: readback: %w", err)
	}

	out := make([]byte, int(bytesPerRow)*int(h))
	for row := uint32(0); row < h; row++ {
		src := raw[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		dst := out[row*bytesPerRow:]
		// BGRA -> RGBA.
		for i := uint32(0); i+3 < bytesPerRow; i += 4 {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
		}
	}
	return out, int(w), int(h), nil
}
