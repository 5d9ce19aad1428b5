package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/plot.wgsl
var plotShaderSource string

//go:embed shaders/marker.wgsl
var markerShaderSource string

//go:embed shaders/bar.wgsl
var barShaderSource string

//go:embed shaders/heatmap.wgsl
var heatmapShaderSource string

// plotUniformSize is the byte size of the shared per-call uniform:
// scale (vec2) + translate (vec2) + color (vec4) + params (vec4) +
// clip (vec4) = 16 floats.
const plotUniformSize = 64

// heatUniformSize is the byte size of the heatmap uniform:
// grid (vec4) + lut (vec4) + clip (vec4) + area (vec4) = 16 floats.
const heatUniformSize = 64

// pipelineSet holds one precompiled render pipeline per primitive
// family. All vertex pipelines share the uniform-only bind group
// layout; the heatmap adds two read-only storage bindings.
type pipelineSet struct {
	plotShader    hal.ShaderModule
	markerShader  hal.ShaderModule
	barShader     hal.ShaderModule
	heatmapShader hal.ShaderModule

	uniformLayout hal.BindGroupLayout
	heatmapLayout hal.BindGroupLayout
	plotLayout    hal.PipelineLayout
	heatPipLayout hal.PipelineLayout

	line    hal.RenderPipeline // line strips
	strip   hal.RenderPipeline // triangle strips (bands)
	tri     hal.RenderPipeline // raw triangle lists
	marker  hal.RenderPipeline // instanced scatter symbols
	bar     hal.RenderPipeline // instanced bars
	heatmap hal.RenderPipeline
}

// perVertexLayout is the layout for data-space point buffers:
// interleaved x,y float32 pairs, one vertex per point.
func perVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// perInstanceLayout is the same point buffer stepped per instance,
// used by the marker and bar pipelines where the vertex index expands
// a quad around each point.
func perInstanceLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// create compiles all shaders and builds the pipeline set.
// Partially created resources are released on failure.
func (ps *pipelineSet) create(device hal.Device) error {
	if err := ps.createShaders(device); err != nil {
		ps.destroy(device)
		return err
	}
	if err := ps.createLayouts(device); err != nil {
		ps.destroy(device)
		return err
	}
	if err := ps.createPipelines(device); err != nil {
		ps.destroy(device)
		return err
	}
	return nil
}

func (ps *pipelineSet) createShaders(device hal.Device) error {
	sources := []struct {
		label string
		src   string
		dst   *hal.ShaderModule
	}{
		{"plot_shader", plotShaderSource, &ps.plotShader},
		{"marker_shader", markerShaderSource, &ps.markerShader},
		{"bar_shader", barShaderSource, &ps.barShader},
		{"heatmap_shader", heatmapShaderSource, &ps.heatmapShader},
	}
	for _, s := range sources {
		// Validate through naga first so compile errors surface with
		// the compiler diagnostic instead of a driver failure later.
		if _, err := naga.Compile(s.src); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrShaderCompile, s.label, err)
		}
		mod, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  s.label,
			Source: hal.ShaderSource{WGSL: s.src},
		})
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrShaderCompile, s.label, err)
		}
		*s.dst = mod
	}
	return nil
}

func (ps *pipelineSet) createLayouts(device hal.Device) error {
	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "plot_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create plot uniform layout: %w", err)
	}
	ps.uniformLayout = uniformLayout

	heatmapLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "heatmap_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create heatmap bind layout: %w", err)
	}
	ps.heatmapLayout = heatmapLayout

	plotLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "plot_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{ps.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create plot pipeline layout: %w", err)
	}
	ps.plotLayout = plotLayout

	heatPipLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "heatmap_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{ps.heatmapLayout},
	})
	if err != nil {
		return fmt.Errorf("create heatmap pipeline layout: %w", err)
	}
	ps.heatPipLayout = heatPipLayout
	return nil
}

func (ps *pipelineSet) createPipelines(device hal.Device) error {
	specs := []struct {
		label    string
		shader   hal.ShaderModule
		layout   hal.PipelineLayout
		buffers  []gputypes.VertexBufferLayout
		topology gputypes.PrimitiveTopology
		dst      *hal.RenderPipeline
	}{
		{"line_pipeline", ps.plotShader, ps.plotLayout, perVertexLayout(), gputypes.PrimitiveTopologyLineStrip, &ps.line},
		{"band_pipeline", ps.plotShader, ps.plotLayout, perVertexLayout(), gputypes.PrimitiveTopologyTriangleStrip, &ps.strip},
		{"triangle_pipeline", ps.plotShader, ps.plotLayout, perVertexLayout(), gputypes.PrimitiveTopologyTriangleList, &ps.tri},
		{"marker_pipeline", ps.markerShader, ps.plotLayout, perInstanceLayout(), gputypes.PrimitiveTopologyTriangleList, &ps.marker},
		{"bar_pipeline", ps.barShader, ps.plotLayout, perInstanceLayout(), gputypes.PrimitiveTopologyTriangleList, &ps.bar},
		{"heatmap_pipeline", ps.heatmapShader, ps.heatPipLayout, nil, gputypes.PrimitiveTopologyTriangleList, &ps.heatmap},
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	for _, s := range specs {
		pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  s.label,
			Layout: s.layout,
			Vertex: hal.VertexState{
				Module:     s.shader,
				EntryPoint: "vs_main",
				Buffers:    s.buffers,
			},
			Fragment: &hal.FragmentState{
				Module:     s.shader,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{
					{
						Format:    gputypes.TextureFormatBGRA8Unorm,
						Blend:     &premulBlend,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: s.topology,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count: sampleCount,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", s.label, err)
		}
		*s.dst = pipeline
	}
	return nil
}

// destroy releases all pipeline resources in reverse creation order.
// Safe on a partially created set.
func (ps *pipelineSet) destroy(device hal.Device) {
	if device == nil {
		return
	}
	for _, p := range []*hal.RenderPipeline{&ps.heatmap, &ps.bar, &ps.marker, &ps.tri, &ps.strip, &ps.line} {
		if *p != nil {
			device.DestroyRenderPipeline(*p)
			*p = nil
		}
	}
	if ps.heatPipLayout != nil {
		device.DestroyPipelineLayout(ps.heatPipLayout)
		ps.heatPipLayout = nil
	}
	if ps.plotLayout != nil {
		device.DestroyPipelineLayout(ps.plotLayout)
		ps.plotLayout = nil
	}
	if ps.heatmapLayout != nil {
		device.DestroyBindGroupLayout(ps.heatmapLayout)
		ps.heatmapLayout = nil
	}
	if ps.uniformLayout != nil {
		device.DestroyBindGroupLayout(ps.uniformLayout)
		ps.uniformLayout = nil
	}
	for _, m := range []*hal.ShaderModule{&ps.heatmapShader, &ps.barShader, &ps.markerShader, &ps.plotShader} {
		if *m != nil {
			device.DestroyShaderModule(*m)
			*m = nil
		}
	}
}
