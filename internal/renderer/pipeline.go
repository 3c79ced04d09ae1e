package renderer

import (
	"unsafe"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/mesh"
)

const pushConstantStages = core1_0.StageVertex | core1_0.StageFragment

func getVertexBindingDescription() []core1_0.VertexInputBindingDescription {
	v := mesh.Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func getVertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := mesh.Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
	}
}

func (r *Renderer) createRenderPass() error {
	attachments := []core1_0.AttachmentDescription{
		{
			Format:         r.surfaceFormat.Format,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		},
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
	}

	dependency := core1_0.SubpassDependency{
		SrcSubpass: core1_0.SubpassExternal,
		DstSubpass: 0,

		SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		SrcAccessMask: 0,

		DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		DstAccessMask: core1_0.AccessColorAttachmentWrite,
	}

	if r.opts.Depth {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         r.depthFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		dependency.SrcStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstAccessMask |= core1_0.AccessDepthStencilAttachmentWrite
	}

	renderPass, _, err := r.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments:         attachments,
		Subpasses:           []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{dependency},
	})
	if err != nil {
		return err
	}

	r.renderPass = renderPass
	return nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func (r *Renderer) createGraphicsPipeline() error {
	vertShader, _, err := r.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(r.vertexShader),
	})
	if err != nil {
		return err
	}
	defer vertShader.Destroy(nil)

	fragShader, _, err := r.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(r.fragmentShader),
	})
	if err != nil {
		return err
	}
	defer fragShader.Destroy(nil)

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   getVertexBindingDescription(),
		VertexAttributeDescriptions: getVertexAttributeDescriptions(),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	// Viewport and scissor are dynamic so a resize never rebuilds the pipeline
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{Width: 1, Height: 1, MaxDepth: 1}},
		Scissors:  []core1_0.Rect2D{{Extent: core1_0.Extent2D{Width: 1, Height: 1}}},
	}

	dynamicState := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	// Meshes loaded from disk have no reliable winding, so nothing is culled
	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	var depthStencil *core1_0.PipelineDepthStencilStateCreateInfo
	if r.opts.Depth {
		depthStencil = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		}
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	r.pipelineLayout, _, err = r.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: pushConstantStages,
				Offset:     0,
				Size:       frameConstantsSize,
			},
		},
	})
	if err != nil {
		return err
	}

	pipelines, _, err := r.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			DynamicState:       dynamicState,
			Layout:             r.pipelineLayout,
			RenderPass:         r.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return err
	}
	r.pipeline = pipelines[0]

	return nil
}
