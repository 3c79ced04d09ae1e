package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// VK_KHR_portability_enumeration is not wrapped by the extensions module
// this build uses.
const portabilityEnumerationExtension = "VK_KHR_portability_enumeration"

const instanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x00000001

type queueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *queueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

type swapchainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func (r *Renderer) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    r.opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "teapot",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := r.window.VulkanGetInstanceExtensions()
	extensions, _, err := r.loader.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("missing instance extension %s required by sdl", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if r.opts.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[portabilityEnumerationExtension]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, portabilityEnumerationExtension)
		instanceOptions.Flags |= instanceCreateEnumeratePortability
	}

	if r.opts.Validation {
		layers, _, err := r.loader.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Newf("validation layer %s not available- install the LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = r.debugMessengerOptions()
	}

	r.instance, _, err = r.loader.CreateInstance(nil, instanceOptions)
	return err
}

func (r *Renderer) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    r.logDebug,
	}
}

func (r *Renderer) setupDebugMessenger() error {
	if !r.opts.Validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(r.instance)
	r.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(r.instance, nil, r.debugMessengerOptions())
	return err
}

func (r *Renderer) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	r.logger.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}

func (r *Renderer) createSurface() error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(r.instance)

	surface, err := vkng_sdl2.CreateSurface(r.instance, surfaceLoader, r.window)
	if err != nil {
		return err
	}

	r.surface = surface
	return nil
}

func (r *Renderer) pickPhysicalDevice() error {
	physicalDevices, _, err := r.instance.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	for _, device := range physicalDevices {
		if r.isDeviceSuitable(device) {
			r.physicalDevice = device
			break
		}
	}

	if r.physicalDevice == nil {
		return errors.Newf("no suitable gpu among %d devices", len(physicalDevices))
	}

	return nil
}

func (r *Renderer) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := r.findQueueFamilies(device)
	if err != nil || !indices.IsComplete() {
		return false
	}

	if !checkDeviceExtensionSupport(device) {
		return false
	}

	support, err := r.querySwapchainSupport(device)
	if err != nil {
		return false
	}

	return len(support.Formats) > 0 && len(support.PresentModes) > 0
}

func checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func (r *Renderer) findQueueFamilies(device core1_0.PhysicalDevice) (queueFamilyIndices, error) {
	indices := queueFamilyIndices{}
	queueFamilies := device.QueueFamilyProperties()

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := r.surface.PhysicalDeviceSurfaceSupport(device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (r *Renderer) createLogicalDevice() error {
	indices, err := r.findQueueFamilies(r.physicalDevice)
	if err != nil {
		return err
	}
	r.queueFamilies = indices

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required by vulkan portability implementations such as MoltenVK
	extensions, _, err := r.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	r.device, _, err = r.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	r.graphicsQueue = r.device.GetQueue(*indices.GraphicsFamily, 0)
	r.presentQueue = r.device.GetQueue(*indices.PresentFamily, 0)
	r.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(r.device)
	return nil
}

func (r *Renderer) querySwapchainSupport(device core1_0.PhysicalDevice) (swapchainSupportDetails, error) {
	var details swapchainSupportDetails
	var err error

	details.Capabilities, _, err = r.surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = r.surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = r.surface.PhysicalDeviceSurfacePresentModes(device)
	return details, err
}
