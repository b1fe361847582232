package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type pendingAccelWrite struct {
	Slot   uint32
	Handle metadata.AccelerationStructureHandle
}

type pendingImageWrite struct {
	Slot   uint32
	Handle metadata.ImageHandle
}

/**
 * @brief Mirrors VkWriteDescriptorSetAccelerationStructureKHR, which the
 * binding does not wrap. Chained into WriteDescriptorSet.PNext for every
 * acceleration-structure table write.
 */
type writeDescriptorSetAccelerationStructure struct {
	sType                      uint32
	pNext                      unsafe.Pointer
	accelerationStructureCount uint32
	pAccelerationStructures    *metadata.AccelerationStructureHandle
}

// createBindlessLayout builds the single descriptor set both bindless tables
// live in: acceleration structures at binding 5, storage images at binding 6.
// All shader stages see the set; bindless code indexes it freely.
func (vr *VulkanRenderer) createBindlessLayout() error {
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDLESS_BINDING_ACCEL_STRUCTURES,
			DescriptorType:  descriptorTypeAccelerationStructure,
			DescriptorCount: VULKAN_MAX_ACCEL_STRUCTURE_COUNT,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAll),
		},
		{
			Binding:         BINDLESS_BINDING_STORAGE_IMAGES,
			DescriptorType:  vk.DescriptorTypeStorageImage,
			DescriptorCount: VULKAN_MAX_STORAGE_IMAGE_COUNT,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageAll),
		},
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	if res := vk.CreateDescriptorSetLayout(vr.context.Device, &layoutInfo, vr.context.Allocator, &vr.bindlessLayout); res != vk.Success {
		return fmt.Errorf("failed to create bindless descriptor set layout: %s", VulkanResultString(res))
	}

	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            descriptorTypeAccelerationStructure,
			DescriptorCount: VULKAN_MAX_ACCEL_STRUCTURE_COUNT,
		},
		{
			Type:            vk.DescriptorTypeStorageImage,
			DescriptorCount: VULKAN_MAX_STORAGE_IMAGE_COUNT,
		},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       1,
	}
	if res := vk.CreateDescriptorPool(vr.context.Device, &poolInfo, vr.context.Allocator, &vr.descriptorPool); res != vk.Success {
		return fmt.Errorf("failed to create bindless descriptor pool: %s", VulkanResultString(res))
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     vr.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{vr.bindlessLayout},
	}
	if res := vk.AllocateDescriptorSets(vr.context.Device, &allocInfo, &vr.bindlessSet); res != vk.Success {
		return fmt.Errorf("failed to allocate bindless descriptor set: %s", VulkanResultString(res))
	}
	return nil
}

// flushTableWrites turns every staged table write into a descriptor write
// and submits them in one UpdateDescriptorSets call. Runs strictly between
// frames so no in-flight dispatch can observe a partial repopulation.
func (vr *VulkanRenderer) flushTableWrites() error {
	return vr.lockPool.SafeCall(TableManagement, func() error {
		writes := make([]vk.WriteDescriptorSet, 0, vr.pendingWrites.Len())
		// Keep the chained extension structs alive until the update call.
		chains := make([]*writeDescriptorSetAccelerationStructure, 0, vr.pendingWrites.Len())
		handles := make([]metadata.AccelerationStructureHandle, 0, vr.pendingWrites.Len())

		for !vr.pendingWrites.IsEmpty() {
			value, err := vr.pendingWrites.Dequeue()
			if err != nil {
				return err
			}
			switch w := value.(type) {
			case pendingAccelWrite:
				handles = append(handles, w.Handle)
				chain := &writeDescriptorSetAccelerationStructure{
					sType:                      structureTypeWriteDescriptorSetAccelerationStructure,
					accelerationStructureCount: 1,
					pAccelerationStructures:    &handles[len(handles)-1],
				}
				chains = append(chains, chain)
				writes = append(writes, vk.WriteDescriptorSet{
					SType:           vk.StructureTypeWriteDescriptorSet,
					PNext:           unsafe.Pointer(chain),
					DstSet:          vr.bindlessSet,
					DstBinding:      BINDLESS_BINDING_ACCEL_STRUCTURES,
					DstArrayElement: w.Slot,
					DescriptorType:  descriptorTypeAccelerationStructure,
					DescriptorCount: 1,
				})
			case pendingImageWrite:
				// ImageHandle carries the VkImageView the image owner created;
				// reinterpret it into the binding's handle type.
				view := *(*vk.ImageView)(unsafe.Pointer(&w.Handle))
				imageInfo := vk.DescriptorImageInfo{
					ImageView:   view,
					ImageLayout: vk.ImageLayoutGeneral,
				}
				writes = append(writes, vk.WriteDescriptorSet{
					SType:           vk.StructureTypeWriteDescriptorSet,
					DstSet:          vr.bindlessSet,
					DstBinding:      BINDLESS_BINDING_STORAGE_IMAGES,
					DstArrayElement: w.Slot,
					DescriptorType:  vk.DescriptorTypeStorageImage,
					DescriptorCount: 1,
					PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
				})
			default:
				return fmt.Errorf("unknown pending table write type %T", value)
			}
		}

		if len(writes) == 0 {
			return nil
		}
		vk.UpdateDescriptorSets(vr.context.Device, uint32(len(writes)), writes, 0, nil)
		runtime.KeepAlive(chains)
		runtime.KeepAlive(handles)
		return nil
	})
}
