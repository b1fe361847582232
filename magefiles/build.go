//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the ray-tracing shaders to SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.2", "shaders/raytrace.rgen", "-o", "shaders/raytrace.rgen.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.2", "shaders/raytrace.rchit", "-o", "shaders/raytrace.rchit.spv"), withStream()); err != nil {
		return err
	}
	return nil
}
