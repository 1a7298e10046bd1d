//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderDir = "shaders"

type shaderVariant struct {
	source  string
	base    string
	defines []string
}

// Sources compiled into more than one base shader.
var shaderSources = []shaderVariant{
	{source: "shadow.vert", base: "shadow"},
	{source: "geometry.vert", base: "geometry"},
	{source: "geometry.frag", base: "geometry"},
	{source: "lighting.vert", base: "lighting_quad"},
	{source: "lighting.vert", base: "lighting_volume", defines: []string{"LIGHT_VOLUME"}},
	{source: "lighting.frag", base: "lighting"},
	{source: "lighting.frag", base: "lighting_shadowed", defines: []string{"SHADOWED"}},
}

// shaderOutput is the file the renderer loads: <base>.<push|dynamic>.<stage>.spv
func shaderOutput(v shaderVariant, dynamic bool) string {
	mode := "push"
	if dynamic {
		mode = "dynamic"
	}
	return filepath.Join(shaderDir, fmt.Sprintf("%s.%s%s.spv", v.base, mode, filepath.Ext(v.source)))
}

func buildShaders() error {
	for _, v := range shaderSources {
		for _, dynamic := range []bool{false, true} {
			args := []string{}
			for _, d := range v.defines {
				args = append(args, "-D"+d)
			}
			if dynamic {
				args = append(args, "-DDYNAMIC_UNIFORMS")
			}
			args = append(args, "-I", shaderDir, filepath.Join(shaderDir, v.source), "-o", shaderOutput(v, dynamic))
			if _, err := executeCmd("glslc", withArgs(args...), withStream()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compiles every shader variant with glslc.
func (Build) Shaders() error {
	return buildShaders()
}
