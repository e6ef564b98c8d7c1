package emit

import (
	"context"
	"strings"
	"testing"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/declyaml"
)

const overlayYAML = `
module: VROverlay
api: openvr
prefix: VROverlay_
binding: function-table
calling_convention: system
doc: Overlay management methods.
types:
  - { name: VROverlayHandle_t, kind: alias, underlying: uint64_t }
  - name: Padded_t
    kind: struct
    doc: Exercises interior and tail padding.
    fields:
      - { name: a, type: uint8_t }
      - { name: b, type: double }
      - { name: c, type: uint16_t }
enums:
  - name: EOverlayDirection
    values:
      OverlayDirection_Up: 0
      OverlayDirection_Down: 1
      OverlayDirection_Left: 2
      OverlayDirection_Right: 3
      OverlayDirection_Count: 4
  - name: EVROverlayError
    result: true
    values:
      VROverlayError_None: 0
      VROverlayError_UnknownOverlay: 10
      VROverlayError_InvalidHandle: 11
constants:
  - { name: k_unVROverlayMaxKeyLength, type: uint32_t, value: "256" }
  - { name: IVROverlay_Version, type: string, value: "IVROverlay_027" }
functions:
  - name: FindOverlay
    returns: EVROverlayError
    doc: Finds an existing overlay with the specified key.
    params:
      - const char* pchOverlayKey
      - { name: pOverlayHandle, type: VROverlayHandle_t*, dir: out, check: 1 }
  - name: GetOverlayKey
    returns: uint32_t
    doc: Fills the provided buffer with the string key of the overlay.
    return_doc: the size of the buffer required, including the terminating null.
    params:
      - VROverlayHandle_t ulOverlayHandle
      - { name: pchValue, type: char*, dir: out, nullable: true, convention: query }
      - { name: unBufferSize, type: uint32_t, length_of: pchValue }
      - { name: pError, type: EVROverlayError*, dir: out, nullable: true, status: true }
  - name: SetOverlayNeighbor
    returns: EVROverlayError
    optional: true
    params:
      - { name: eDirection, type: EOverlayDirection, values: "OverlayDirection_(Up|Down|Left|Right)" }
      - VROverlayHandle_t ulFrom
      - VROverlayHandle_t ulTo
table_order: [FindOverlay, CreateOverlay, GetOverlayKey, SetOverlayNeighbor]
`

const drawCountYAML = `
module: KHR_draw_indirect_count
api: vulkan
calling_convention: system
library: vulkan
types:
  - { name: VkCommandBuffer, kind: opaque }
  - { name: VkBuffer, kind: alias, underlying: uint64_t }
  - { name: VkDeviceSize, kind: alias, underlying: uint64_t }
constants:
  - { name: VK_KHR_DRAW_INDIRECT_COUNT_SPEC_VERSION, value: "1" }
functions:
  - name: vkCmdDrawIndirectCountKHR
    doc: Draws with indirect parameters and the draw count sourced from a buffer.
    params:
      - VkCommandBuffer commandBuffer
      - VkBuffer buffer
      - VkDeviceSize offset
      - VkBuffer countBuffer
      - VkDeviceSize countBufferOffset
      - uint32_t maxDrawCount
      - uint32_t stride
`

const demoYAML = `
module: Demo
prefix: Demo_
functions:
  - name: Foo
    returns: void
    params:
      - uint32_t a
      - { name: b, type: uint8_t*, dir: out, nullable: true, autosize: c, convention: query }
      - { name: c, type: uint32_t*, dir: inout }
`

// build runs YAML declarations through the whole front end.
func build(t *testing.T, docs ...string) []*decl.ValidatedModule {
	t.Helper()
	var raws []decl.RawModule
	for i, doc := range docs {
		mods, err := declyaml.Parse([]byte(doc), "test.yml")
		if err != nil {
			t.Fatalf("doc %d: unexpected parse error: %v", i, err)
		}
		raws = append(raws, mods...)
	}
	built, err := decl.NewEngine(decl.NewRegistry()).Build(context.Background(), raws)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return built
}

func emitOne(t *testing.T, target string, mod *decl.ValidatedModule) string {
	t.Helper()
	tg, err := Get(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files, err := tg.Emit(mod, Options{Package: "openvr"})
	if err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	return string(files[0].Content)
}

func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q", want)
		}
	}
	if t.Failed() {
		t.Logf("output:\n%s", got)
	}
}
