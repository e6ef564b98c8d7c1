package emit

import (
	"strings"
	"testing"
)

func TestCTarget_FunctionTable(t *testing.T) {
	h := emitOne(t, "c", build(t, overlayYAML)[0])
	mustContain(t, h,
		"/* Code generated by bindgen from test.yml. DO NOT EDIT. */",
		"#ifndef BINDGEN_VROVERLAY_H",
		"#define BINDGEN_APIENTRY __stdcall",
		"typedef uint64_t VROverlayHandle_t;",
		"typedef struct Padded_t {",
		"    uint8_t a;\n    uint8_t _pad0[7];\n    double b;\n    uint16_t c;\n} Padded_t;",
		`_Static_assert(sizeof(Padded_t) == 24, "Padded_t size");`,
		`_Static_assert(offsetof(Padded_t, b) == 8, "Padded_t.b offset");`,
		"typedef int32_t EOverlayDirection;",
		"#define OverlayDirection_Up ((EOverlayDirection)0)",
		"#define k_unVROverlayMaxKeyLength ((uint32_t)256U)",
		`#define IVROverlay_Version "IVROverlay_027"`,
		"typedef struct VROverlay_FnTable {",
		"    EVROverlayError (BINDGEN_APIENTRY *FindOverlay)(const char* pchOverlayKey, VROverlayHandle_t* pOverlayHandle);",
		"    void *_reserved1;",
		"    uint32_t (BINDGEN_APIENTRY *GetOverlayKey)(VROverlayHandle_t ulOverlayHandle, char* pchValue, uint32_t unBufferSize, EVROverlayError* pError);",
		"#endif /* BINDGEN_VROVERLAY_H */",
	)
}

func TestCTarget_Direct(t *testing.T) {
	h := emitOne(t, "c", build(t, drawCountYAML)[0])
	mustContain(t, h,
		"typedef struct VkCommandBuffer_T *VkCommandBuffer;",
		"#define VK_KHR_DRAW_INDIRECT_COUNT_SPEC_VERSION ((int32_t)1)",
		" * Draws with indirect parameters and the draw count sourced from a buffer.",
		"void BINDGEN_APIENTRY vkCmdDrawIndirectCountKHR(VkCommandBuffer commandBuffer, VkBuffer buffer, VkDeviceSize offset, VkBuffer countBuffer, VkDeviceSize countBufferOffset, uint32_t maxDrawCount, uint32_t stride);",
	)
	if strings.Contains(h, "_FnTable") {
		t.Error("direct modules get prototypes, not a table")
	}
}

func TestCTarget_CConvention(t *testing.T) {
	h := emitOne(t, "c", build(t, demoYAML)[0])
	mustContain(t, h, "void Demo_Foo(uint32_t a, uint8_t* b, uint32_t* c);")
	if strings.Contains(h, "BINDGEN_APIENTRY") {
		t.Error("C calling convention needs no APIENTRY macro")
	}
}

func TestCTarget_TypeOrder(t *testing.T) {
	const in = `
module: Order
types:
  - name: Outer_t
    kind: struct
    fields:
      - { name: h, type: Handle_t }
      - { name: inner, type: Inner_t }
      - { name: kind, type: Kind_e }
  - name: Inner_t
    kind: struct
    fields:
      - { name: kind, type: Kind_e }
  - { name: Handle_t, kind: alias, underlying: uint32_t }
enums:
  - name: Kind_e
    values:
      Kind_A: 0
      Kind_B: 1
`
	h := emitOne(t, "c", build(t, in)[0])
	at := func(s string) int {
		t.Helper()
		i := strings.Index(h, s)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", s, h)
		}
		return i
	}
	alias := at("typedef uint32_t Handle_t;")
	enum := at("typedef int32_t Kind_e;")
	inner := at("typedef struct Inner_t {")
	outer := at("typedef struct Outer_t {")
	if !(alias < enum && enum < inner && inner < outer) {
		t.Fatalf("want typedefs, then enums, then structs in dependency order (alias %d, enum %d, inner %d, outer %d):\n%s",
			alias, enum, inner, outer, h)
	}
}

func TestCQuote(t *testing.T) {
	cases := map[string]string{
		"plain":        `"plain"`,
		`a "b" \c`:     `"a \"b\" \\c"`,
		"line\nbreak":  `"line\nbreak"`,
		"bell\a":       `"bell\007"`,
	}
	for in, want := range cases {
		if got := cQuote(in); got != want {
			t.Errorf("cQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCTarget_IncludesForeignModules(t *testing.T) {
	const shared = `
module: VRTypes
types:
  - { name: VRHandle_t, kind: alias, underlying: uint64_t }
`
	const user = `
module: VRUser
prefix: VRUser_
functions:
  - name: Close
    params:
      - VRHandle_t h
`
	mods := build(t, shared, user)
	h := emitOne(t, "c", mods[1])
	mustContain(t, h, `#include "vrtypes.h"`)
	if own := emitOne(t, "c", mods[0]); strings.Contains(own, `#include "`) {
		t.Errorf("self-contained module should include nothing:\n%s", own)
	}
}
