package native

import "runtime"

// LibraryFile maps a library base name to the platform file name, e.g.
// "openvr_api" to libopenvr_api.so, libopenvr_api.dylib or openvr_api.dll.
func LibraryFile(name string) string {
	switch runtime.GOOS {
	case "windows":
		return name + ".dll"
	case "darwin", "ios":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}
