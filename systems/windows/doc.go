// Package windows is the native backend of the tracer on 64 bit Windows.
//
// It resolves the D3DKMT thunks exported by win32u.dll, redirects them to
// native callbacks invoking a kmt.System, and exposes the unmodified entry
// points through trampolines. The stub recognition and patch encoding are
// portable so they can be tested on any platform.
package windows
