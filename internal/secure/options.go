package secure

import (
	"errors"
	"runtime"
)

// ErrUnsupportedPlatform is returned when option resolution cannot match
// the storage's platform against any known platform.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform identifies the target platform whose backend configuration
// applies to a call.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformWeb
	PlatformLinux
	PlatformIOS
	PlatformAndroid
	PlatformWindows
	PlatformMacOS
	PlatformFuchsia
)

func (p Platform) String() string {
	switch p {
	case PlatformWeb:
		return "web"
	case PlatformLinux:
		return "linux"
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	case PlatformWindows:
		return "windows"
	case PlatformMacOS:
		return "macos"
	case PlatformFuchsia:
		return "fuchsia"
	default:
		return "unknown"
	}
}

// CurrentPlatform maps the running OS to a Platform. Unrecognized
// operating systems map to PlatformUnknown, which fails option
// resolution.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "js", "wasip1":
		return PlatformWeb
	case "linux":
		return PlatformLinux
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformUnknown
	}
}

// Options is the configuration mapping passed to backend calls. One
// resolved instance is active per call and is never mutated after
// resolution.
type Options map[string]string

// Overrides supplies per-platform option overrides for a single call.
// A nil Overrides means "use the storage defaults everywhere".
type Overrides map[Platform]Options

// Option keys recognized by the bundled backends. Backends ignore keys
// they do not understand.
const (
	OptNamespace     = "namespace"
	OptAccessibility = "accessibility"
	OptAccountName   = "accountName"
)

// DefaultNamespace is used when the resolved options carry no namespace.
const DefaultNamespace = "default"

// DefaultOptions returns the default option set for a platform.
func DefaultOptions(p Platform) Options {
	switch p {
	case PlatformIOS, PlatformMacOS:
		return Options{
			OptAccountName:   "lockbox",
			OptAccessibility: "unlocked",
			OptNamespace:     DefaultNamespace,
		}
	case PlatformAndroid:
		return Options{
			"sharedPreferencesName": "lockbox",
			OptNamespace:            DefaultNamespace,
		}
	case PlatformWeb:
		return Options{
			"dbName":     "lockbox",
			OptNamespace: DefaultNamespace,
		}
	default:
		return Options{OptNamespace: DefaultNamespace}
	}
}

func (o Options) clone() Options {
	cp := make(Options, len(o))
	for k, v := range o {
		cp[k] = v
	}
	return cp
}

// Namespace returns the namespace option, or DefaultNamespace when unset.
func (o Options) Namespace() string {
	if ns, ok := o[OptNamespace]; ok && ns != "" {
		return ns
	}
	return DefaultNamespace
}

// resolutionOrder is the fixed priority in which platform checks run.
// The checks are mutually exclusive in practice; the order matters only
// if detection were ever ambiguous, so it is preserved exactly.
var resolutionOrder = []Platform{
	PlatformWeb,
	PlatformLinux,
	PlatformIOS,
	PlatformAndroid,
	PlatformWindows,
	PlatformMacOS,
	PlatformFuchsia,
}
