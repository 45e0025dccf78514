package config

// NormalizePermissionMode translates permission-mode spellings from
// earlier CLI releases to the names the current CLI expects, so an
// options struct built against an older mental model still launches
// correctly:
//
//	"acceptAll" -> "bypassPermissions"
//	"prompt"    -> "default"
//
// Anything else, including an already-current name, passes through
// unchanged.
func NormalizePermissionMode(mode string) string {
	switch mode {
	case "acceptAll":
		return "bypassPermissions"
	case "prompt":
		return "default"
	default:
		return mode
	}
}
