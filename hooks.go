package claudesdk

// Hook-related public types live in types.go alongside the rest of the
// re-exported option/message surface, rather than here: HookEvent,
// HookInput, HookCallback, HookMatcher, the per-event *HookInput structs,
// and the *HookSpecificOutput family that feeds SyncHookJSONOutput.
