// Package permission models the tool-permission side of the
// CallbackDispatcher (spec.md §4.3.4): the decision a registered
// CanUseTool callback returns, and the rule-update vocabulary the CLI
// understands for persisting that decision beyond the current call.
package permission

import "context"

// Mode is the session-wide permission posture, set at connection time and
// changeable mid-session via a set_permission_mode control request.
type Mode string

const (
	ModeDefault           Mode = "default"
	ModeAcceptEdits       Mode = "acceptEdits"
	ModePlan              Mode = "plan"
	ModeBypassPermissions Mode = "bypassPermissions"
)

// UpdateType names the kind of change one Update entry makes to the
// permission rule set.
type UpdateType string

const (
	UpdateTypeAddRules          UpdateType = "addRules"
	UpdateTypeReplaceRules      UpdateType = "replaceRules"
	UpdateTypeRemoveRules       UpdateType = "removeRules"
	UpdateTypeSetMode           UpdateType = "setMode"
	UpdateTypeAddDirectories    UpdateType = "addDirectories"
	UpdateTypeRemoveDirectories UpdateType = "removeDirectories"
)

// UpdateDestination says where a rule update should be persisted, from
// "just this session" up to the user's global settings file.
type UpdateDestination string

const (
	UpdateDestUserSettings    UpdateDestination = "userSettings"
	UpdateDestProjectSettings UpdateDestination = "projectSettings"
	UpdateDestLocalSettings   UpdateDestination = "localSettings"
	UpdateDestSession         UpdateDestination = "session"
)

// Behavior is the effect a rule has once it matches a tool call.
type Behavior string

const (
	BehaviorAllow Behavior = "allow"
	BehaviorDeny  Behavior = "deny"
	BehaviorAsk   Behavior = "ask"
)

// RuleValue names a tool, optionally narrowed by a rule content string
// (e.g. a Bash command prefix or a file glob) whose syntax is tool-specific
// and opaque to this package.
type RuleValue struct {
	ToolName    string
	RuleContent *string
}

// Update is one change a CanUseTool decision can ask the CLI to persist —
// new or replaced rules, a mode switch, or a change to the accessible
// directory set — bundled with where it should be written.
type Update struct {
	Type        UpdateType
	Rules       []*RuleValue
	Behavior    *Behavior
	Mode        *Mode
	Directories []string
	Destination *UpdateDestination
}

// ToDict renders the update as the CLI's wire shape, omitting every
// optional field that wasn't set rather than sending explicit nulls.
func (p *Update) ToDict() map[string]any {
	out := map[string]any{"type": string(p.Type)}

	if p.Destination != nil {
		out["destination"] = string(*p.Destination)
	}

	if len(p.Rules) > 0 {
		out["rules"] = p.rulesDict()
	}

	if p.Behavior != nil {
		out["behavior"] = string(*p.Behavior)
	}

	if p.Mode != nil {
		out["mode"] = string(*p.Mode)
	}

	if len(p.Directories) > 0 {
		out["directories"] = p.Directories
	}

	return out
}

func (p *Update) rulesDict() []map[string]any {
	rules := make([]map[string]any, len(p.Rules))

	for i, rule := range p.Rules {
		ruleMap := map[string]any{"toolName": rule.ToolName}

		if rule.RuleContent != nil {
			ruleMap["ruleContent"] = *rule.RuleContent
		}

		rules[i] = ruleMap
	}

	return rules
}

// Context carries the permission-update suggestions the CLI proposed
// alongside a tool call, for a CanUseTool callback that wants to accept
// (or override) them rather than decide from scratch.
type Context struct {
	Suggestions []*Update
}

// Result is a CanUseTool decision: either ResultAllow or ResultDeny.
type Result interface {
	GetBehavior() string
}

var (
	_ Result = (*ResultAllow)(nil)
	_ Result = (*ResultDeny)(nil)
)

// ResultAllow permits the tool call to proceed, optionally rewriting its
// input and/or asking the CLI to persist rule updates alongside the
// decision.
type ResultAllow struct {
	Behavior           string
	UpdatedInput       map[string]any
	UpdatedPermissions []*Update
}

func (p *ResultAllow) GetBehavior() string { return "allow" }

// ResultDeny blocks the tool call. Interrupt additionally asks the CLI to
// stop the whole turn rather than just skip this one tool use.
type ResultDeny struct {
	Behavior  string
	Message   string
	Interrupt bool
}

func (p *ResultDeny) GetBehavior() string { return "deny" }

// Callback decides whether one tool call is allowed to run. It runs on a
// CallbackDispatcher goroutine, so it may block on a human decision without
// stalling any other in-flight message.
type Callback func(
	ctx context.Context,
	toolName string,
	input map[string]any,
	permCtx *Context,
) (Result, error)
