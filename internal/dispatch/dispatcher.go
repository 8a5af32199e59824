package dispatch

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Action names a bindable operation
type Action string

// Bindable actions, named as they appear in the key_binds settings
const (
	ActPlayPause     Action = "play_pause"     // toggle pause
	ActStop          Action = "stop"           // stop and clear the queue
	ActNext          Action = "next"           // next track
	ActPrev          Action = "prev"           // previous track
	ActVolumeDown    Action = "volume_down"    // lower the volume one step
	ActVolumeUp      Action = "volume_up"      // raise the volume one step
	ActScrollUp      Action = "scroll_up"      // select the entry above
	ActScrollDown    Action = "scroll_down"    // select the entry below
	ActPageUp        Action = "page_up"        // move one window up
	ActPageDown      Action = "page_down"      // move one window down
	ActTop           Action = "top"            // select the first entry
	ActBottom        Action = "bottom"         // select the last entry
	ActSeekBack      Action = "seek_back"      // seek backwards one step
	ActSeekForward   Action = "seek_forward"   // seek forwards one step
	ActActivate      Action = "activate"       // open or play the selected entry
	ActCycleSort     Action = "cycle_sort"     // next sort mode
	ActToggleReverse Action = "toggle_reverse" // flip the sort direction
	ActUpdateLibrary Action = "update_library" // rescan the daemon library
	ActQuit          Action = "quit"           // leave the client
)

// Actions lists every bindable action in help order
var Actions = []Action{
	ActPlayPause, ActStop, ActNext, ActPrev, ActVolumeDown, ActVolumeUp,
	ActSeekBack, ActSeekForward, ActScrollUp, ActScrollDown, ActPageUp, ActPageDown,
	ActTop, ActBottom, ActActivate, ActCycleSort, ActToggleReverse, ActUpdateLibrary, ActQuit,
}

// Op is the zero-argument operation an action runs
type Op func(ctx context.Context)

// Dispatcher maps input tokens to operations. The table is fixed at construction.
type Dispatcher struct {
	logger  *zap.Logger
	actions map[string]Action
	keys    map[Action][]string
	ops     map[Action]Op
}

// New builds the binding table. Every bound action needs an op, and a key
// may be bound to one action only.
func New(logger *zap.Logger, keyBinds map[string][]string, ops map[Action]Op) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:  logger.Named("dispatch"),
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
		ops:     make(map[Action]Op, len(ops)),
	}

	for name, keys := range keyBinds {
		action := Action(name)
		if !slices.Contains(Actions, action) {
			return nil, fmt.Errorf("unknown action %q in key_binds", name)
		}
		op, ok := ops[action]
		if !ok {
			return nil, fmt.Errorf("no operation for action %q", name)
		}
		d.ops[action] = op

		for _, key := range keys {
			if other, taken := d.actions[key]; taken && other != action {
				return nil, fmt.Errorf("key %q bound to both %q and %q", key, other, action)
			}
			d.actions[key] = action
		}
		d.keys[action] = slices.Clone(keys)
	}
	return d, nil
}

// Keys returns the tokens bound to action
func (d *Dispatcher) Keys(action Action) []string {
	return slices.Clone(d.keys[action])
}

// Dispatch runs the operation bound to token. Unbound tokens are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, token string) bool {
	action, ok := d.actions[token]
	if !ok {
		return false
	}
	d.logger.Debug("Dispatching", zap.String("token", token), zap.String("action", string(action)))
	d.ops[action](ctx)
	return true
}
