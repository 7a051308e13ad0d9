/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"fmt"
	"strings"

	"sketchpad/internal/vector"
)

// Action is the kind of pointer sample.
type Action uint8

const (
	ActionDown Action = iota
	ActionMove
	ActionUp
	ActionCancel
	ActionHover
)

var actionNames = [...]string{"down", "move", "up", "cancel", "hover"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", a)
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range actionNames {
		if n == s {
			*a = Action(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pointer action %q", s)
}

// Event is one pointer sample. Tool is read only for ActionDown.
type Event struct {
	Action Action
	Point  vector.Pt
	Tool   ToolState
}

// HandlePointer dispatches a pointer sample: down begins, move extends, up
// commits. Handled samples request a redraw and return true; any other action
// is left unhandled and returns false.
func (r *Recorder) HandlePointer(ev Event) bool {
	switch ev.Action {
	case ActionDown:
		r.Begin(ev.Point, ev.Tool)
	case ActionMove:
		r.Extend(ev.Point)
	case ActionUp:
		r.Commit()
	default:
		return false
	}
	r.notify()
	return true
}
