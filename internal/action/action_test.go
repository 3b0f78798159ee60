// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package action

import (
	"context"
	"testing"

	"grimm.is/logvigil/internal/vars"
)

func TestDispatch_Null(t *testing.T) {
	d := NewDispatcher(map[string]*Action{"noop": {Name: "noop", Type: TypeNull}}, nil, false, false)
	d.Dispatch(context.Background(), "noop", vars.Map{})
}

func TestDispatch_UnknownActionIsNoop(t *testing.T) {
	d := NewDispatcher(map[string]*Action{}, nil, false, false)
	d.Dispatch(context.Background(), "missing", vars.Map{})
}

func TestDispatch_Exit(t *testing.T) {
	var gotStatus int
	var gotMsg string
	shutdown := func(status int, msg string) {
		gotStatus = status
		gotMsg = msg
	}

	d := NewDispatcher(map[string]*Action{
		"die": {Name: "die", Type: TypeExit, Args: []string{"2", "shutting", "down"}},
	}, shutdown, false, false)

	d.Dispatch(context.Background(), "die", vars.Map{})

	if gotStatus != 2 {
		t.Errorf("status = %d, want 2", gotStatus)
	}
	if gotMsg != "shutting down" {
		t.Errorf("msg = %q, want %q", gotMsg, "shutting down")
	}
}

func TestDispatch_ExitNoStatus(t *testing.T) {
	var gotStatus = -1
	shutdown := func(status int, msg string) { gotStatus = status }

	d := NewDispatcher(map[string]*Action{
		"die": {Name: "die", Type: TypeExit},
	}, shutdown, false, false)

	d.Dispatch(context.Background(), "die", vars.Map{})
	if gotStatus != 0 {
		t.Errorf("status = %d, want 0", gotStatus)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(&Action{Name: "a", Type: TypePrint}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := Validate(&Action{Name: "a", Type: Type(99)}); err == nil {
		t.Error("Validate() expected error for unknown type")
	}
}
