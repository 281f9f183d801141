package variables

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshell/internal/testutils"
)

func ptr(s string) *string { return &s }

func newTestStore() (*Store, *testutils.RecordingSink) {
	sink := testutils.NewRecordingSink()
	return NewStore(sink), sink
}

// boolSubstitute mirrors the hook used for every boolean session variable.
func boolSubstitute(value *string) *string {
	if value == nil {
		return ptr("off")
	}
	if *value == "" {
		return ptr("on")
	}
	return value
}

func TestStore_SetThenGet(t *testing.T) {
	s, sink := newTestStore()

	assert.True(t, s.Set("foo", "v1"))
	assert.True(t, s.Set("foo", "v2"))

	got, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
	assert.Empty(t, sink.Diagnostics)
}

func TestStore_GetUnknown(t *testing.T) {
	s, _ := newTestStore()

	got, ok := s.Get("nothing")
	assert.False(t, ok)
	assert.Equal(t, "", got)
}

func TestStore_EmptyValueIsSet(t *testing.T) {
	s, _ := newTestStore()

	require.True(t, s.Set("empty", ""))

	got, ok := s.Get("empty")
	assert.True(t, ok)
	assert.Equal(t, "", got)
}

func TestStore_SetBool(t *testing.T) {
	s, _ := newTestStore()

	assert.True(t, s.SetBool("QUIET"))

	got, _ := s.Get("QUIET")
	assert.Equal(t, "on", got)
}

func TestStore_InvalidName(t *testing.T) {
	tests := []string{"", "a-b", "with space", "semi;colon"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			s, sink := newTestStore()

			assert.True(t, s.Delete(name), "deleting an invalid name is a no-op success")
			assert.Empty(t, sink.Diagnostics)

			assert.False(t, s.Set(name, "x"))
			assert.Equal(t, []string{`invalid variable name: "` + name + `"`}, sink.Errors())

			_, ok := s.Get(name)
			assert.False(t, ok)
		})
	}
}

func TestStore_DeleteNeverCreated(t *testing.T) {
	s, sink := newTestStore()

	assert.True(t, s.Delete("ghost"))
	assert.Empty(t, slices.Collect(s.Names()))
	assert.Empty(t, sink.Diagnostics)
}

func TestStore_DeleteHooklessRemovesEntry(t *testing.T) {
	s, _ := newTestStore()
	s.Set("plain", "1")

	assert.True(t, s.Delete("plain"))

	_, ok := s.Get("plain")
	assert.False(t, ok)
	assert.NotContains(t, slices.Collect(s.Names()), "plain")
}

func TestStore_DeleteWithHooksKeepsEntry(t *testing.T) {
	s, _ := newTestStore()
	s.Set("PROMPT1", "%/=> ")
	s.SetHooks("PROMPT1", nil, func(*string) bool { return true })

	assert.True(t, s.Delete("PROMPT1"))

	_, ok := s.Get("PROMPT1")
	assert.False(t, ok, "value becomes absent")
	assert.Contains(t, slices.Collect(s.Names()), "PROMPT1", "entry survives to keep its hooks")
	assert.True(t, s.HasHooks("PROMPT1"))
}

func TestStore_DeleteWithBoolHooksStoresOff(t *testing.T) {
	s, sink := newTestStore()

	var target bool
	s.SetHooks("ON_ERROR_STOP", boolSubstitute, func(v *string) bool {
		b, ok := ParseBoolVar(sink, "ON_ERROR_STOP", v)
		if ok {
			target = b
		}
		return ok
	})
	require.True(t, s.Set("ON_ERROR_STOP", "on"))
	require.True(t, target)

	assert.True(t, s.Delete("ON_ERROR_STOP"))

	got, ok := s.Get("ON_ERROR_STOP")
	assert.True(t, ok)
	assert.Equal(t, "off", got)
	assert.False(t, target)
	assert.Empty(t, sink.Diagnostics)
}

func TestStore_AssignHookRejects(t *testing.T) {
	s, sink := newTestStore()

	var target bool
	s.SetHooks("AUTOCOMMIT", boolSubstitute, func(v *string) bool {
		b, ok := ParseBoolVar(sink, "AUTOCOMMIT", v)
		if ok {
			target = b
		}
		return ok
	})
	require.True(t, s.Set("AUTOCOMMIT", "on"))
	sink.Reset()

	assert.False(t, s.Set("AUTOCOMMIT", "sometimes"))

	got, _ := s.Get("AUTOCOMMIT")
	assert.Equal(t, "on", got, "stored value untouched")
	assert.True(t, target, "session state untouched")
	assert.Equal(t, []string{`unrecognized value "sometimes" for "AUTOCOMMIT": Boolean expected`}, sink.Errors())
}

func TestStore_SubstituteRunsBeforeAssign(t *testing.T) {
	s, _ := newTestStore()

	var calls []string
	s.SetHooks("HOOKED",
		func(v *string) *string {
			calls = append(calls, "substitute:"+deref(v))
			return ptr(strings.ToUpper(deref(v)))
		},
		func(v *string) bool {
			calls = append(calls, "assign:"+deref(v))
			return true
		})
	calls = nil

	require.True(t, s.Set("HOOKED", "abc"))

	assert.Equal(t, []string{"substitute:abc", "assign:ABC"}, calls)
	got, _ := s.Get("HOOKED")
	assert.Equal(t, "ABC", got)
}

func TestStore_CallerValueIsNotAliased(t *testing.T) {
	s, _ := newTestStore()

	var seen *string
	s.SetHooks("ALIAS", nil, func(v *string) bool {
		seen = v
		return true
	})

	value := "original"
	require.True(t, s.SetValue("ALIAS", &value))
	require.NotNil(t, seen)
	assert.NotSame(t, &value, seen)

	value = "changed"
	got, _ := s.Get("ALIAS")
	assert.Equal(t, "original", got)
}

func TestStore_SetHooksOnExistingValue(t *testing.T) {
	s, _ := newTestStore()
	require.True(t, s.Set("FETCH_COUNT", "25"))

	var calls []string
	s.SetHooks("FETCH_COUNT",
		func(v *string) *string {
			calls = append(calls, "substitute:"+deref(v))
			return v
		},
		func(v *string) bool {
			calls = append(calls, "assign:"+deref(v))
			return true
		})

	assert.Equal(t, []string{"substitute:25", "assign:25"}, calls, "each hook runs exactly once, substitute first")
	got, ok := s.Get("FETCH_COUNT")
	assert.True(t, ok)
	assert.Equal(t, "25", got, "prior value kept when the substitute hook does not change it")
}

func TestStore_SetHooksOnNewVariable(t *testing.T) {
	s, _ := newTestStore()

	var assigned *string
	assignCalls := 0
	s.SetHooks("ECHO",
		func(v *string) *string {
			if v == nil {
				return ptr("none")
			}
			return v
		},
		func(v *string) bool {
			assignCalls++
			assigned = v
			return true
		})

	assert.Equal(t, 1, assignCalls)
	require.NotNil(t, assigned)
	assert.Equal(t, "none", *assigned)
	got, ok := s.Get("ECHO")
	assert.True(t, ok)
	assert.Equal(t, "none", got)
}

func TestStore_SetHooksIgnoresAssignVerdict(t *testing.T) {
	s, _ := newTestStore()
	require.True(t, s.Set("STRICT", "bad"))

	s.SetHooks("STRICT", nil, func(*string) bool { return false })

	got, ok := s.Get("STRICT")
	assert.True(t, ok)
	assert.Equal(t, "bad", got, "registration keeps the current value even if the hook dislikes it")
	assert.True(t, s.HasHooks("STRICT"))
}

func TestStore_SetHooksInvalidName(t *testing.T) {
	s, sink := newTestStore()

	s.SetHooks("bad-name", boolSubstitute, nil)

	assert.False(t, s.HasHooks("bad-name"))
	assert.Empty(t, slices.Collect(s.Names()))
	assert.Empty(t, sink.Diagnostics)
}

func TestStore_SetHooksWithoutHooksThenDelete(t *testing.T) {
	s, _ := newTestStore()

	s.SetHooks("BARE", nil, nil)
	assert.False(t, s.HasHooks("BARE"))
	assert.Contains(t, slices.Collect(s.Names()), "BARE")

	s.Set("BARE", "x")
	s.Delete("BARE")
	assert.NotContains(t, slices.Collect(s.Names()), "BARE")
}

func TestStore_HasHooks(t *testing.T) {
	s, _ := newTestStore()
	s.Set("plain", "x")
	s.SetHooks("only_substitute", boolSubstitute, nil)
	s.SetHooks("only_assign", nil, func(*string) bool { return true })

	assert.False(t, s.HasHooks("plain"))
	assert.False(t, s.HasHooks("missing"))
	assert.True(t, s.HasHooks("only_substitute"))
	assert.True(t, s.HasHooks("only_assign"))
}

func TestStore_All(t *testing.T) {
	s, _ := newTestStore()
	s.Set("a", "1")
	s.Set("b", "2")
	s.SetHooks("hook_only", nil, func(*string) bool { return true })

	got := maps.Collect(s.All())

	want := map[string]string{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AllStopsEarly(t *testing.T) {
	s, _ := newTestStore()
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("c", "3")

	count := 0
	for range s.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestStore_Print(t *testing.T) {
	s, _ := newTestStore()
	s.Set("b", "two")
	s.Set("a", "one")
	s.SetHooks("hook_only", nil, func(*string) bool { return true })

	var buf bytes.Buffer
	require.NoError(t, s.Print(context.Background(), &buf))

	assert.Equal(t, "a = 'one'\nb = 'two'\n", buf.String())
}

func TestStore_PrintCancelled(t *testing.T) {
	s, _ := newTestStore()
	s.Set("a", "one")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := s.Print(ctx, &buf)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}
