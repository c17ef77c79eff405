package access

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, role := range Roles {
		parsed, err := ParseRole(role.String())
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}
	parsed, err := ParseRole("  Editor ")
	require.NoError(t, err)
	require.Equal(t, RoleEditor, parsed)

	_, err = ParseRole("admin")
	require.Error(t, err)
}

func TestRoleJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleViewer})
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"viewer"}`, string(data))

	var decoded struct {
		Role Role `json:"role"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &decoded))

	_, err = json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleNone})
	require.Error(t, err)
}

func TestCapabilityTableIsTotal(t *testing.T) {
	t.Parallel()

	for _, a := range Actions {
		require.NotEmpty(t, AllowedRoles(a), "action %s has no allow-list", a)
	}
	require.False(t, Can(RoleSuperuser, Action(99)), "unknown actions are denied")
}

func TestVisibleActions(t *testing.T) {
	t.Parallel()

	mutating := []Action{ActionAdvanceTurn, ActionSkipTurn, ActionSendReminder, ActionSendCustomReminder}
	for _, role := range []Role{RoleSuperuser, RoleEditor} {
		visible := VisibleActions(role)
		for _, a := range mutating {
			require.Contains(t, visible, a, "%s should see %s", role, a)
		}
	}
	viewer := VisibleActions(RoleViewer)
	require.Equal(t, []Action{ActionRefresh}, viewer)
	for _, a := range mutating {
		require.NotContains(t, viewer, a)
	}
	require.Empty(t, VisibleActions(RoleNone))
}

func TestVisibleNavOmitsForbiddenEntries(t *testing.T) {
	t.Parallel()

	labels := func(items []NavItem) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Label
		}
		return out
	}

	require.Contains(t, labels(VisibleNav(RoleSuperuser)), "Settings")
	editor := labels(VisibleNav(RoleEditor))
	require.Contains(t, editor, "Announcements")
	require.NotContains(t, editor, "Settings")
	viewer := labels(VisibleNav(RoleViewer))
	require.NotContains(t, viewer, "Announcements")
	require.NotContains(t, viewer, "History")
	require.NotContains(t, viewer, "Settings")
	require.Contains(t, viewer, "Logs")
	require.Empty(t, VisibleNav(RoleNone))

	require.True(t, CanOpen(RoleViewer, SectionDashboard))
	require.False(t, CanOpen(RoleViewer, SectionSettings))
	require.False(t, CanOpen(RoleSuperuser, Section("/nowhere")))
}

func TestCompactNavOrder(t *testing.T) {
	t.Parallel()

	var paths []Section
	for _, item := range CompactNav(RoleEditor) {
		paths = append(paths, item.Path)
	}
	require.Equal(t, []Section{SectionDashboard, SectionResidents, SectionRotation, SectionIssues, SectionAnnouncements}, paths)
	require.Len(t, CompactNav(RoleViewer), 4)
}
