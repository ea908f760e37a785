package syncplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessListDefaults(t *testing.T) {
	a := NewAccessList(true, false)
	a.TouchPermissions("u1")
	perm := a.Resolve("u1")
	assert.True(t, perm.Playback)
	assert.False(t, perm.Playlist)
}

func TestAccessListAdministratorAlwaysPasses(t *testing.T) {
	a := NewAccessList(false, false)
	a.AddAdministrator("admin")
	assert.NoError(t, a.CheckRequest("admin", RequestSetPlaylistItem))
	assert.NoError(t, a.CheckRequest("admin", RequestPlay))
}

func TestAccessListNonAdminDenied(t *testing.T) {
	a := NewAccessList(false, false)
	a.TouchPermissions("u1")
	assert.ErrorIs(t, a.CheckRequest("u1", RequestPlay), ErrForbidden)
	assert.ErrorIs(t, a.CheckRequest("u1", RequestQueue), ErrForbidden)
}

func TestAccessListExplicitOverrideSurvivesDefaultChange(t *testing.T) {
	a := NewAccessList(false, true)
	a.TouchPermissions("u1")
	a.SetPermissions("u1", false, false)
	a.OpenPlaybackAccess = true
	perm := a.Resolve("u1")
	assert.False(t, perm.Playback)
}

func TestAccessListClearPermissionsReverts(t *testing.T) {
	a := NewAccessList(true, true)
	a.SetPermissions("u1", false, false)
	a.ClearPermissions("u1")
	perm := a.Resolve("u1")
	assert.True(t, perm.Playback)
	assert.True(t, perm.Playlist)
}

func TestAccessListPingRequiresNoPermission(t *testing.T) {
	a := NewAccessList(false, false)
	a.TouchPermissions("u1")
	assert.NoError(t, a.CheckRequest("u1", RequestPing))
}
